//go:build wireinject
// +build wireinject

// Wire依赖注入配置,修改后运行 `wire gen ./cmd/api` 重新生成wire_gen.go

package main

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/bookorder/internal/application/order"
	"github.com/xiebiao/bookorder/internal/infrastructure/config"
	"github.com/xiebiao/bookorder/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookorder/internal/interface/http/handler"
	"github.com/xiebiao/bookorder/internal/interface/http/middleware"
	"github.com/xiebiao/bookorder/internal/interface/http/router"
	"github.com/xiebiao/bookorder/pkg/clock"
)

// infrastructureSet 数据库、缓存、时钟
var infrastructureSet = wire.NewSet(
	provideDB,
	provideOrderCache,
	clock.NewSystem,
)

// repositorySet 仓储与事务管理器
var repositorySet = wire.NewSet(
	mysql.NewBookRepository,
	mysql.NewOrderRepository,
	mysql.NewRecipientRepository,
	mysql.NewTxManager,
	wire.Bind(new(apporder.TxManager), new(*mysql.TxManager)),
)

// applicationSet 订单用例与超时放弃任务
var applicationSet = wire.NewSet(
	providePriceEngine,
	provideQueryOptions,
	provideAbandonOptions,
	apporder.NewPlaceOrderUseCase,
	apporder.NewUpdateStatusUseCase,
	apporder.NewQueryOrderUseCase,
	apporder.NewAbandonOrdersJob,
	wire.Bind(new(apporder.StatusUpdater), new(*apporder.UpdateStatusUseCase)),
)

// interfaceSet HTTP层
var interfaceSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
	handler.NewOrderHandler,
	provideRouterOptions,
	router.New,
)

// InitializeApp 组装整个应用,cleanup关闭数据库和Redis连接
func InitializeApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		applicationSet,
		interfaceSet,
		newApp,
	)
	return nil, nil, nil
}
