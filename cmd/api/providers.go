package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apporder "github.com/xiebiao/bookorder/internal/application/order"
	"github.com/xiebiao/bookorder/internal/domain/order"
	"github.com/xiebiao/bookorder/internal/domain/price"
	"github.com/xiebiao/bookorder/internal/infrastructure/config"
	"github.com/xiebiao/bookorder/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookorder/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookorder/internal/interface/http/router"
	"github.com/xiebiao/bookorder/pkg/jwt"
)

// App 组装完成的应用
type App struct {
	Engine     *gin.Engine
	AbandonJob *apporder.AbandonOrdersJob
}

func newApp(engine *gin.Engine, job *apporder.AbandonOrdersJob) *App {
	return &App{Engine: engine, AbandonJob: job}
}

// provideDB 创建数据库连接,cleanup时关闭连接池
func provideDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// provideOrderCache Redis开启时使用Redis缓存订单视图,否则不缓存
func provideOrderCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (apporder.OrderCache, func(), error) {
	if !cfg.Redis.Enabled {
		log.Info("Redis未开启,订单视图不缓存")
		return apporder.NoopCache{}, func() {}, nil
	}

	client, err := redis.NewClient(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	breaker := redis.NewBreaker(cfg.Redis.BreakerFailures, cfg.Redis.BreakerTimeout, log)
	cleanup := func() { _ = client.Close() }
	return redis.NewOrderCache(client, breaker, log), cleanup, nil
}

// providePriceEngine 按配置的运费和门槛创建价格计算器
func providePriceEngine(cfg *config.Config) (*price.Engine, error) {
	a, err := cfg.Pricing.Amounts()
	if err != nil {
		return nil, err
	}
	fees := price.DeliveryFees{
		order.DeliveryCourier:    a.CourierFee,
		order.DeliverySelfPickup: a.SelfPickupFee,
	}
	return price.NewEngine(fees,
		price.FreeDeliveryStrategy{Threshold: a.FreeDeliveryThreshold},
		price.CheapestBookStrategy{
			FreeThreshold:      a.FreeCheapestBookThreshold,
			HalfPriceThreshold: a.HalfPriceBookThreshold,
		},
	), nil
}

func provideQueryOptions(cfg *config.Config) apporder.QueryOptions {
	return apporder.QueryOptions{CacheTTL: cfg.Order.CacheTTL}
}

func provideAbandonOptions(cfg *config.Config) apporder.AbandonOptions {
	return apporder.AbandonOptions{
		PaymentPeriod: cfg.Order.PaymentPeriod,
		Interval:      cfg.Order.AbandonInterval,
	}
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire)
}

func provideRouterOptions(cfg *config.Config) router.Options {
	return router.Options{
		Mode:          cfg.Server.Mode,
		EnableSwagger: cfg.Server.Mode != "release",
	}
}
