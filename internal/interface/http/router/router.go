package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/bookorder/internal/interface/http/handler"
	"github.com/xiebiao/bookorder/internal/interface/http/middleware"
	"github.com/xiebiao/bookorder/pkg/response"
)

// Options 路由选项
type Options struct {
	Mode          string // debug | release | test
	EnableSwagger bool
}

// New 创建Gin引擎并注册全部路由
//
//	GET    /ping
//	GET    /metrics
//	GET    /swagger/*any
//	POST   /api/v1/orders                登录
//	GET    /api/v1/orders                管理员
//	GET    /api/v1/orders/:id            本人或管理员
//	PATCH  /api/v1/orders/:id/status     本人或管理员
//	DELETE /api/v1/orders/:id            管理员
func New(
	opts Options,
	log *zap.Logger,
	orderHandler *handler.OrderHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(log), middleware.Metrics())

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger文档,访问 /swagger/index.html
	if opts.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		orders.Use(authMiddleware.RequireAuth())
		{
			orders.POST("", orderHandler.PlaceOrder)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PATCH("/:id/status", orderHandler.UpdateStatus)

			admin := orders.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("", orderHandler.ListOrders)
				admin.DELETE("/:id", orderHandler.DeleteOrder)
			}
		}
	}

	return r
}
