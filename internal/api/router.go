// Package api wires the HTTP surface: timelines, status and relationship
// commands, reactions and the streaming relay.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/timeline-fanout/docs"
	"github.com/d60-Lab/timeline-fanout/internal/api/handler"
	"github.com/d60-Lab/timeline-fanout/internal/api/middleware"
)

// HealthCheck 返回依赖（数据库、redis）的可用性
type HealthCheck func(ctx context.Context) error

// NewRouter @title Timeline Fanout API
// @version 1.0
// @description 内容扇出与时间线分发服务
// @BasePath /
func NewRouter(h *handler.Handler, serviceName string, health HealthCheck) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())
	r.Use(otelgin.Middleware(serviceName))

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if health != nil {
			if err := health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1", handler.Viewer())
	// websocket 连接不能被压缩中间件包裹
	v1.GET("/streaming", h.Streaming)

	api := v1.Group("", gzip.Gzip(gzip.DefaultCompression))
	api.POST("/accounts", h.Register)

	timelines := api.Group("/timelines")
	{
		timelines.GET("/home", handler.RequireViewer(), h.Home)
		timelines.GET("/list/:id", handler.RequireViewer(), h.List)
		timelines.GET("/public", h.Public)
		timelines.GET("/tag/:tag", h.Tag)
		timelines.GET("/group/:id", h.Group)
	}

	api.GET("/statuses/:id/emoji_reactions", h.ListReactions)
	statuses := api.Group("/statuses", handler.RequireViewer())
	{
		statuses.POST("", h.CreateStatus)
		statuses.POST("/:id/reblog", h.Reblog)
		statuses.DELETE("/:id", h.DeleteStatus)
		statuses.PUT("/:id/emoji_reactions/:emoji", h.AddReaction)
		statuses.DELETE("/:id/emoji_reactions/:emoji", h.RemoveReaction)
	}

	relations := api.Group("/relations")
	{
		relations.POST("/follow", handler.RequireViewer(), h.Follow)
		relations.POST("/unfollow", handler.RequireViewer(), h.Unfollow)
		relations.POST("/subscribe", handler.RequireViewer(), h.Subscribe)
		relations.POST("/unsubscribe", handler.RequireViewer(), h.Unsubscribe)
		relations.GET("/:user_id/following", h.ListFollowing)
		relations.GET("/:user_id/fans", h.ListFans)
	}

	lists := api.Group("/lists", handler.RequireViewer())
	{
		lists.POST("", h.CreateList)
		lists.POST("/:id/accounts", h.AddListAccounts)
		lists.DELETE("/:id/accounts", h.RemoveListAccounts)
		lists.DELETE("/:id", h.DeleteList)
	}
	return r
}
