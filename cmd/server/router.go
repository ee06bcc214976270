package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/foldscape/foldscape/internal/errors"
	"github.com/foldscape/foldscape/internal/monitoring"
)

// setupRouter wires the middleware chain and routes. Order matters:
// monitoring and error handling wrap everything, security and rate
// limiting run before any handler, and the response cache sits last so
// it only ever stores responses that passed the whole chain.
func (app *application) setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(requestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(app.metrics, app.logger))
	r.Use(errors.RecoveryHandler())
	r.Use(errors.ErrorHandler())
	r.Use(app.security.SecurityHeaders)
	r.Use(app.security.RequestTimeout)
	r.Use(app.security.ValidateContentType)
	r.Use(cors.New(corsConfig(app.cfg.AllowedOrigins)))
	r.Use(app.limiter.IPRateLimitMiddleware())

	r.GET("/health", app.handleHealth)
	r.GET("/metrics", app.handleMetrics)
	r.GET("/cache/stats", app.handleCacheStats)
	r.GET("/ratelimit/stats", app.handleRateLimitStats)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	api.Use(app.security.ValidateQueryParams)
	api.Use(app.cache.Middleware(app.metrics))
	{
		api.GET("/repos", app.handleRepos)
		api.GET("/stats", app.handleStats)
		api.GET("/trending", app.handleTrending)
		api.GET("/top", app.handleTop)
		api.GET("/categories", app.handleCategories)
		api.GET("/languages", app.handleLanguages)
		api.GET("/metadata", app.handleMetadata)
	}

	admin := r.Group("/api")
	admin.Use(app.auth.Middleware())
	{
		admin.POST("/refresh", app.limiter.RefreshRateLimitMiddleware(), app.handleRefresh)
		admin.GET("/validate", app.handleValidate)
	}

	return r
}

// requestIDMiddleware tags every request so log lines across the chain
// can be correlated. Honors an incoming X-Request-ID from a proxy.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}
