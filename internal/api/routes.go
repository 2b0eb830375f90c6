package api

import (
	"github.com/RishiKendai/shingle/internal/config"
	"github.com/RishiKendai/shingle/internal/metrics"
	"github.com/RishiKendai/shingle/internal/service"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

func SetupRoutes(
	cfg *config.Config,
	svc *service.Service,
	redisClient goredis.Cmdable,
	queue Enqueuer,
	rec *metrics.Recorder,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Create handler
	handler := NewHandler(cfg, svc, redisClient, queue)

	// Create rate limiter
	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, max(1, int(cfg.RateLimitRPS*2)))

	// Middleware
	router.Use(MetricsMiddleware(rec))
	router.Use(ErrorHandlerMiddleware())

	// Multipart uploads are held in memory up to two documents
	router.MaxMultipartMemory = int64(2*cfg.MaxTextBytes) + 1<<16

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	// API routes (with auth and rate limiting)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/compare", handler.Compare)
		api.POST("/compare/async", handler.CompareAsync)
		api.POST("/compare/files", handler.CompareFiles)
		api.POST("/compare/batch", handler.CompareBatch)
		api.GET("/reports", handler.ListReports)
		api.GET("/reports/:id", handler.GetReport)
		api.GET("/reports/:id/status", handler.GetStatus)
	}

	return router
}
