package http

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/harudiet/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// gin trusts every peer by default; only listed proxies may set X-Forwarded-For
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Printf("[HTTP] invalid trusted proxies %v: %v; trusting none", cfg.Server.TrustedProxies, err)
		_ = router.SetTrustedProxies(nil)
	}

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		members := v1.Group("/members/:memberId/meals")
		{
			members.GET("/daily", handler.DailySummary)
			members.GET("/timeline", handler.Timeline)
			members.GET("/counts", handler.MonthlyCounts)
			members.POST("", handler.SaveMeal)
		}

		meals := v1.Group("/meals")
		{
			meals.POST("/photos", handler.UploadPhoto)
			meals.POST("/analyze", handler.AnalyzePhoto)
			meals.GET("/:id", handler.GetMeal)
			meals.DELETE("/:id", handler.DeleteMeal)
		}
	}

	return router
}
