package http

import (
	"github.com/aimeal/backend/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = maxImageBytes

	logger := log.With().Str("component", "http").Logger()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.GET("/health", handler.HealthCheck)

	api := v1.Group("")
	api.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	api.Use(AuthMiddleware(cfg.Auth.JWTSecret))
	{
		foods := api.Group("/foods")
		{
			foods.GET("/search", handler.SearchFoods)
			foods.GET("/search/live", handler.LiveSearch)
			foods.GET("/barcode/:code", handler.GetFoodByBarcode)
		}

		scan := api.Group("/scan")
		{
			scan.POST("/barcode", handler.ScanBarcode)
			scan.GET("/live", handler.LiveCapture)
		}

		api.POST("/recognize", handler.RecognizeFoods)

		meals := api.Group("/meals")
		{
			meals.GET("", handler.ListMeals)
			meals.POST("", handler.CreateMeal)
			meals.GET("/today", handler.TodayMeals)
			meals.GET("/:id", handler.GetMeal)
			meals.PATCH("/:id", handler.UpdateMeal)
			meals.PATCH("/:id/foods/:foodId", handler.AdjustMealFood)
			meals.DELETE("/:id", handler.DeleteMeal)
		}

		summary := api.Group("/summary")
		{
			summary.GET("/day", handler.DaySummary)
			summary.GET("/week", handler.WeekSummary)
		}

		api.GET("/calendar/:year/:month", handler.Calendar)
	}

	return router
}
