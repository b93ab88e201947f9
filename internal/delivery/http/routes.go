package http

import (
	"github.com/cartwise/backend/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.SugaredLogger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP, cfg.RateLimit.Burst)))
	v1.Use(BodySizeLimitMiddleware(maxBodySize))
	{
		ingredients := v1.Group("/ingredients")
		{
			ingredients.POST("/normalize", handler.NormalizeIngredients)
			ingredients.POST("/match", handler.MatchIngredient)
		}

		v1.GET("/products/search", handler.SearchProducts)
		v1.POST("/prices/resolve", handler.ResolvePrice)
		v1.POST("/catalog/products", handler.IngestProduct)
		v1.POST("/shopping-lists", handler.BuildShoppingList)
	}

	return router
}
