package api

import (
	"github.com/gin-gonic/gin"

	"github.com/hweber/particletrack/internal/api/handler"
	"github.com/hweber/particletrack/internal/api/middleware"
	"github.com/hweber/particletrack/internal/config"
	"github.com/hweber/particletrack/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(pipeline *service.PipelineService, cfg *config.ServerConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler()
	classifyHandler := handler.NewClassifyHandler(pipeline)
	predictionsHandler := handler.NewPredictionsHandler(pipeline)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/classify", classifyHandler.Classify)

		v1.GET("/predictions", predictionsHandler.List)
		v1.GET("/predictions/export", predictionsHandler.Export)
		v1.DELETE("/predictions", predictionsHandler.Clear)
	}

	return r
}
