package routes

import (
	"sosmed_backend/internal/handlers"
	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/metrics"
	"sosmed_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes регистрирует API v1 и служебные маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	m *metrics.Metrics,
) {
	api := ginRouter.Group("/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.PostHandler.RegisterRoutes(api)
		appHandlers.CommentHandler.RegisterRoutes(api)
		appHandlers.LikeHandler.RegisterRoutes(api)
		appHandlers.UserHandler.RegisterRoutes(api)

		if appHandlers.WSHandler != nil {
			appHandlers.WSHandler.RegisterRoutes(api)
		}
	}

	appHandlers.HealthHandler.RegisterRoutes(ginRouter)
	ginRouter.GET("/metrics", gin.WrapH(m.Handler()))
	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// неизвестный маршрут тоже отвечает в общем конверте
	ginRouter.NoRoute(func(c *gin.Context) {
		apperrors.HandleError(c, apperrors.NewNotFoundError("route", "Route not found"))
	})

	if appHandlers.FileHandler != nil {
		appHandlers.FileHandler.RegisterRoutes(ginRouter)
		logger.Info("Local file route /files registered")
	}
}
