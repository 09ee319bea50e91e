package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"craftresume-backend-go/internal/core"
	"craftresume-backend-go/internal/middleware"
)

// SetupRoutes registers the /api/v1 routes and /health. Global middleware
// (logging, recovery, CORS) is applied by the caller.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
	profileService core.ProfileService,
	templateService core.TemplateService,
	uploadService core.UploadService,
) {
	userHandler := NewUserHandler(profileService)
	templateHandler := NewTemplateHandler(templateService)
	uploadHandler := NewUploadHandler(uploadService)

	admin := []gin.HandlerFunc{authMW.VerifyToken(), authMW.RequireAdmin()}

	apiV1 := router.Group("/api/v1")
	{
		users := apiV1.Group("/users")
		{
			users.GET("/me", authMW.OptionalToken(), userHandler.GetCurrentUserProfile)
			users.POST("/signout", authMW.VerifyToken(), userHandler.SignOut)
		}

		templates := apiV1.Group("/templates")
		{
			templates.GET("", templateHandler.ListTemplates)
			templates.GET("/tags", templateHandler.ListTags)
			templates.GET("/next-name", append(admin, templateHandler.NextName)...)
			templates.POST("", append(admin, templateHandler.CreateTemplate)...)
			templates.DELETE("/:templateId", append(admin, templateHandler.DeleteTemplate)...)
		}

		uploads := apiV1.Group("/uploads", admin...)
		{
			uploads.POST("", uploadHandler.StartUpload)
			uploads.GET("/:uploadId", uploadHandler.GetUpload)
			uploads.DELETE("/:uploadId", uploadHandler.DiscardUpload)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "CraftResume backend is healthy."})
	})

	logger.Info("API routes configured under /api/v1 and /health")
}
