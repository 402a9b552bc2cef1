package api

import (
	"github.com/gin-gonic/gin"

	"github.com/file-manager-grev/file-service/cmd/middleware"
	"github.com/file-manager-grev/file-service/internal/api/handlers"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, PATCH, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}

// RegisterRoutes wires every endpoint. auth may be nil when no OIDC issuer
// is configured; uploads then fall back to the userId form field.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, auth *middleware.Authenticator) {
	r.Use(corsMiddleware())

	requireAuth := func(c *gin.Context) { c.Next() }
	if auth != nil {
		requireAuth = auth.RequireAuth()
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.POST("/auth/login", h.Login)

		// uploads
		api.POST("/upload", requireAuth, h.UploadFile)
		api.POST("/folder/upload-folder", requireAuth, h.UploadFolder)
		api.GET("/files/:id/preview", requireAuth, h.GetPreview)

		// browse & edit
		edit := api.Group("/edit", requireAuth)
		{
			edit.GET("/files", h.ListFiles)
			edit.GET("/folders", h.ListFolders)
			edit.PUT("/:type/:id", h.Rename)
			edit.DELETE("/:type/:id", h.SoftDelete)
			edit.POST("/:type/:id/restore", h.Restore)
			edit.DELETE("/:type/:id/permanent", h.PermanentDelete)
		}

		// share links; validation must stay public so recipients without an
		// account can redeem
		api.POST("/share", h.ShareFile)
		api.GET("/share/validate/:token", h.ValidateShare)
	}
}
