package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/mistakebook/mistakebook/cmd/docs"
	portssvc "github.com/mistakebook/mistakebook/internal/core/ports/services"
	"github.com/mistakebook/mistakebook/internal/middleware"
	"github.com/mistakebook/mistakebook/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// The browser-extension content script calls from third-party page
	// origins, so CORS is wide open.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Content-Type", middleware.UserIDHeader, middleware.ExternalTokenHeader}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	registerAuthRoutes(r, services.User)
	registerEntityRoutes(r, services)
	registerExternalRoutes(r, services)

	setupSwaggerRoutes(r, cfg)
}

// registerEntityRoutes configures the X-User-Id protected entity routes.
func registerEntityRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	api := r.Group("/api", middleware.UserAuth())

	registerUserRoutes(api, services.User)
	registerQuestionRoutes(api, services.Question)
	registerSessionRoutes(api, services.Session)
}

// registerExternalRoutes configures the browser-extension routes behind
// the X-External-Token credential.
func registerExternalRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	external := r.Group("/api/external", middleware.ExternalTokenAuth(services.External))

	h := NewExternalHandler(services.External)
	external.POST("/analyze", h.Analyze)
	external.POST("/chat", h.Chat)
	external.POST("/save", h.SaveQuestion)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
