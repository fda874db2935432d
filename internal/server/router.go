package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/taveron/agenda-backend/internal/handlers"
	"github.com/taveron/agenda-backend/internal/middleware"
	"github.com/taveron/agenda-backend/internal/types"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	UserHandler    *handlers.UserHandler
	ContactHandler *handlers.ContactHandler
	CatalogHandler *handlers.CatalogHandler
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("agenda-backend"))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/auth/register/", cfg.AuthHandler.Register)
		api.POST("/auth/login/", cfg.AuthHandler.Login)
		api.POST("/auth/refresh/", cfg.AuthHandler.Refresh)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := api.Group("")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.POST("/auth/logout/", cfg.AuthHandler.Logout)

	// Profile
	protected.GET("/auth/perfil/", cfg.UserHandler.Profile)
	protected.PUT("/auth/perfil/", cfg.UserHandler.UpdateProfile)
	protected.PATCH("/auth/perfil/", cfg.UserHandler.UpdateProfile)
	protected.POST("/auth/cambiar-password/", cfg.UserHandler.ChangePassword)

	// Contacts. The fixed-path collection routes are registered before the
	// parameterized ones so gin never treats "todos" or "buscar" as an id.
	contactos := protected.Group("/contactos")
	{
		contactos.GET("/", cfg.ContactHandler.List)
		contactos.POST("/", cfg.ContactHandler.Create)
		contactos.GET("/todos/", cfg.ContactHandler.ListAll)
		contactos.GET("/favoritos/", cfg.ContactHandler.Favorites)
		contactos.GET("/buscar/", cfg.ContactHandler.Search)
		contactos.GET("/por_tipo/", cfg.ContactHandler.GroupByType)
		contactos.GET("/estadisticas/", cfg.ContactHandler.Statistics)
		contactos.GET("/:id/", cfg.ContactHandler.Get)
		contactos.PUT("/:id/", cfg.ContactHandler.Update)
		contactos.PATCH("/:id/", cfg.ContactHandler.Update)
		contactos.DELETE("/:id/", cfg.ContactHandler.Delete)
		contactos.POST("/:id/toggle_favorito/", cfg.ContactHandler.ToggleFavorite)
	}

	// Catalogs
	protected.GET("/tipos-relacion/", cfg.CatalogHandler.RelationshipTypes)
	protected.GET("/tipos-telefono/", cfg.CatalogHandler.PhoneTypes)
	protected.GET("/tipos-email/", cfg.CatalogHandler.EmailTypes)
	protected.GET("/tipos-direccion/", cfg.CatalogHandler.AddressTypes)

	// ===============
	// || Admin     ||
	// ===============
	admin := protected.Group("")
	admin.Use(cfg.AuthMiddleware.RequireRoles(string(types.RoleAdmin)))
	{
		admin.GET("/usuarios/", cfg.UserHandler.List)
		admin.POST("/usuarios/", cfg.UserHandler.Create)
		admin.GET("/usuarios/estadisticas/", cfg.UserHandler.Stats)
		admin.PUT("/usuarios/:id/", cfg.UserHandler.Update)
		admin.PATCH("/usuarios/:id/", cfg.UserHandler.Update)
		admin.POST("/usuarios/:id/toggle-activo/", cfg.UserHandler.ToggleActive)

		admin.POST("/tipos-relacion/", cfg.CatalogHandler.CreateRelationshipType)
		admin.PATCH("/tipos-relacion/:id/", cfg.CatalogHandler.UpdateRelationshipType)
		admin.DELETE("/tipos-relacion/:id/", cfg.CatalogHandler.DeleteRelationshipType)
	}

	// Admin or the account owner; the service decides.
	protected.GET("/usuarios/:id/", cfg.UserHandler.Get)
	protected.DELETE("/usuarios/:id/", cfg.UserHandler.Delete)

	return router
}

// ParseOrigins splits a comma separated origin list from the environment.
func ParseOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
