package app

import (
	"log/slog"

	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/handlers"
	"taskhub/internal/notify"
	"taskhub/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

type routeDeps struct {
	gate     *auth.Gate
	tokens   *auth.Tokens
	revoker  handlers.Revoker
	sessions handlers.SessionCloser
	users    *service.UserService
	tasks    *service.TaskService
	ws       *notify.Handler
}

// connCounter reports live push connections for /health.
type connCounter interface {
	ClientCount() int
}

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, conns connCounter, d routeDeps, log *slog.Logger) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg, conns))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")

	userHandler := handlers.NewUserHandler(d.users, d.tokens, d.revoker, d.sessions, log)
	api.POST("/users/register", userHandler.Register)
	api.POST("/users/login", userHandler.Login)

	// Browsers cannot set headers on a WebSocket handshake, so /ws also takes ?token=.
	api.GET("/ws", d.gate.Require(true), d.ws.Connect)

	protected := api.Group("", d.gate.Require(false))
	registerUserRoutes(protected, userHandler)
	registerTaskRoutes(protected, handlers.NewTaskHandler(d.tasks, log))
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "TaskHub API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
			"ws":      "/api/v1/ws",
		})
	}
}

func healthHandler(cfg config.Config, conns connCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env, "ws_connections": conns.ClientCount()})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	api.POST("/tasks", h.Create)
	api.GET("/tasks", h.Mine)
	api.GET("/tasks/created", h.Created)
	api.GET("/tasks/assigned", h.Assigned)
	api.GET("/tasks/overdue", h.Overdue)
	api.PATCH("/tasks/assign/:id", h.Assign)
	api.GET("/tasks/:id", h.Get)
	api.PATCH("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)
}

func registerUserRoutes(api *gin.RouterGroup, h *handlers.UserHandler) {
	api.POST("/users/logout", h.Logout)
	api.GET("/users", h.List)
	api.GET("/users/profile", h.Profile)
	api.PATCH("/users/profile", h.UpdateProfile)
}
