package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matricula/matricula/internal/config"
	"github.com/matricula/matricula/internal/handler"
	"github.com/matricula/matricula/internal/middleware"
	"github.com/matricula/matricula/internal/response"
	"github.com/matricula/matricula/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Student *handler.StudentHandler
	Payment *handler.PaymentHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// Observability carries the collectors wired into the router.
type Observability struct {
	Registry    *prometheus.Registry
	Metrics     *middleware.Metrics
	AuthLimiter *middleware.RateLimiter
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	obs *Observability,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	if obs != nil && obs.Metrics != nil {
		router.Use(obs.Metrics.Middleware())
	}

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)
	if obs != nil && obs.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})))
	}

	requireAuth := []gin.HandlerFunc{
		middleware.RequireJWT(authService),
		middleware.CheckSession(authService),
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		public := auth.Group("")
		if obs != nil && obs.AuthLimiter != nil {
			public.Use(obs.AuthLimiter.Middleware())
		}
		public.POST("/login", handlers.Auth.Login)
		public.POST("/token", handlers.Auth.Token)

		auth.POST("/logout", append(requireAuth, handlers.Auth.Logout)...)
		auth.GET("/me", append(requireAuth, handlers.Auth.Me)...)
	}

	// ─── 2. Operator API (JWT + live session) ──────────────────────────
	api := router.Group("/api/v1")
	api.Use(requireAuth...)
	{
		api.POST("/users", handlers.User.CreateUser)

		api.GET("/students", handlers.Student.ListStudents)
		api.POST("/students", handlers.Student.CreateStudent)
		api.GET("/students/delinquent", handlers.Student.ListDelinquent)
		api.GET("/students/export", handlers.Student.Export)
		api.GET("/students/:id/status", handlers.Student.GetStatus)

		api.POST("/payments", handlers.Payment.RecordPayment)

		api.GET("/system/status", handlers.System.Status)
	}

	// ─── 3. WebSocket Group (token in query) ───────────────────────────
	if handlers.WS != nil {
		ws := router.Group("/ws/v1")
		ws.Use(requireAuth...)
		{
			ws.GET("/enrollments", handlers.WS.EnrollmentStream)
		}
	}

	return router
}
