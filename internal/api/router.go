package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/theunits/units/internal/api/handlers"
	"github.com/theunits/units/internal/api/middleware"
	"github.com/theunits/units/internal/core/auth"
)

type Router struct {
	engine             *gin.Engine
	logger             *slog.Logger
	authMiddleware     *middleware.AuthMiddleware
	authHandler        *handlers.AuthHandler
	leaseHandler       *handlers.LeaseHandler
	esignatureHandler  *handlers.EsignatureHandler
	allowedOrigins     []string
	notificationSecret string
}

type RouterConfig struct {
	AllowedOrigins []string
	// NotificationSecret turns on signature checks for provider
	// notifications when set.
	NotificationSecret string
}

func NewRouter(
	authService *auth.Service,
	authHandler *handlers.AuthHandler,
	leaseHandler *handlers.LeaseHandler,
	esignatureHandler *handlers.EsignatureHandler,
	cfg RouterConfig,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger:             logger,
		authMiddleware:     middleware.NewAuthMiddleware(authService),
		authHandler:        authHandler,
		leaseHandler:       leaseHandler,
		esignatureHandler:  esignatureHandler,
		allowedOrigins:     cfg.AllowedOrigins,
		notificationSecret: cfg.NotificationSecret,
	}
}

func (r *Router) Setup(mode string) *gin.Engine {
	gin.SetMode(mode)
	r.engine = gin.New()
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestContext())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.CORS(r.allowedOrigins))

	r.setupRoutes()
	return r.engine
}

func (r *Router) setupRoutes() {
	api := r.engine.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider pushes carry no user token
	api.POST("/notifications", middleware.VerifySignature(r.notificationSecret), r.esignatureHandler.Notify)

	protected := api.Group("")
	protected.Use(r.authMiddleware.Authenticate())
	{
		protected.GET("/auth/me", r.authHandler.Me)

		leases := protected.Group("/leases")
		{
			leases.GET("", r.leaseHandler.List)
			leases.POST("", r.leaseHandler.Create)
			leases.GET("/:id", r.leaseHandler.Get)
			leases.POST("/:id", r.leaseHandler.AttachProviderLease)
			leases.POST("/:id/esignatures", r.esignatureHandler.Request)
		}

		protected.GET("/lease-forms", r.leaseHandler.LeaseForms)
		protected.POST("/esignatures/:id/execute", r.esignatureHandler.Execute)
	}
}
