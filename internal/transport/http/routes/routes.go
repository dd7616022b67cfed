package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/infra/config"
	"github.com/feder102/handball-agrupacion-api/internal/transport/http/handlers"
	"github.com/feder102/handball-agrupacion-api/internal/transport/http/middleware"
	"github.com/feder102/handball-agrupacion-api/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Provisioning *usecase.ProvisioningService
	Forwarding   *usecase.ForwardingService
	Mirrors      map[string]*usecase.TableMirror
	Session      *usecase.SessionContext
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.Forwarder.CORSOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterSwagger(r)

	// The forwarding endpoints keep their unversioned paths; existing clients
	// address them directly.
	forwardingHandler := handlers.NewForwardingHandler(deps.Services.Forwarding)
	createUserLimit := buildRateLimit(deps, "create_user_ip", deps.Config.RateLimit.CreateUserMaxAttempts)
	adminLimit := buildRateLimit(deps, "admin_create_user_ip", deps.Config.RateLimit.AdminMaxAttempts)

	createUserChain := append([]gin.HandlerFunc{}, createUserLimit...)
	createUserChain = append(createUserChain, forwardingHandler.CreateUser)
	r.POST("/create-user", createUserChain...)

	adminChain := append([]gin.HandlerFunc{}, adminLimit...)
	adminChain = append(adminChain, forwardingHandler.AdminCreateUser)
	r.POST("/admin/create-user", adminChain...)

	api := r.Group("/api/v1")
	{
		memberGroup := api.Group("/members")
		registrationHandler := handlers.NewRegistrationHandler(deps.Services.Provisioning)

		registerChain := append([]gin.HandlerFunc{}, createUserLimit...)
		registerChain = append(registerChain, registrationHandler.Register)
		memberGroup.POST("/register", registerChain...)

		tablesHandler := handlers.NewTablesHandler(deps.Services.Mirrors)
		tablesHandler.RegisterRoutes(api)

		if deps.Services.Session != nil {
			sessionHandler := handlers.NewSessionHandler(deps.Services.Session)
			api.POST("/session", sessionHandler.Update)
			api.GET("/session", sessionHandler.Current)
			api.DELETE("/session", sessionHandler.Clear)
		}
	}

	return r
}

func buildRateLimit(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
