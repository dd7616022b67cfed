package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/infra/config"
	"github.com/feder102/handball-agrupacion-api/internal/infra/database"
	kafkainfra "github.com/feder102/handball-agrupacion-api/internal/infra/kafka"
	"github.com/feder102/handball-agrupacion-api/internal/infra/logger"
	"github.com/feder102/handball-agrupacion-api/internal/infra/platform"
	redisinfra "github.com/feder102/handball-agrupacion-api/internal/infra/redis"
	"github.com/feder102/handball-agrupacion-api/internal/infra/security"
	"github.com/feder102/handball-agrupacion-api/internal/infra/telemetry"
	postgresrepo "github.com/feder102/handball-agrupacion-api/internal/repository/postgres"
	redisrepo "github.com/feder102/handball-agrupacion-api/internal/repository/redis"
	"github.com/feder102/handball-agrupacion-api/internal/transport/http/middleware"
	"github.com/feder102/handball-agrupacion-api/internal/transport/http/routes"
	"github.com/feder102/handball-agrupacion-api/internal/usecase"
)

// mirroredTables maps each mirrored table to its change-stream channel name.
var mirroredTables = map[string]string{
	"socios":        "socios_feed",
	"cuotas_socios": "cuotas_feed",
	"pagos":         "pagos_feed",
	"reportes_view": "reportes_feed",
}

type Application struct {
	cfg     *config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger
	pool    *pgxpool.Pool
	redis   *redisinfra.Client
	tracer  *telemetry.TracerProvider
	stream  *kafkainfra.TableChangeStream
	mirrors map[string]*usecase.TableMirror
	session *usecase.SessionContext
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	platformClient, err := platform.NewClient(cfg.Platform, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init platform client: %w", err)
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var stream *kafkainfra.TableChangeStream
	if len(cfg.Kafka.Brokers) > 0 {
		stream, err = kafkainfra.NewTableChangeStream(cfg.Kafka, cfg.Mirror.EventBuffer, log)
		if err != nil {
			log.Warn("failed to init table change stream, mirrors serve static snapshots", zap.Error(err))
			stream = nil
		}
	}

	memberRepo := postgresrepo.NewMemberRepository(pool)
	rowRepo := postgresrepo.NewRowRepository(pool)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "club:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	passwordValidator := security.DefaultPasswordValidator()

	var forwarder port.ProfileForwarder
	if cfg.Forwarder.CreateUserURL != "" {
		forwarder = platform.NewForwarder(cfg.Forwarder.CreateUserURL, log)
		log.Info("profile forwarding enabled", zap.String("endpoint", cfg.Forwarder.CreateUserURL))
	} else {
		log.Info("no forwarding endpoint configured, profile writes go direct")
	}

	provisioningService := usecase.NewProvisioningService(platformClient, forwarder, memberRepo, eventPublisher, passwordValidator, log)
	forwardingService := usecase.NewForwardingService(platformClient, platformClient, eventPublisher, cfg.Forwarder.AdminSecret, log)
	sessionContext := usecase.NewSessionContext(cfg.Platform.JWTSecret, log)

	// Without brokers the mirrors still open against a silent stream, so the
	// table endpoints serve the seeded snapshot instead of 404.
	var changeStream port.ChangeStream = kafkainfra.NewStaticChangeStream(log)
	if stream != nil {
		changeStream = stream
	}

	mirrors := make(map[string]*usecase.TableMirror, len(mirroredTables))
	for table, channel := range mirroredTables {
		mirror := usecase.NewTableMirror(rowRepo, changeStream, channel, table, log).
			WithFetchLimit(cfg.Mirror.FetchLimit)
		mirrors[table] = mirror
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Provisioning: provisioningService,
			Forwarding:   forwardingService,
			Mirrors:      mirrors,
			Session:      sessionContext,
		},
	})

	return &Application{
		cfg:     cfg,
		engine:  engine,
		logger:  log,
		pool:    pool,
		redis:   redisClient,
		tracer:  tracer,
		stream:  stream,
		mirrors: mirrors,
		session: sessionContext,
	}, nil
}

// Session exposes the process-wide session context.
func (a *Application) Session() *usecase.SessionContext {
	return a.session
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.tracer.Shutdown(shutdownCtx)
	}()

	if a.stream != nil {
		go func() {
			if err := a.stream.Run(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("table change stream stopped", zap.Error(err))
			}
		}()
		defer func() {
			_ = a.stream.Close()
		}()
	}

	for table, mirror := range a.mirrors {
		if err := mirror.Open(ctx); err != nil {
			a.logger.Warn("table mirror failed to open",
				zap.String("table", table),
				zap.Error(err),
			)
			continue
		}
		a.logger.Info("table mirror opened", zap.String("table", table))
	}
	defer func() {
		for _, mirror := range a.mirrors {
			_ = mirror.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting agrupacion API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
