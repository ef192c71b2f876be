package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/port"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/config"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/database"
	kafkainfra "github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/kafka"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/logger"
	redisinfra "github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/redis"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/security"
	postgresrepo "github.com/Ikaze-Murugo/murugo-v2-sub000/internal/repository/postgres"
	redisrepo "github.com/Ikaze-Murugo/murugo-v2-sub000/internal/repository/redis"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/transport/http/middleware"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/transport/http/routes"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/transport/realtime"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/usecase"
)

// Application wires the full service together and owns its lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New builds the application from configuration. The Redis-backed OTP store
// is optional: with redis disabled the verification flow degrades to codes
// that never verify instead of failing at startup.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	tokens, err := security.NewTokenService(security.TokenConfig{
		AccessSecret:  cfg.Tokens.AccessSecret,
		RefreshSecret: cfg.Tokens.RefreshSecret,
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshTTL:    cfg.Tokens.RefreshTTL,
		Issuer:        cfg.App.Name,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token service: %w", err)
	}

	hasher, err := security.NewPasswordHasher(security.DefaultArgon2Config())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	var redisClient *redisinfra.Client
	var otpStore port.OTPStore
	if cfg.Redis.Enabled {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		otpStore = redisrepo.NewOTPStore(redisClient.Client(), cfg.Redis.OTPPrefix)
	} else {
		log.Warn("redis disabled, verification codes will never match")
		otpStore = redisrepo.NewDisabledOTPStore()
	}

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	repos := postgresrepo.NewRepositories(pool)
	dev := cfg.App.IsDevelopment()

	authService := usecase.NewAuthService(cfg.Auth, repos.Users, repos.Profiles, repos.Registrations, hasher, tokens, eventPublisher)
	otpService := usecase.NewOTPService(cfg.Auth, dev, repos.Users, otpStore, eventPublisher)
	resetService := usecase.NewPasswordResetService(cfg.Auth, dev, repos.Users, hasher, eventPublisher)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	connGauge, err := realtime.NewConnectionGauge(nil)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init realtime gauge: %w", err)
	}
	hub := realtime.NewHub(log, connGauge)
	gateway := realtime.NewGateway(hub, tokens, cfg.Realtime, log)

	deps := routes.Dependencies{
		Config: cfg,
		Logger: log,
		Services: routes.ServiceSet{
			Auth:          authService,
			OTP:           otpService,
			PasswordReset: resetService,
		},
		Tokens:   tokens,
		Gateway:  gateway,
		Metrics:  metrics,
		Database: pool,
	}
	if redisClient != nil {
		deps.Cache = redisClient
	}

	return &Application{
		cfg:      cfg,
		engine:   routes.Register(deps),
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
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
		if a.producer != nil {
			_ = a.producer.Close()
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

	a.logger.Info("starting identity API",
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
