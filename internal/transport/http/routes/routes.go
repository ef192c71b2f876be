package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/config"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/security"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/transport/http/handlers"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/transport/http/middleware"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/transport/realtime"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	OTP           *usecase.OTPService
	PasswordReset *usecase.PasswordResetService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Services ServiceSet
	Tokens   *security.TokenService
	Gateway  *realtime.Gateway
	Metrics  *middleware.HTTPMetrics
	Database DatabaseChecker
	Cache    CacheChecker
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
	r.Use(middleware.CORS([]string{"*"}))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	requireAuth := middleware.RequireAuth(deps.Tokens)

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

	if deps.Gateway != nil {
		r.GET("/ws", deps.Gateway.Handle)
	}

	authHandler := handlers.NewAuthHandler(deps.Services.Auth)
	otpHandler := handlers.NewOTPHandler(deps.Services.OTP)
	passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/verify-otp", otpHandler.Verify)
		auth.POST("/resend-otp", otpHandler.Resend)
		auth.POST("/forgot-password", passwordHandler.Forgot)
		auth.POST("/reset-password", passwordHandler.Reset)
		auth.POST("/refresh-token", authHandler.Refresh)
		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.Me)
	}

	return r
}
