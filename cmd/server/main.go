package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	authapi "github.com/hyeonlab/boardauth/api/echo"
	redisstore "github.com/hyeonlab/boardauth/cache/redis"
	"github.com/hyeonlab/boardauth/config"
	"github.com/hyeonlab/boardauth/internal/auth"
	"github.com/hyeonlab/boardauth/internal/federation"
	"github.com/hyeonlab/boardauth/internal/metrics"
	"github.com/hyeonlab/boardauth/internal/ratelimit"
	"github.com/hyeonlab/boardauth/internal/token"
	"github.com/hyeonlab/boardauth/mongodb"
	"github.com/hyeonlab/boardauth/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
		log.Warn().
			Str("configured_log_level", cfg.LogLevel).
			Str("fallback_log_level", logLevel.String()).
			Msg("Invalid log level configured, defaulting to 'info'")
	}
	zerolog.SetGlobalLevel(logLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if cfg.JWTSecretKey == "" {
		log.Fatal().Msg("jwt_secret_key is not configured")
	}

	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("mongo_db_name", cfg.MongoDBName).
		Str("redis_addr", cfg.RedisAddr).
		Str("log_level", logLevel.String()).
		Msg("Starting boardauth server")

	ctx := context.Background()

	mongoClient, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect MongoDB client")
		}
	}()

	userRepo, err := mongodb.NewUserRepository(ctx, mongoClient.Database(cfg.MongoDBName))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize user repository")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	sessions := redisstore.NewSessionStore(redisClient, "")
	limiter := ratelimit.NewRedisLimiter(redisClient, "")

	fedSvc := federation.NewService()
	defer fedSvc.Close()
	registerProviders(fedSvc, cfg)

	metrics.InitCustomMetrics(prometheus.DefaultRegisterer)

	authSvc := services.NewAuthService(
		userRepo,
		sessions,
		token.NewIssuer([]byte(cfg.JWTSecretKey)),
		fedSvc,
		auth.NewBcryptPasswordHasher(0),
		cfg.AccessTokenTTL(),
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	authapi.NewAuthAPI(authSvc, limiter, cfg).RegisterRoutes(e)

	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()
	log.Info().Str("port", cfg.HTTPPort).Msg("HTTP server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

// registerProviders wires every identity provider that has credentials
// configured. A provider with no client ID is skipped, not fatal, so a
// deployment can run with any subset of providers.
func registerProviders(fedSvc *federation.Service, cfg *config.ServerConfig) {
	if cfg.Google.ClientID != "" {
		provider, err := federation.NewGoogleProvider(federation.ProviderConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURI,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure Google provider")
		}
		fedSvc.RegisterProvider(provider)
		log.Info().Msg("Google provider registered")
	} else {
		log.Warn().Msg("Google provider not configured, /auth/google disabled")
	}

	if cfg.Kakao.ClientID != "" {
		provider, err := federation.NewKakaoProvider(federation.ProviderConfig{
			ClientID:     cfg.Kakao.ClientID,
			ClientSecret: cfg.Kakao.ClientSecret,
			RedirectURL:  cfg.Kakao.RedirectURI,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure Kakao provider")
		}
		fedSvc.RegisterProvider(provider)
		log.Info().Msg("Kakao provider registered")
	} else {
		log.Warn().Msg("Kakao provider not configured, /auth/kakao disabled")
	}
}
