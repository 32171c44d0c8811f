package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/umamaheshmadala/sync-coupon-core/internal/auth"
	"github.com/umamaheshmadala/sync-coupon-core/internal/config"
	"github.com/umamaheshmadala/sync-coupon-core/internal/handler"
	"github.com/umamaheshmadala/sync-coupon-core/internal/ratelimit"
	"github.com/umamaheshmadala/sync-coupon-core/internal/repository"
	"github.com/umamaheshmadala/sync-coupon-core/internal/service"
	"github.com/umamaheshmadala/sync-coupon-core/internal/validator"
	"github.com/umamaheshmadala/sync-coupon-core/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Coupon Entitlement Core",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // mutating payloads are small; reject anything large
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	// Initialize validator
	validate := validator.New()

	// Admission control backend per configuration
	limiter, err := newLimiter(ctx, cfg, pool)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.RateLimit.Backend).Msg("failed to initialize rate limiter")
	}

	// Identity resolution
	resolver := auth.NewResolver(cfg.Auth.Verify, cfg.Auth.JWTSecret)
	authn := auth.Middleware(resolver)
	guard := func(action string) fiber.Handler {
		return ratelimit.New(limiter, action, cfg.RateLimit.Limit, cfg.RateLimit.Window, auth.CallerKey)
	}

	// Entitlement components (layered architecture)
	offerRepo := repository.NewOfferRepository(pool)
	instanceRepo := repository.NewInstanceRepository(pool)
	shareRepo := repository.NewShareRepository(pool)
	followerRepo := repository.NewFollowerRepository(pool)
	entitlements := service.NewEntitlementService(pool, offerRepo, instanceRepo, shareRepo, followerRepo)
	userHandler := handler.NewUserCouponHandler(entitlements, validate)
	businessHandler := handler.NewBusinessHandler(entitlements, validate)

	// Health handler
	healthHandler := handler.NewHealthHandler(pool)
	app.Get("/health", healthHandler.Check)

	// User-facing coupon routes
	app.Post("/users/:userId/coupons/collect", authn, guard("collect_coupon"), userHandler.CollectCoupon)
	app.Post("/users/:userId/coupons/:couponId/share", authn, guard("share_coupon"), userHandler.ShareCoupon)
	app.Post("/users/:userId/coupons/shared/:shareId/cancel", authn, guard("cancel_share"), userHandler.CancelShare)

	// Business-facing routes
	app.Post("/business/:businessId/redeem", authn, guard("redeem_coupon"), businessHandler.RedeemCoupon)
	app.Post("/business/offers/:offerId/coupons", authn, guard("generate_coupons"), businessHandler.GenerateCoupons)
	app.Post("/business/coupons/issue-targeted", authn, guard("issue_targeted"), businessHandler.IssueTargeted)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// newLimiter builds the configured admission-control backend.
func newLimiter(ctx context.Context, cfg *config.Config, pool ratelimit.RowQuerier) (ratelimit.Limiter, error) {
	switch cfg.RateLimit.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("rate limiter on redis backend")
		return ratelimit.NewRedisLimiter(client), nil
	case "postgres":
		log.Info().Msg("rate limiter on postgres backend")
		return ratelimit.NewPostgresLimiterWithDB(pool), nil
	default:
		log.Info().Msg("rate limiter on local backend")
		return ratelimit.NewLocalLimiter(), nil
	}
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
