package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/competency-assessment/internal/assessment"
	"github.com/SAP-F-2025/competency-assessment/internal/cache"
	"github.com/SAP-F-2025/competency-assessment/internal/config"
	"github.com/SAP-F-2025/competency-assessment/internal/events"
	"github.com/SAP-F-2025/competency-assessment/internal/handlers"
	"github.com/SAP-F-2025/competency-assessment/internal/metrics"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories/postgres"
	"github.com/SAP-F-2025/competency-assessment/internal/services"
	"github.com/SAP-F-2025/competency-assessment/internal/utils"
	"github.com/SAP-F-2025/competency-assessment/internal/validator"
	"github.com/SAP-F-2025/competency-assessment/pkg"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		return serve(cmd.Context(), migrate)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Migrate the schema before serving")
}

func serve(ctx context.Context, migrate bool) error {
	cfg, logger, closer, err := bootstrap()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if migrate {
		if err := pkg.Migrate(db); err != nil {
			return err
		}
	}

	cacheService := newCache(ctx, cfg, logger)

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db, cacheService, logger)
	m := metrics.New()

	engine, err := assessment.NewEngine(
		cfg.Assessment.Engine(),
		repo.Question(),
		repo.Session(),
		logger,
		assessment.WithHub(assessment.NewHub(cfg.Assessment.SubscriberBuffer)),
		assessment.WithNotifier(events.NewEngineNotifier(publisher, logger)),
		assessment.WithNotifier(m),
		assessment.WithNotifier(services.NewCacheInvalidator(cacheService, logger)),
	)
	if err != nil {
		return fmt.Errorf("failed to create assessment engine: %w", err)
	}
	m.TrackLive(engine.Live)

	serviceManager := services.NewServiceManager(repo, engine, cacheService, publisher, logger, validator.New())
	handlerLogger := utils.NewSlogLogger(logger)

	var limiter *handlers.UserRateLimiter
	if cfg.RateLimit.Enabled {
		limiter = handlers.NewUserRateLimiter(cfg.RateLimit, handlerLogger)
		sweepStop := make(chan struct{})
		defer close(sweepStop)
		go limiter.Run(time.Minute, sweepStop)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		utils.ContextLogger(handlerLogger),
		utils.LoggerMiddleware(handlerLogger),
		m.Middleware(),
	)
	router.GET("/metrics", m.Handler())

	handlers.NewHandlerManager(
		serviceManager,
		handlers.NewCasdoorVerifier(cfg.Auth),
		cfg.Auth.AdminRoles,
		limiter,
		handlerLogger,
	).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(utils.ToSlogLogger(handlerLogger.With("component", "http")).Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server running", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stopping the engine ends every SSE stream, which lets Shutdown drain.
	if err := engine.Shutdown(shutdownCtx); err != nil {
		logger.Error("Assessment engine shutdown incomplete", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exiting")
	return nil
}

// newCache prefers redis and falls back to an in-process cache when redis is
// unreachable.
func newCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) cache.CacheService {
	client, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory cache", "error", err)
		return cache.NewMemoryCache()
	}
	return cache.NewRedisCache(client, "competency:", logger)
}
