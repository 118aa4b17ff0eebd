package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"research-review-api/config"
	"research-review-api/controllers"
	"research-review-api/middleware"
	"research-review-api/routes"
	"research-review-api/services"
	"research-review-api/storage"
)

type backends struct {
	papers services.PaperStore
	users  services.UserStore
	inbox  services.Inbox
}

func main() {
	// Load .env file
	envErr := godotenv.Load()

	logFile, writer := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(writer, cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		logger.Info().Msg("No .env file found, using environment variables")
	}

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(cfg, logger)
	if err != nil {
		return err
	}

	content, err := openContentStore(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.BootstrapAdminEmail != "" && cfg.BootstrapAdminPassword != "" {
		created, err := services.EnsureAdmin(ctx, b.users, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info().Str("email", cfg.BootstrapAdminEmail).Msg("bootstrap admin created")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewWorkflowMetrics(registry, "research_review")

	notifiers := services.MultiNotifier{b.inbox}
	if cfg.SMTP.Host != "" && cfg.SMTP.From != "" {
		notifiers = append(notifiers, services.NewMailNotifier(b.users, config.NewMailSender(cfg.SMTP)))
	} else {
		logger.Info().Msg("SMTP not configured, email notifications disabled")
	}
	dispatcher := services.NewAsyncDispatcher(notifiers, logger, metrics, cfg.NotifyTimeout)

	workflow := services.NewResearchWorkflow(b.papers, dispatcher,
		services.WithLogger(logger.With().Str("component", "workflow").Logger()),
		services.WithMetrics(metrics),
		services.WithContentStore(content),
	)

	// Set Gin mode
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins...))

	routes.SetupRoutes(router, routes.Dependencies{
		Auth:          controllers.NewAuthController(b.users, cfg.JWTSecret, time.Duration(cfg.JWTExpireHours)*time.Hour, logger),
		Research:      controllers.NewResearchController(workflow, cfg.MaxUploadBytes(), logger),
		Notifications: controllers.NewNotificationController(b.inbox, logger),
		Users:         b.users,
		JWTSecret:     cfg.JWTSecret,
		Gatherer:      registry,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.ServerPort).
			Str("store", cfg.StoreDriver).
			Str("storage", cfg.StorageDriver).
			Str("environment", cfg.Environment).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	dispatcher.Wait()
	logger.Info().Msg("pending notifications drained")
	return nil
}

func openBackends(cfg *config.Config, logger zerolog.Logger) (backends, error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		store := services.NewMemoryStore()
		return backends{papers: store, users: store, inbox: services.NewMemoryInbox()}, nil
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return backends{}, err
	}
	if err := config.AutoMigrate(db); err != nil {
		return backends{}, fmt.Errorf("auto migrate: %w", err)
	}
	logger.Info().Str("host", cfg.DB.Host).Str("database", cfg.DB.Name).Msg("database connected")
	store := services.NewGormPaperStore(db)
	return backends{papers: store, users: store, inbox: services.NewGormInbox(db)}, nil
}

func openContentStore(ctx context.Context, cfg *config.Config) (services.ContentStore, error) {
	if cfg.StorageDriver == "minio" {
		store, err := storage.NewMinioStore(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := storage.NewLocalStore(cfg.UploadPath)
	if err != nil {
		return nil, err
	}
	return store, nil
}
