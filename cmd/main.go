package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/senyabanana/loadboard-service/internal/auth"
	"github.com/senyabanana/loadboard-service/internal/db"
	"github.com/senyabanana/loadboard-service/internal/handlers"
	"github.com/senyabanana/loadboard-service/internal/metrics"
	"github.com/senyabanana/loadboard-service/internal/repository"
	"github.com/senyabanana/loadboard-service/internal/router"
	"github.com/senyabanana/loadboard-service/internal/router/config"
	"github.com/senyabanana/loadboard-service/internal/services"
	"github.com/senyabanana/loadboard-service/internal/socket"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := pflag.String("config", ".", "directory with app.env")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := socket.NewHub(logger)
	collector := metrics.NewCollector()
	notifier := services.MultiNotifier{collector, hub}

	loadService := services.NewLoadService(store, notifier)
	bidService := services.NewBidService(store, notifier)
	assignmentService := services.NewAssignmentService(store, notifier)
	lifecycleService := services.NewLifecycleService(store, notifier)

	base := handlers.Handler{Logger: logger, Timeout: cfg.RequestTimeout}
	routes := router.InitRoutes(auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL), collector, router.Handlers{
		Loads:     handlers.NewLoadHandler(base, loadService, assignmentService, lifecycleService),
		Bids:      handlers.NewBidHandler(base, bidService, assignmentService),
		Tracking:  handlers.NewTrackingHandler(base, lifecycleService),
		Admin:     handlers.NewAdminHandler(base, loadService),
		WebSocket: handlers.NewWebSocketHandler(base, hub),
	})

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           routes,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server is listening", "address", cfg.ServerAddress, "storage", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.MemoryDriver {
		logger.Warn("using in-memory storage, data will be lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	databaseUrl, err := db.ConnString(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(cfg.MigrationURL, databaseUrl); err != nil {
		return nil, nil, err
	}
	logger.Info("db migrated successfully")

	dbPool, err := db.InitDb(ctx, databaseUrl)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewPostgresStore(dbPool), dbPool.Close, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
