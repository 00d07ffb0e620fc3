// Package server initializes and runs the workspace server: it wires the
// database, object storage, session store, notifier, and metrics into the
// services, starts the HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/deliverhub/deliverhub/internal/logging"
	"github.com/deliverhub/deliverhub/internal/server/config"
	"github.com/deliverhub/deliverhub/internal/server/httpapi"
	"github.com/deliverhub/deliverhub/internal/server/metrics"
	"github.com/deliverhub/deliverhub/internal/server/notify"
	"github.com/deliverhub/deliverhub/internal/server/repositories/repomanager"
	"github.com/deliverhub/deliverhub/internal/server/services"
	"github.com/deliverhub/deliverhub/internal/server/sessions"
	"github.com/deliverhub/deliverhub/internal/server/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *http.Server

	sessionStore sessions.Store
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := storage.NewS3Storage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	var sessionStore sessions.Store
	if cfg.RedisAddr != "" {
		sessionStore = sessions.NewRedisStore(cfg.RedisAddr, cfg.SessionTTL)
	} else {
		sessionStore = sessions.NewMemoryStore(cfg.SessionTTL)
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.NotifyQueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("notifier init error: %w", err)
		}
		notifier = notify.NewSQSNotifier(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
	}

	m := metrics.New()

	catalog := services.NewCatalogService(db, repos, store, cfg.GetPresignTTL, logger.With("module", "catalog"))
	folderSvc := services.NewFolderService(db, repos, logger.With("module", "folders"))
	projectSvc := services.NewProjectService(db, repos, notifier, logger.With("module", "projects"), m)
	uploadSvc := services.NewUploadService(db, repos, store, sessionStore, catalog,
		cfg.PartSizeBytes, cfg.PartPresignTTL, logger.With("module", "uploads"), m)

	api := httpapi.NewServer(db, []byte(cfg.SecretKey), logger, m,
		projectSvc, folderSvc, catalog, uploadSvc)

	srv := &http.Server{
		Addr:    cfg.EndpointAddrHTTP,
		Handler: api.Handler(),
	}

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		server:       srv,
		sessionStore: sessionStore,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)
	if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run() {
	ctx, cancelFunc := context.WithCancel(context.Background())

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
	}

	wg.Wait()

	if closer, ok := app.sessionStore.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error(shutdownCtx, "session store close error", "error", err.Error())
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err.Error())
	}

	app.logger.Info(shutdownCtx, "app stopped")
}
