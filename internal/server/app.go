// Package server initializes and runs the videohub backend: database and
// migrations, the account and profile services, the media store, the profile
// cache, and the HTTP API with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"videohub/internal/logging"
	"videohub/internal/server/auth"
	"videohub/internal/server/cache"
	"videohub/internal/server/config"
	"videohub/internal/server/httpapi"
	"videohub/internal/server/media"
	"videohub/internal/server/repositories/repomanager"
	"videohub/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
	cache  *cache.Client
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	hasher := auth.NewPasswordHasher(cfg.PasswordHashCost)
	tokens := auth.NewTokenService(
		[]byte(cfg.AccessTokenSecret), []byte(cfg.RefreshTokenSecret),
		cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry,
	)

	authSvc := services.NewAuthService(db, rm, hasher, tokens, logger)
	profileSvc := services.NewProfileService(db, rm, logger)

	mediaStore := media.NewS3Store(media.Config{
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		BaseEndpoint:  cfg.S3BaseEndpoint,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})

	// the profile cache is an optimization, run without it if redis is down
	cacheClient, err := cache.New(cfg.RedisDSN)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, profile cache disabled", "error", err.Error())
		cacheClient = nil
	}

	httpSrv := httpapi.NewServer(logger, cfg, authSvc, profileSvc, tokens, mediaStore, cacheClient)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		http:   httpSrv,
		cache:  cacheClient,
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
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.http.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "stopping http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "starting http server", "addr", app.config.HTTPAddr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.cache != nil {
		_ = app.cache.Close()
	}
	_ = app.db.Close()
}
