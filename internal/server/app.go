// Package server initializes and runs the upload server: it opens the
// database, runs migrations, prepares the staging area, wires the upload
// transport to the finalization pipeline and serves the REST API until
// shutdown.
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

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/afero"
	xslog "golang.org/x/exp/slog"

	"github.com/dpetrovs/fileupload/internal/filex"
	"github.com/dpetrovs/fileupload/internal/logging"
	"github.com/dpetrovs/fileupload/internal/server/blob"
	"github.com/dpetrovs/fileupload/internal/server/config"
	"github.com/dpetrovs/fileupload/internal/server/finalize"
	"github.com/dpetrovs/fileupload/internal/server/httpapi"
	"github.com/dpetrovs/fileupload/internal/server/repositories/repomanager"
	"github.com/dpetrovs/fileupload/internal/server/services"
	"github.com/dpetrovs/fileupload/internal/server/upload"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *http.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	stagingDir, err := filex.EnsureDir(cfg.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("staging dir error: %w", err)
	}
	cfg.StagingDir = stagingDir

	var blobs blob.Store
	if cfg.BlobBackend == config.BlobS3 {
		s3store, err := blob.NewS3Store(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		blobs = s3store
	}

	fs := afero.NewOsFs()
	policy := finalize.NewPolicy(cfg)
	thumbs := finalize.NewThumbnailer(fs, cfg.ThumbnailSide, logger)
	finalizer := finalize.NewFinalizer(db, rm, blobs, fs, policy, thumbs, logger)

	uploads, err := upload.NewHandler(cfg, finalizer, policy, xslog.New(xslog.NewJSONHandler(os.Stdout, nil)))
	if err != nil {
		return nil, fmt.Errorf("upload handler error: %w", err)
	}

	fileService := services.NewFileService(db, rm, blobs, logger)
	dirService := services.NewDirectoryService(db, rm)

	router := httpapi.NewRouter(fileService, dirService, uploads, logger)

	srv := &http.Server{
		Addr:              cfg.EndpointAddrHTTP,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "http server listening", "addr", app.server.Addr)
	if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, err.Error())
	}

	wg.Wait()
}
