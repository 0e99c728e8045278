// Package server initializes and runs the estimate-request backend. It
// wires the database, object storage, payment provider and side-channel
// clients to the HTTP API and handles graceful shutdown.
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

	"github.com/avilrenovations/estimates/internal/logging"
	"github.com/avilrenovations/estimates/internal/server/config"
	"github.com/avilrenovations/estimates/internal/server/httpapi"
	"github.com/avilrenovations/estimates/internal/server/payments"
	"github.com/avilrenovations/estimates/internal/server/repositories/repomanager"
	"github.com/avilrenovations/estimates/internal/server/services"
	"github.com/avilrenovations/estimates/internal/server/sidechannel"
	"github.com/avilrenovations/estimates/internal/server/storage"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}
	repo := rm.Submissions(db)

	photos, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	stripe := payments.NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	hooks, err := buildHooks(cfg, photos, logger)
	if err != nil {
		return nil, err
	}

	intake := services.NewIntakeService(repo, photos, logger)
	payment := services.NewPaymentService(stripe, cfg, logger)
	reconcile := services.NewReconcileService(repo, stripe, hooks, logger)

	api := httpapi.NewServer(intake, payment, reconcile, logger)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		handler: api.Router(),
	}, nil
}

// buildHooks assembles the configured side channels. Returns nil when none
// is configured so reconciliation skips the post-commit stage entirely.
func buildHooks(cfg *config.Config, photos *storage.S3Store, logger logging.Logger) (services.PostCommitRunner, error) {
	var hooks []sidechannel.Hook

	if cfg.SheetsEnabled() || cfg.DriveEnabled() {
		auth, err := sidechannel.NewGoogleAuth(cfg.GoogleCredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("google credentials error: %w", err)
		}

		if cfg.SheetsEnabled() {
			sheets := sidechannel.NewSheetsClient(auth, cfg.GoogleSheetID, cfg.GoogleLogSheetName)
			feeLabel := fmt.Sprintf("$%.2f", float64(cfg.EvaluationFeeCents)/100)
			hooks = append(hooks, sidechannel.SheetsHook(sheets, feeLabel))
		}

		if cfg.DriveEnabled() {
			drive := sidechannel.NewDriveClient(auth, cfg.GoogleDriveFolderID)
			hooks = append(hooks, sidechannel.DriveHook(drive, photos))
		}
	}

	if cfg.NotifyWebhookURL != "" {
		hooks = append(hooks, sidechannel.NotifyHook(sidechannel.NewNotifier(cfg.NotifyWebhookURL)))
	}

	if len(hooks) == 0 {
		return nil, nil
	}
	return sidechannel.NewRunner(logger, hooks...), nil
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
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "server shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}

	app.logger.Info(ctx, "app stopped")
}
