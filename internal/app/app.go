package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"LyricsReconciler/internal/config"
	"LyricsReconciler/internal/domain"
	"LyricsReconciler/internal/infrastructure/language"
	"LyricsReconciler/internal/infrastructure/llm"
	"LyricsReconciler/internal/infrastructure/provider"
	"LyricsReconciler/internal/infrastructure/storage"
	"LyricsReconciler/internal/logging"
	"LyricsReconciler/internal/usecase"
)

// Application wires configs to the batch controller and owns the DB handle.
type Application struct {
	cfg        config.Config
	db         *sql.DB
	controller *usecase.Controller
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repository := storage.NewPostgresRepository(db)

	primary := provider.NewLRCLibSource(cfg.Providers.LRCLib.BaseURL, cfg.Providers.LRCLib.UserAgent, nil)
	secondary := provider.NewGeniusSource(cfg.Providers.Genius.APIURL, cfg.Providers.Genius.Token, nil)

	reconciler := usecase.NewReconciler(usecase.ReconcilerDeps{
		Primary:    primary,
		Secondary:  secondary,
		Normalizer: llm.NewNormalizer(cfg.Normalizer),
		Detector:   language.NewDetector(cfg.Language.Endpoint, cfg.Language.APIKey),
		Logger:     baseLogger.With("component", "reconciler"),
	}, cfg.Reconciliation.CorroborationThreshold, cfg.Reconciliation.InstrumentalWordFloor)

	controller := usecase.NewController(usecase.ControllerDeps{
		Repository: repository,
		Reconciler: reconciler,
		TrackDelay: cfg.Batch.TrackDelay(),
		Logger:     baseLogger.With("component", "batch"),
	})

	return &Application{cfg: cfg, db: db, controller: controller}, nil
}

// RunBatch executes one batch; size <= 0 falls back to the configured size.
func (a *Application) RunBatch(ctx context.Context, size int, force bool) (domain.BatchSummary, error) {
	if size <= 0 {
		size = a.cfg.Batch.Size
	}
	return a.controller.Run(ctx, size, force)
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
