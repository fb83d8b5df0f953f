package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prophetd/prophetd/internal/engine"
	"github.com/prophetd/prophetd/internal/metrics"
	"github.com/prophetd/prophetd/internal/models"
	"github.com/prophetd/prophetd/internal/prophet"
)

// EngineFactory produces a fresh engine session for each model.
type EngineFactory func() engine.Engine

// Store persists run lifecycle records. *database.ModelRepository satisfies
// it.
type Store interface {
	CreateRun(ctx context.Context, modelID string) (string, error)
	CompleteRun(ctx context.Context, runID string, table *engine.PredictionTable, summary string) error
	FailRun(ctx context.Context, runID, errorMsg string) error
	UpdateModelLastRun(ctx context.Context, modelID string) error
}

// Summarizer produces prose summaries of prediction tables.
// *narrative.Summarizer satisfies it.
type Summarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, modelName string, table *engine.PredictionTable) (string, error)
}

// Service runs fits and predictions for stored models. Fitted adapters are
// held in memory keyed by model ID; the database keeps model configs and
// run history.
type Service struct {
	repo       Store
	newEngine  EngineFactory
	summarizer Summarizer
	collector  *metrics.HTTPCollector
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*prophet.Adapter
}

// New creates a forecast service.
func New(repo Store, newEngine EngineFactory, summarizer Summarizer, collector *metrics.HTTPCollector, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		newEngine:  newEngine,
		summarizer: summarizer,
		collector:  collector,
		logger:     logger,
		sessions:   make(map[string]*prophet.Adapter),
	}
}

// adapterFor returns the fitted adapter for a model, if any.
func (s *Service) adapterFor(modelID string) (*prophet.Adapter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.sessions[modelID]
	return a, ok
}

// Fit builds an adapter from the stored model config, fits it on the frame
// and retains the session for later predictions.
func (s *Service) Fit(ctx context.Context, record *models.ModelRecord, frame *models.TimeSeriesFrame) error {
	opts := prophet.Options{
		Growth:   record.Growth,
		Holidays: record.Holidays,
	}

	adapter, err := prophet.New(opts, s.newEngine(), s.logger)
	if err != nil {
		return err
	}

	err = adapter.Fit(ctx, frame)
	if s.collector != nil {
		s.collector.ObserveFit(err)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[record.ID] = adapter
	s.mu.Unlock()

	if err := s.repo.UpdateModelLastRun(ctx, record.ID); err != nil {
		s.logger.Warn("failed to stamp model last run", "model_id", record.ID, "error", err)
	}

	s.logger.Info("model fitted", "model_id", record.ID, "rows", frame.Len())
	return nil
}

// Prediction is the outcome of a completed predict call.
type Prediction struct {
	Table   *engine.PredictionTable
	RunID   string
	Summary string
}

// Predict forecasts over the given frame, or over the model's configured
// horizon when frame is nil, and persists a run row.
func (s *Service) Predict(ctx context.Context, record *models.ModelRecord, frame *models.TimeSeriesFrame, withSummary bool) (*Prediction, error) {
	adapter, ok := s.adapterFor(record.ID)
	if !ok {
		return nil, models.NewPrerequisiteError("model %s has not been fitted", record.ID)
	}

	if frame == nil {
		future, err := adapter.MakeFutureFrame(record.Periods, record.Frequency, record.IncludeHistory)
		if err != nil {
			return nil, err
		}
		frame = future
	}

	runID, err := s.repo.CreateRun(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	start := time.Now()
	table, err := adapter.Predict(ctx, frame)
	if s.collector != nil {
		s.collector.ObservePredict(time.Since(start))
	}
	if err != nil {
		if failErr := s.repo.FailRun(ctx, runID, err.Error()); failErr != nil {
			s.logger.Error("failed to mark run failed", "run_id", runID, "error", failErr)
		}
		return nil, err
	}

	summary := ""
	if withSummary && s.summarizer != nil && s.summarizer.Enabled() {
		summary, err = s.summarizer.Summarize(ctx, record.Name, table)
		if err != nil {
			// Summaries are best effort
			s.logger.Warn("forecast summary failed", "model_id", record.ID, "error", err)
			summary = ""
		}
	}

	if err := s.repo.CompleteRun(ctx, runID, table, summary); err != nil {
		s.logger.Error("failed to persist run result", "run_id", runID, "error", err)
	}

	s.logger.Info("prediction completed", "model_id", record.ID, "run_id", runID, "rows", len(table.Dates))
	return &Prediction{Table: table, RunID: runID, Summary: summary}, nil
}

// Future builds the horizon preview frame without calling the engine.
func (s *Service) Future(record *models.ModelRecord, horizon models.ForecastHorizon) (*models.TimeSeriesFrame, error) {
	adapter, ok := s.adapterFor(record.ID)
	if !ok {
		return nil, models.NewPrerequisiteError("model %s has not been fitted", record.ID)
	}
	return adapter.MakeFutureFrame(horizon.Periods, horizon.Frequency, horizon.IncludeHistory)
}

// RunScheduled re-predicts a scheduled model over its configured horizon.
// Models that have never been fitted are skipped.
func (s *Service) RunScheduled(ctx context.Context, record *models.ModelRecord) error {
	if _, ok := s.adapterFor(record.ID); !ok {
		s.logger.Info("skipping scheduled run, model not fitted", "model_id", record.ID)
		return nil
	}

	result, err := s.Predict(ctx, record, nil, true)
	if err != nil {
		return fmt.Errorf("scheduled run for model %s: %w", record.ID, err)
	}

	if err := s.repo.UpdateModelLastRun(ctx, record.ID); err != nil {
		s.logger.Warn("failed to stamp model last run", "model_id", record.ID, "error", err)
	}

	s.logger.Info("scheduled run completed", "model_id", record.ID, "run_id", result.RunID)
	return nil
}
