// Package prophet is the compatibility layer between the legacy
// calendar-effects forecasting API and the additive engine. It owns the two
// translations the engine cannot do itself: holiday tables into per-date
// event covariates, and horizon requests into extended frames.
package prophet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prophetd/prophetd/internal/calendar"
	"github.com/prophetd/prophetd/internal/engine"
	"github.com/prophetd/prophetd/internal/horizon"
	"github.com/prophetd/prophetd/internal/models"
)

// capColumn is the legacy saturating-growth capacity column. The engine has
// no equivalent, and dropping it silently would change every forecast for a
// logistic-growth caller, so its presence is a hard error.
const capColumn = "cap"

// Adapter exposes the legacy model surface over an owned engine instance.
// Delegation is explicit: only the operations below reach the engine, so no
// engine method with unvalidated semantics leaks through.
//
// The holiday vocabulary is frozen at construction. Adapter is not safe for
// concurrent Fit calls; concurrent Predict/MakeFutureFrame against a fitted
// adapter is fine since they only read.
type Adapter struct {
	engine   engine.Engine
	registry *calendar.Registry
	history  *models.TimeSeriesFrame
	logger   *slog.Logger
	opts     Options
}

// New translates the legacy options, registers the holiday vocabulary, and
// configures the engine. Parameters with no engine equivalent produce one
// advisory log line each and are dropped; they never fail construction.
func New(opts Options, eng engine.Engine, logger *slog.Logger) (*Adapter, error) {
	for _, note := range opts.advisories() {
		logger.Warn(note)
	}

	registry, err := calendar.Register(opts.Holidays)
	if err != nil {
		return nil, err
	}

	events := make([]engine.EventConfig, 0, len(registry.Names()))
	for _, name := range registry.Names() {
		w, _ := registry.Window(name)
		events = append(events, engine.EventConfig{
			Name:        name,
			LowerWindow: w.Lower,
			UpperWindow: w.Upper,
		})
	}

	cfg, err := opts.engineConfig(events)
	if err != nil {
		return nil, err
	}
	if err := eng.Configure(cfg); err != nil {
		return nil, fmt.Errorf("configure engine: %w", err)
	}

	return &Adapter{
		engine:   eng,
		registry: registry,
		logger:   logger,
		opts:     opts,
	}, nil
}

// Registry exposes the frozen event vocabulary.
func (a *Adapter) Registry() *calendar.Registry {
	return a.registry
}

// History returns the frame from the most recent successful Fit, or nil.
func (a *Adapter) History() *models.TimeSeriesFrame {
	return a.history
}

// Fit attaches event covariates to the history and trains the engine. A cap
// column (saturating growth capacity) is rejected outright.
func (a *Adapter) Fit(ctx context.Context, frame *models.TimeSeriesFrame) error {
	if frame == nil || frame.Len() == 0 {
		return models.NewPrerequisiteError("fit requires a non-empty frame")
	}
	if err := frame.Validate(); err != nil {
		return err
	}
	if len(frame.Values) == 0 {
		return models.NewConfigurationError("fit frame is missing the value column")
	}
	if frame.HasRegressor(capColumn) {
		return models.NewUnsupportedFeatureError("saturating forecasts using a cap column are not supported by the engine")
	}

	fitted := frame.Clone()
	a.registry.Attach(fitted)

	if err := a.engine.Fit(ctx, fitted); err != nil {
		return err
	}
	a.history = fitted
	a.logger.Info("model fitted", "rows", fitted.Len(), "events", len(a.registry.Names()))
	return nil
}

// Predict forecasts over the given frame, or over the fitted history when
// frame is nil. Event covariates are recomputed over the frame's dates
// before it crosses the engine boundary, and event component columns come
// back with the engine's internal prefix stripped so callers see the legacy
// names.
func (a *Adapter) Predict(ctx context.Context, frame *models.TimeSeriesFrame) (*engine.PredictionTable, error) {
	if frame == nil {
		if a.history == nil {
			return nil, models.NewPrerequisiteError("predict before fit and no frame supplied")
		}
		frame = a.history
	} else {
		if err := frame.Validate(); err != nil {
			return nil, err
		}
		if frame.HasRegressor(capColumn) {
			return nil, models.NewUnsupportedFeatureError("saturating forecasts using a cap column are not supported by the engine")
		}
	}

	scored := frame.Clone()
	a.registry.Attach(scored)

	table, err := a.engine.Predict(ctx, scored)
	if err != nil {
		return nil, err
	}

	renameEventComponents(table)
	return table, nil
}

// MakeFutureFrame extends the fitted history by the requested horizon,
// under the legacy frequency rule, with event covariates recomputed over
// the full extended range.
func (a *Adapter) MakeFutureFrame(periods int, freq string, includeHistory bool) (*models.TimeSeriesFrame, error) {
	if a.history == nil {
		return nil, models.NewPrerequisiteError("make future frame before fit")
	}
	return horizon.Build(a.history, a.registry, models.ForecastHorizon{
		Periods:        periods,
		Frequency:      freq,
		IncludeHistory: includeHistory,
	})
}

// AddSeasonality registers an extra seasonal cycle on the engine. The
// legacy prior_scale and condition_name sub-options have no engine
// equivalent and are dropped with an advisory.
func (a *Adapter) AddSeasonality(name string, period float64, fourierOrder int, priorScale *float64, conditionName string) error {
	if priorScale != nil {
		a.logger.Warn("seasonality prior scale is not supported by the engine and was dropped", "seasonality", name)
	}
	if conditionName != "" {
		a.logger.Warn("conditional seasonality is not supported by the engine and was dropped", "seasonality", name, "condition", conditionName)
	}
	return a.engine.AddSeasonality(engine.Seasonality{
		Name:         name,
		Period:       period,
		FourierOrder: fourierOrder,
	})
}

// AddRegressor registers a pass-through regressor column on the engine.
func (a *Adapter) AddRegressor(name string) error {
	return a.engine.AddRegressor(name)
}

// ValidateInputs is part of the legacy surface with no defined behavior
// here: the engine checks its own inputs.
func (a *Adapter) ValidateInputs() error {
	return models.NewUnsupportedFeatureError("input validation is performed by the engine, not the compatibility layer")
}

// SetupFrame is part of the legacy surface with no defined behavior here:
// frame preparation and scaling happen inside the engine.
func (a *Adapter) SetupFrame(*models.TimeSeriesFrame) error {
	return models.NewUnsupportedFeatureError("frame preparation is performed by the engine, not the compatibility layer")
}

// renameEventComponents copies every event_-prefixed component column to
// its legacy name, keeping the prefixed original, which matches what the
// legacy wrapper did.
func renameEventComponents(table *engine.PredictionTable) {
	if table.Components == nil {
		return
	}
	for name, col := range table.Components {
		if stripped, ok := strings.CutPrefix(name, engine.EventPrefix); ok && stripped != "" {
			table.Components[stripped] = col
		}
	}
}
