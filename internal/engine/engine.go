// Package engine defines the boundary with the additive forecasting engine.
// The engine itself (trend/seasonality fitting, optimization, uncertainty)
// is an external collaborator; this package holds only its configuration
// surface, its prediction output shape, and client implementations.
package engine

import (
	"context"

	"github.com/prophetd/prophetd/internal/models"
)

// EventPrefix is the prefix the engine puts on event component columns in
// its prediction output. The compatibility layer strips it before handing
// results back to legacy callers.
const EventPrefix = "event_"

// Growth is the trend shape.
type Growth string

const (
	GrowthLinear   Growth = "linear"
	GrowthLogistic Growth = "logistic"
	GrowthFlat     Growth = "flat"
)

// SeasonalityMode controls how seasonal components combine with the trend.
type SeasonalityMode string

const (
	SeasonalityAdditive       SeasonalityMode = "additive"
	SeasonalityMultiplicative SeasonalityMode = "multiplicative"
)

// EventConfig registers one named event with its day window.
type EventConfig struct {
	Name        string `json:"name"`
	LowerWindow int    `json:"lower_window"`
	UpperWindow int    `json:"upper_window"`
}

// Config is the engine-native model configuration. Field names follow the
// engine's vocabulary, which differs from the legacy API's in a few places
// (changepoints_range, prediction_interval).
type Config struct {
	Growth             Growth                   `json:"growth"`
	Changepoints       []string                 `json:"changepoints,omitempty"`
	NChangepoints      int                      `json:"n_changepoints"`
	ChangepointsRange  float64                  `json:"changepoints_range"`
	YearlySeasonality  models.SeasonalityToggle `json:"yearly_seasonality"`
	WeeklySeasonality  models.SeasonalityToggle `json:"weekly_seasonality"`
	DailySeasonality   models.SeasonalityToggle `json:"daily_seasonality"`
	SeasonalityMode    SeasonalityMode          `json:"seasonality_mode"`
	PredictionInterval float64                  `json:"prediction_interval"`
	Events             []EventConfig            `json:"events,omitempty"`
	Regressors         []string                 `json:"regressors,omitempty"`
}

// Seasonality is an extra seasonal component registered after construction.
type Seasonality struct {
	Name         string  `json:"name"`
	Period       float64 `json:"period"`
	FourierOrder int     `json:"fourier_order"`
}

// PredictionTable is the engine's prediction output, keyed by timestamp,
// with point forecasts, an uncertainty band, and one component column per
// covariate (trend, seasonal cycles, event_-prefixed event names,
// regressors).
type PredictionTable struct {
	Dates      []string             `json:"ds"`
	Yhat       []float64            `json:"yhat"`
	YhatLower  []float64            `json:"yhat_lower,omitempty"`
	YhatUpper  []float64            `json:"yhat_upper,omitempty"`
	Components map[string][]float64 `json:"components,omitempty"`
}

// Engine is the additive forecasting engine as consumed by the
// compatibility layer. Fit and Predict are opaque blocking calls; all
// translation work happens before the frame crosses this boundary.
type Engine interface {
	Configure(cfg Config) error
	AddSeasonality(s Seasonality) error
	AddRegressor(name string) error
	Fit(ctx context.Context, frame *models.TimeSeriesFrame) error
	Predict(ctx context.Context, frame *models.TimeSeriesFrame) (*PredictionTable, error)
}
