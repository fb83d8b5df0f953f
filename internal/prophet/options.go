package prophet

import (
	"time"

	"github.com/prophetd/prophetd/internal/engine"
	"github.com/prophetd/prophetd/internal/models"
)

// Options mirrors the legacy Prophet constructor signature. Every field has
// a direct engine translation, a calendar-layer translation (Holidays), or
// is accepted for signature compatibility only and dropped with an advisory
// (the prior scales, sample counts and StanBackend).
type Options struct {
	Growth           string      `json:"growth,omitempty"`
	Changepoints     []time.Time `json:"changepoints,omitempty"`
	NChangepoints    *int        `json:"n_changepoints,omitempty"`
	ChangepointRange *float64    `json:"changepoint_range,omitempty"`

	YearlySeasonality models.SeasonalityToggle `json:"yearly_seasonality,omitempty"`
	WeeklySeasonality models.SeasonalityToggle `json:"weekly_seasonality,omitempty"`
	DailySeasonality  models.SeasonalityToggle `json:"daily_seasonality,omitempty"`

	Holidays        models.HolidaySpec `json:"holidays,omitempty"`
	SeasonalityMode string             `json:"seasonality_mode,omitempty"`
	IntervalWidth   *float64           `json:"interval_width,omitempty"`

	// Advisory-only parameters. Present so legacy callers keep working;
	// they have no engine equivalent and no effect.
	SeasonalityPriorScale *float64 `json:"seasonality_prior_scale,omitempty"`
	HolidaysPriorScale    *float64 `json:"holidays_prior_scale,omitempty"`
	ChangepointPriorScale *float64 `json:"changepoint_prior_scale,omitempty"`
	MCMCSamples           *int     `json:"mcmc_samples,omitempty"`
	UncertaintySamples    *int     `json:"uncertainty_samples,omitempty"`
	StanBackend           string   `json:"stan_backend,omitempty"`
}

const (
	defaultGrowth          = engine.GrowthLinear
	defaultNChangepoints   = 25
	defaultChangepointPct  = 0.8
	defaultSeasonalityMode = engine.SeasonalityAdditive
	defaultIntervalWidth   = 0.80
)

// engineConfig translates the options to the engine's vocabulary:
// changepoint_range becomes changepoints_range, interval_width becomes the
// prediction interval, holidays become named events with their effective
// windows.
func (o Options) engineConfig(windows []engine.EventConfig) (engine.Config, error) {
	cfg := engine.Config{
		Growth:             defaultGrowth,
		NChangepoints:      defaultNChangepoints,
		ChangepointsRange:  defaultChangepointPct,
		YearlySeasonality:  o.YearlySeasonality,
		WeeklySeasonality:  o.WeeklySeasonality,
		DailySeasonality:   o.DailySeasonality,
		SeasonalityMode:    defaultSeasonalityMode,
		PredictionInterval: defaultIntervalWidth,
		Events:             windows,
	}

	switch o.Growth {
	case "", string(engine.GrowthLinear):
		cfg.Growth = engine.GrowthLinear
	case string(engine.GrowthLogistic):
		cfg.Growth = engine.GrowthLogistic
	case string(engine.GrowthFlat):
		cfg.Growth = engine.GrowthFlat
	default:
		return engine.Config{}, models.NewInvalidArgumentError("unknown growth %q (want linear, logistic or flat)", o.Growth)
	}

	switch o.SeasonalityMode {
	case "", string(engine.SeasonalityAdditive):
		cfg.SeasonalityMode = engine.SeasonalityAdditive
	case string(engine.SeasonalityMultiplicative):
		cfg.SeasonalityMode = engine.SeasonalityMultiplicative
	default:
		return engine.Config{}, models.NewInvalidArgumentError("unknown seasonality_mode %q", o.SeasonalityMode)
	}

	for _, cp := range o.Changepoints {
		cfg.Changepoints = append(cfg.Changepoints, cp.Format("2006-01-02"))
	}
	if o.NChangepoints != nil {
		if *o.NChangepoints < 0 {
			return engine.Config{}, models.NewInvalidArgumentError("n_changepoints must be >= 0, got %d", *o.NChangepoints)
		}
		cfg.NChangepoints = *o.NChangepoints
	}
	if o.ChangepointRange != nil {
		if *o.ChangepointRange <= 0 || *o.ChangepointRange > 1 {
			return engine.Config{}, models.NewInvalidArgumentError("changepoint_range must be in (0,1], got %v", *o.ChangepointRange)
		}
		cfg.ChangepointsRange = *o.ChangepointRange
	}
	if o.IntervalWidth != nil {
		if *o.IntervalWidth <= 0 || *o.IntervalWidth >= 1 {
			return engine.Config{}, models.NewInvalidArgumentError("interval_width must be in (0,1), got %v", *o.IntervalWidth)
		}
		cfg.PredictionInterval = *o.IntervalWidth
	}

	return cfg, nil
}

// advisories lists the human-readable notices for parameters that are
// accepted but dropped.
func (o Options) advisories() []string {
	var notes []string
	if o.SeasonalityPriorScale != nil || o.HolidaysPriorScale != nil || o.ChangepointPriorScale != nil {
		notes = append(notes, "prior scale parameters are not supported by the engine and were dropped; use the engine's regularization settings instead")
	}
	if o.MCMCSamples != nil || o.UncertaintySamples != nil {
		notes = append(notes, "sample counts for Bayesian inference or uncertainty estimation are not required by the engine and were dropped")
	}
	if o.StanBackend != "" {
		notes = append(notes, "a stan backend is not used by the engine; remove the parameter")
	}
	for _, occ := range o.Holidays {
		if occ.PriorScale != nil {
			notes = append(notes, "per-holiday prior scales are not supported by the engine and were dropped")
			break
		}
	}
	return notes
}
