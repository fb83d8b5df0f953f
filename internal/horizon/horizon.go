// Package horizon extends a historical time-series frame into the future and
// keeps event covariates consistent across the history/future boundary.
package horizon

import (
	"math"
	"time"

	"github.com/prophetd/prophetd/internal/calendar"
	"github.com/prophetd/prophetd/internal/models"
)

// NormalizeFrequency maps a caller-supplied frequency token to a day-step
// count. The legacy API approximated a month as 30 days regardless of the
// calendar; that lossy rule is kept as-is for compatibility (short months
// and leap years included, no alignment to real month boundaries). "W" is
// expanded to periods*7 day-steps here, whereas the legacy API passed only
// "M" through the multiplier and treated any other token as raw steps;
// callers porting weekly horizons get day-grained frames, not 7-day-spaced
// rows.
func NormalizeFrequency(freq string, periods int) (int, error) {
	if periods <= 0 {
		return 0, models.NewInvalidArgumentError("periods must be positive, got %d", periods)
	}
	switch freq {
	case "D", "":
		return periods, nil
	case "W":
		return periods * 7, nil
	case "M":
		return periods * 30, nil
	default:
		return 0, models.NewInvalidArgumentError("unsupported frequency %q (want D, W or M)", freq)
	}
}

// Extend produces steps new day-spaced timestamps starting immediately after
// history's last date, prepending history's own rows when includeHistory is
// set. Future rows carry NaN in the value column; pass-through regressor
// columns are not extrapolated and appear only on the history rows' side
// when history is included.
func Extend(history *models.TimeSeriesFrame, steps int, includeHistory bool) (*models.TimeSeriesFrame, error) {
	if history == nil || history.Len() == 0 {
		return nil, models.NewPrerequisiteError("no history to extend from")
	}
	if steps <= 0 {
		return nil, models.NewInvalidArgumentError("steps must be positive, got %d", steps)
	}

	last := models.Day(history.LastDate())
	future := make([]time.Time, steps)
	for i := range future {
		future[i] = last.AddDate(0, 0, i+1)
	}

	if !includeHistory {
		values := make([]float64, steps)
		for i := range values {
			values[i] = math.NaN()
		}
		return &models.TimeSeriesFrame{Dates: future, Values: values}, nil
	}

	out := history.Clone()
	out.Dates = append(out.Dates, future...)
	if out.Values != nil {
		for range future {
			out.Values = append(out.Values, math.NaN())
		}
	}
	// Event columns are recomputed by ReattachEvents over the full range;
	// the cloned history columns are the wrong length now, so drop them.
	out.Events = nil
	out.Regressors = padRegressors(out.Regressors, steps)
	return out, nil
}

func padRegressors(regressors map[string][]float64, steps int) map[string][]float64 {
	if regressors == nil {
		return nil
	}
	for name, col := range regressors {
		padded := col
		for i := 0; i < steps; i++ {
			padded = append(padded, math.NaN())
		}
		regressors[name] = padded
	}
	return regressors
}

// ReattachEvents recomputes event-indicator columns over the frame's full
// date range. Holidays are date rules, not data: a future date inside a
// holiday window gets its indicator from the registry even when no
// occurrence falls near the end of history, so future covariates never
// drift from what a direct expand+attach over the same range would give.
func ReattachEvents(frame *models.TimeSeriesFrame, reg *calendar.Registry) {
	if reg == nil {
		return
	}
	reg.Attach(frame)
}

// Build satisfies a ForecastHorizon request end to end: normalize the
// frequency, extend the history, reattach event covariates.
func Build(history *models.TimeSeriesFrame, reg *calendar.Registry, req models.ForecastHorizon) (*models.TimeSeriesFrame, error) {
	steps, err := NormalizeFrequency(req.Frequency, req.Periods)
	if err != nil {
		return nil, err
	}
	frame, err := Extend(history, steps, req.IncludeHistory)
	if err != nil {
		return nil, err
	}
	ReattachEvents(frame, reg)
	return frame, nil
}
