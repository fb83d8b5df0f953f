package models

import (
	"sort"
	"time"
)

// TimeSeriesFrame is an ordered, timestamp-unique table: one row per date,
// a value column (y), boolean event-indicator columns and numeric
// pass-through regressor columns. Values may contain NaN on future rows that
// exist only to be predicted.
type TimeSeriesFrame struct {
	Dates      []time.Time          `json:"ds"`
	Values     []float64            `json:"y,omitempty"`
	Events     map[string][]bool    `json:"events,omitempty"`
	Regressors map[string][]float64 `json:"regressors,omitempty"`
}

// Len returns the number of rows.
func (f *TimeSeriesFrame) Len() int {
	return len(f.Dates)
}

// LastDate returns the frame's final timestamp. The frame must be non-empty.
func (f *TimeSeriesFrame) LastDate() time.Time {
	return f.Dates[len(f.Dates)-1]
}

// HasRegressor reports whether a pass-through column with the given name is
// present.
func (f *TimeSeriesFrame) HasRegressor(name string) bool {
	_, ok := f.Regressors[name]
	return ok
}

// EventNames returns the frame's event columns in sorted order.
func (f *TimeSeriesFrame) EventNames() []string {
	names := make([]string, 0, len(f.Events))
	for name := range f.Events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the structural invariants: at least the date column,
// strictly increasing timestamps with no duplicates, and every column the
// same length as the date column.
func (f *TimeSeriesFrame) Validate() error {
	if len(f.Dates) == 0 {
		return NewConfigurationError("frame has no rows")
	}
	for i := 1; i < len(f.Dates); i++ {
		if !f.Dates[i].After(f.Dates[i-1]) {
			return NewConfigurationError("timestamps must be strictly increasing, row %d is not after row %d", i, i-1)
		}
	}
	if f.Values != nil && len(f.Values) != len(f.Dates) {
		return NewConfigurationError("value column has %d rows, want %d", len(f.Values), len(f.Dates))
	}
	for name, col := range f.Events {
		if len(col) != len(f.Dates) {
			return NewConfigurationError("event column %q has %d rows, want %d", name, len(col), len(f.Dates))
		}
	}
	for name, col := range f.Regressors {
		if len(col) != len(f.Dates) {
			return NewConfigurationError("regressor column %q has %d rows, want %d", name, len(col), len(f.Dates))
		}
	}
	return nil
}

// Clone deep-copies the frame.
func (f *TimeSeriesFrame) Clone() *TimeSeriesFrame {
	out := &TimeSeriesFrame{
		Dates: append([]time.Time(nil), f.Dates...),
	}
	if f.Values != nil {
		out.Values = append([]float64(nil), f.Values...)
	}
	if f.Events != nil {
		out.Events = make(map[string][]bool, len(f.Events))
		for name, col := range f.Events {
			out.Events[name] = append([]bool(nil), col...)
		}
	}
	if f.Regressors != nil {
		out.Regressors = make(map[string][]float64, len(f.Regressors))
		for name, col := range f.Regressors {
			out.Regressors[name] = append([]float64(nil), col...)
		}
	}
	return out
}
