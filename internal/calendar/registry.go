package calendar

import (
	"sort"
	"time"

	"github.com/prophetd/prophetd/internal/models"
)

// Window is an asymmetric day range around a holiday date. Lower is
// non-positive, Upper non-negative; the window covers
// [date+Lower, date+Upper] inclusive, Upper-Lower+1 days in total.
type Window struct {
	Lower int
	Upper int
}

// Span returns the number of days the window covers.
func (w Window) Span() int {
	return w.Upper - w.Lower + 1
}

// Registry is the model's frozen event vocabulary: the distinct holiday
// names from a HolidaySpec, their occurrence dates, and the effective
// per-name window. A Registry is immutable after Register returns; it is
// safe for concurrent readers. Replacing the holiday table means building a
// new Registry.
type Registry struct {
	names   []string
	windows map[string]Window
	dates   map[string][]time.Time
}

// Register validates a holiday table and builds the event vocabulary.
//
// Windows are name-level, not occurrence-level: the effective window for a
// name is the widest observed across all of its rows (most negative lower,
// largest upper). Rows with missing windows default to a zero-width window
// on the date itself. An empty spec is valid and yields an empty registry.
func Register(spec models.HolidaySpec) (*Registry, error) {
	reg := &Registry{
		windows: make(map[string]Window),
		dates:   make(map[string][]time.Time),
	}

	for i, occ := range spec {
		if occ.Name == "" {
			return nil, models.NewConfigurationError("holiday row %d: missing name", i)
		}
		if occ.Date.IsZero() {
			return nil, models.NewConfigurationError("holiday row %d (%s): missing date", i, occ.Name)
		}
		if occ.LowerWindow > 0 {
			return nil, models.NewConfigurationError("holiday row %d (%s): lower_window must be <= 0, got %d", i, occ.Name, occ.LowerWindow)
		}
		if occ.UpperWindow < 0 {
			return nil, models.NewConfigurationError("holiday row %d (%s): upper_window must be >= 0, got %d", i, occ.Name, occ.UpperWindow)
		}

		w, known := reg.windows[occ.Name]
		if !known {
			reg.names = append(reg.names, occ.Name)
			w = Window{Lower: occ.LowerWindow, Upper: occ.UpperWindow}
		} else {
			if occ.LowerWindow < w.Lower {
				w.Lower = occ.LowerWindow
			}
			if occ.UpperWindow > w.Upper {
				w.Upper = occ.UpperWindow
			}
		}
		reg.windows[occ.Name] = w
		reg.dates[occ.Name] = append(reg.dates[occ.Name], models.Day(occ.Date))
	}

	return reg, nil
}

// Names returns the registered holiday names in first-seen order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Window returns the effective window for a name.
func (r *Registry) Window(name string) (Window, bool) {
	w, ok := r.windows[name]
	return w, ok
}

// EventDates returns the full expanded date set for a name: the union of
// every occurrence's window using the name's effective window. Dates are
// sorted and de-duplicated.
func (r *Registry) EventDates(name string) []time.Time {
	return Expand(r.dates[name], r.windows[name])
}

// Expand turns occurrence dates plus a window into the concrete set of
// covered calendar days. Overlapping windows across occurrences collapse to
// a set union: the result feeds a boolean indicator, not a count.
func Expand(occurrences []time.Time, w Window) []time.Time {
	covered := make(map[time.Time]bool)
	for _, occ := range occurrences {
		base := models.Day(occ)
		for offset := w.Lower; offset <= w.Upper; offset++ {
			covered[base.AddDate(0, 0, offset)] = true
		}
	}

	out := make([]time.Time, 0, len(covered))
	for d := range covered {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Attach recomputes every event-indicator column over the frame's dates:
// one boolean column per registered name, true exactly on dates inside that
// name's expanded windows. Pre-existing event columns are replaced
// wholesale, which makes Attach idempotent. Windows are never clipped to
// the frame's range; a frame that extends past history picks up future
// occurrences the same way history did.
func (r *Registry) Attach(frame *models.TimeSeriesFrame) {
	events := make(map[string][]bool, len(r.names))
	for _, name := range r.names {
		covered := make(map[time.Time]bool)
		for _, d := range r.EventDates(name) {
			covered[d] = true
		}
		col := make([]bool, len(frame.Dates))
		for i, d := range frame.Dates {
			col[i] = covered[models.Day(d)]
		}
		events[name] = col
	}
	frame.Events = events
}
