package models

import (
	"time"
)

// HolidayOccurrence is one row of a legacy holiday table: a named calendar
// date with an optional asymmetric day window around it. LowerWindow is
// non-positive (days before the date also covered), UpperWindow non-negative.
// PriorScale is accepted for signature compatibility with the legacy API and
// has no effect; the adapter logs an advisory when it is set.
type HolidayOccurrence struct {
	Name        string    `json:"holiday"`
	Date        time.Time `json:"ds"`
	LowerWindow int       `json:"lower_window,omitempty"`
	UpperWindow int       `json:"upper_window,omitempty"`
	PriorScale  *float64  `json:"prior_scale,omitempty"`
}

// HolidaySpec is the full holiday table supplied at model configuration
// time. It is stored immutably for the model's lifetime; everything derived
// from it (per-date event indicators) is recomputed on demand.
type HolidaySpec []HolidayOccurrence

// Names returns the distinct holiday names in first-seen order.
func (s HolidaySpec) Names() []string {
	seen := make(map[string]bool, len(s))
	names := make([]string, 0, len(s))
	for _, occ := range s {
		if seen[occ.Name] {
			continue
		}
		seen[occ.Name] = true
		names = append(names, occ.Name)
	}
	return names
}

// Day truncates t to its calendar date in UTC. All event and frame
// timestamps are normalized through this so joins by date are exact.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
