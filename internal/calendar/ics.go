package calendar

import (
	"bytes"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/prophetd/prophetd/internal/models"
)

const maxICSOccurrences = 1000

// ICSOptions controls how an iCalendar payload is turned into a holiday
// table.
type ICSOptions struct {
	// RangeStart/RangeEnd bound recurrence expansion. Recurring holidays
	// (FREQ=YEARLY and friends) produce one HolidaySpec row per instance
	// inside this range. The range should cover both the historical frame
	// and the furthest horizon the model will be asked for.
	RangeStart time.Time
	RangeEnd   time.Time

	// LowerWindow/UpperWindow apply to every event from the feed, since
	// iCalendar has no window concept of its own.
	LowerWindow int
	UpperWindow int
}

// ParseICS turns an iCalendar payload into a HolidaySpec. Each VEVENT's
// SUMMARY becomes the holiday name and its start date the occurrence date;
// RRULE-bearing events are expanded over the configured range. Events
// without a summary or start date are rejected rather than skipped: a
// holiday feed with unusable rows is a configuration problem, not noise.
func ParseICS(body []byte, opts ICSOptions) (models.HolidaySpec, error) {
	if len(body) == 0 {
		return nil, models.NewConfigurationError("empty ICS payload")
	}
	if opts.RangeEnd.Before(opts.RangeStart) {
		return nil, models.NewInvalidArgumentError("ICS range end %s is before range start %s",
			opts.RangeEnd.Format("2006-01-02"), opts.RangeStart.Format("2006-01-02"))
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewConfigurationError("parse ICS: %v", err)
	}

	var spec models.HolidaySpec
	for _, ve := range cal.Events() {
		rows, err := specRowsForEvent(ve, opts)
		if err != nil {
			return nil, err
		}
		spec = append(spec, rows...)
	}
	return spec, nil
}

func specRowsForEvent(ve *ical.VEvent, opts ICSOptions) (models.HolidaySpec, error) {
	summaryProp := ve.GetProperty(ical.ComponentPropertySummary)
	if summaryProp == nil || summaryProp.Value == "" {
		return nil, models.NewConfigurationError("ICS event has no SUMMARY")
	}
	name := summaryProp.Value

	start, err := ve.GetStartAt()
	if err != nil {
		start, err = ve.GetAllDayStartAt()
		if err != nil {
			return nil, models.NewConfigurationError("ICS event %q: unreadable DTSTART: %v", name, err)
		}
	}

	var dates []time.Time
	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil && rruleProp.Value != "" {
		dates, err = expandRRule(rruleProp.Value, start, opts)
		if err != nil {
			return nil, models.NewConfigurationError("ICS event %q: %v", name, err)
		}
	} else {
		day := models.Day(start)
		if day.Before(models.Day(opts.RangeStart)) || day.After(models.Day(opts.RangeEnd)) {
			return nil, nil
		}
		dates = []time.Time{day}
	}

	rows := make(models.HolidaySpec, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, models.HolidayOccurrence{
			Name:        name,
			Date:        d,
			LowerWindow: opts.LowerWindow,
			UpperWindow: opts.UpperWindow,
		})
	}
	return rows, nil
}

func expandRRule(raw string, dtstart time.Time, opts ICSOptions) ([]time.Time, error) {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE %q: %w", raw, err)
	}
	r.DTStart(dtstart)

	occs := r.Between(opts.RangeStart, opts.RangeEnd, true)
	if len(occs) > maxICSOccurrences {
		occs = occs[:maxICSOccurrences]
	}

	dates := make([]time.Time, 0, len(occs))
	for _, occ := range occs {
		dates = append(dates, models.Day(occ))
	}
	return dates, nil
}
