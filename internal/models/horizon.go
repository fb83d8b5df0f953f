package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ForecastHorizon describes how far and at what step size to extend a
// historical frame into the future.
type ForecastHorizon struct {
	Periods        int    `json:"periods"`
	Frequency      string `json:"freq"`
	IncludeHistory bool   `json:"include_history"`
}

// SeasonalityToggle models the legacy tri-state seasonality switch:
// "auto", an explicit on/off, or an integer Fourier-term count. The zero
// value means "auto".
type SeasonalityToggle struct {
	Auto         bool
	Enabled      *bool
	FourierOrder int
}

// AutoSeasonality is the default toggle.
func AutoSeasonality() SeasonalityToggle {
	return SeasonalityToggle{Auto: true}
}

func (s SeasonalityToggle) MarshalJSON() ([]byte, error) {
	switch {
	case s.FourierOrder > 0:
		return []byte(strconv.Itoa(s.FourierOrder)), nil
	case s.Enabled != nil:
		return []byte(strconv.FormatBool(*s.Enabled)), nil
	default:
		return []byte(`"auto"`), nil
	}
}

func (s *SeasonalityToggle) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*s = AutoSeasonality()
	case string:
		if v != "auto" {
			return fmt.Errorf("seasonality: unknown value %q", v)
		}
		*s = AutoSeasonality()
	case bool:
		enabled := v
		*s = SeasonalityToggle{Enabled: &enabled}
	case float64:
		if v != float64(int(v)) || v < 0 {
			return fmt.Errorf("seasonality: fourier order must be a non-negative integer, got %v", v)
		}
		*s = SeasonalityToggle{FourierOrder: int(v)}
	default:
		return fmt.Errorf("seasonality: unsupported value %v", raw)
	}
	return nil
}
