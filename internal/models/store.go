package models

import (
	"fmt"
	"time"
)

// Run statuses.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ModelRecord is a stored forecasting model configuration.
type ModelRecord struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Growth          string      `json:"growth"`
	Frequency       string      `json:"frequency"`
	Periods         int         `json:"periods"`
	IncludeHistory  bool        `json:"include_history"`
	Holidays        HolidaySpec `json:"holidays,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	ScheduleEnabled bool        `json:"schedule_enabled"`
	ScheduleCron    string      `json:"schedule_cron,omitempty"`
	LastRunAt       *time.Time  `json:"last_run_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// CreateModelRequest is the payload for registering a model.
type CreateModelRequest struct {
	Name            string      `json:"name"`
	Growth          string      `json:"growth"`
	Frequency       string      `json:"frequency"`
	Periods         int         `json:"periods"`
	IncludeHistory  bool        `json:"include_history"`
	Holidays        HolidaySpec `json:"holidays,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	ScheduleEnabled bool        `json:"schedule_enabled"`
	ScheduleCron    string      `json:"schedule_cron,omitempty"`
}

// Validate checks the request for required fields and usable values.
func (r CreateModelRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Periods <= 0 {
		return fmt.Errorf("periods must be positive")
	}
	switch r.Frequency {
	case "", "D", "W", "M":
	default:
		return fmt.Errorf("unknown frequency %q", r.Frequency)
	}
	if r.ScheduleEnabled && r.ScheduleCron == "" {
		return fmt.Errorf("schedule_cron is required when schedule is enabled")
	}
	return nil
}

// ForecastRun records one fit-and-predict pass for a model.
type ForecastRun struct {
	ID           string     `json:"id"`
	ModelID      string     `json:"model_id"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	RowCount     int        `json:"row_count"`
	Summary      string     `json:"summary,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}
