package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/prophetd/prophetd/internal/engine"
	"github.com/prophetd/prophetd/internal/models"
)

// ModelRepository handles forecasting model database operations
type ModelRepository struct {
	db *sql.DB
}

// NewModelRepository creates a new model repository
func NewModelRepository(db *sql.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

// CreateModel stores a new model configuration
func (r *ModelRepository) CreateModel(ctx context.Context, req models.CreateModelRequest) (*models.ModelRecord, error) {
	id := uuid.New().String()
	now := time.Now()

	frequency := req.Frequency
	if frequency == "" {
		frequency = "D"
	}

	holidaysJSON, err := json.Marshal(req.Holidays)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal holidays: %w", err)
	}

	query := `
		INSERT INTO forecast_models (id, name, growth, frequency, periods, include_history, holidays, tags, schedule_enabled, schedule_cron, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query, id, req.Name, req.Growth, frequency, req.Periods, req.IncludeHistory, holidaysJSON, pq.Array(req.Tags), req.ScheduleEnabled, req.ScheduleCron, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	return r.GetModel(ctx, id)
}

// GetModel retrieves a model by ID. Returns nil when the model does not exist.
func (r *ModelRepository) GetModel(ctx context.Context, id string) (*models.ModelRecord, error) {
	query := `
		SELECT id, name, growth, frequency, periods, include_history, holidays, tags, schedule_enabled, schedule_cron, last_run_at, created_at, updated_at
		FROM forecast_models
		WHERE id = $1
	`

	var record models.ModelRecord
	var holidaysJSON []byte
	var lastRunAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.Name,
		&record.Growth,
		&record.Frequency,
		&record.Periods,
		&record.IncludeHistory,
		&holidaysJSON,
		pq.Array(&record.Tags),
		&record.ScheduleEnabled,
		&record.ScheduleCron,
		&lastRunAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	if len(holidaysJSON) > 0 {
		if err := json.Unmarshal(holidaysJSON, &record.Holidays); err != nil {
			return nil, fmt.Errorf("failed to unmarshal holidays: %w", err)
		}
	}
	if lastRunAt.Valid {
		record.LastRunAt = &lastRunAt.Time
	}

	return &record, nil
}

// ListModels retrieves all stored models
func (r *ModelRepository) ListModels(ctx context.Context) ([]models.ModelRecord, error) {
	query := `
		SELECT id, name, growth, frequency, periods, include_history, holidays, tags, schedule_enabled, schedule_cron, last_run_at, created_at, updated_at
		FROM forecast_models
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var records []models.ModelRecord
	for rows.Next() {
		var record models.ModelRecord
		var holidaysJSON []byte
		var lastRunAt sql.NullTime

		err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.Growth,
			&record.Frequency,
			&record.Periods,
			&record.IncludeHistory,
			&holidaysJSON,
			pq.Array(&record.Tags),
			&record.ScheduleEnabled,
			&record.ScheduleCron,
			&lastRunAt,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}

		if len(holidaysJSON) > 0 {
			if err := json.Unmarshal(holidaysJSON, &record.Holidays); err != nil {
				return nil, fmt.Errorf("failed to unmarshal holidays: %w", err)
			}
		}
		if lastRunAt.Valid {
			record.LastRunAt = &lastRunAt.Time
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating models: %w", err)
	}

	return records, nil
}

// DeleteModel deletes a model and its runs
func (r *ModelRepository) DeleteModel(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM forecast_runs WHERE model_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete model runs: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM forecast_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("model not found")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateModelLastRun stamps the model's last run time
func (r *ModelRepository) UpdateModelLastRun(ctx context.Context, id string) error {
	query := `UPDATE forecast_models SET last_run_at = $1, updated_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

// ListScheduledModels retrieves all models with scheduling enabled
func (r *ModelRepository) ListScheduledModels(ctx context.Context) ([]models.ModelRecord, error) {
	query := `
		SELECT id, name, growth, frequency, periods, include_history, holidays, tags, schedule_enabled, schedule_cron, last_run_at, created_at, updated_at
		FROM forecast_models
		WHERE schedule_enabled = TRUE AND schedule_cron <> ''
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled models: %w", err)
	}
	defer rows.Close()

	var records []models.ModelRecord
	for rows.Next() {
		var record models.ModelRecord
		var holidaysJSON []byte
		var lastRunAt sql.NullTime

		err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.Growth,
			&record.Frequency,
			&record.Periods,
			&record.IncludeHistory,
			&holidaysJSON,
			pq.Array(&record.Tags),
			&record.ScheduleEnabled,
			&record.ScheduleCron,
			&lastRunAt,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled model: %w", err)
		}

		if len(holidaysJSON) > 0 {
			if err := json.Unmarshal(holidaysJSON, &record.Holidays); err != nil {
				return nil, fmt.Errorf("failed to unmarshal holidays: %w", err)
			}
		}
		if lastRunAt.Valid {
			record.LastRunAt = &lastRunAt.Time
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled models: %w", err)
	}

	return records, nil
}

// CreateRun records the start of a forecast run
func (r *ModelRepository) CreateRun(ctx context.Context, modelID string) (string, error) {
	runID := uuid.New().String()
	now := time.Now()

	query := `
		INSERT INTO forecast_runs (id, model_id, status, started_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, runID, modelID, models.RunStatusPending, now)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}

	return runID, nil
}

// CompleteRun stores the prediction output and summary for a finished run
func (r *ModelRepository) CompleteRun(ctx context.Context, runID string, table *engine.PredictionTable, summary string) error {
	predictionsJSON, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to marshal predictions: %w", err)
	}

	now := time.Now()
	query := `
		UPDATE forecast_runs
		SET status = $1, predictions = $2, row_count = $3, summary = $4, completed_at = $5
		WHERE id = $6
	`

	_, err = r.db.ExecContext(ctx, query, models.RunStatusCompleted, predictionsJSON, len(table.Dates), summary, now, runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	return nil
}

// FailRun marks a run as failed with an error message
func (r *ModelRepository) FailRun(ctx context.Context, runID, errorMsg string) error {
	now := time.Now()
	query := `
		UPDATE forecast_runs
		SET status = $1, error_message = $2, completed_at = $3
		WHERE id = $4
	`

	_, err := r.db.ExecContext(ctx, query, models.RunStatusFailed, errorMsg, now, runID)
	return err
}

// ListRuns lists the most recent runs for a model
func (r *ModelRepository) ListRuns(ctx context.Context, modelID string, limit int) ([]models.ForecastRun, error) {
	if limit < 1 {
		limit = 20
	}

	query := `
		SELECT id, model_id, status, started_at, completed_at, row_count, summary, error_message
		FROM forecast_runs
		WHERE model_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, modelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.ForecastRun
	for rows.Next() {
		var run models.ForecastRun
		var completedAt sql.NullTime
		var rowCount sql.NullInt64
		var summary, errorMsg sql.NullString

		err := rows.Scan(
			&run.ID, &run.ModelID, &run.Status, &run.StartedAt,
			&completedAt, &rowCount, &summary, &errorMsg,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		if rowCount.Valid {
			run.RowCount = int(rowCount.Int64)
		}
		if summary.Valid {
			run.Summary = summary.String
		}
		if errorMsg.Valid {
			run.ErrorMessage = errorMsg.String
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetRunPredictions retrieves the stored prediction table for a run.
// Returns nil when the run has no stored predictions.
func (r *ModelRepository) GetRunPredictions(ctx context.Context, runID string) (*engine.PredictionTable, error) {
	query := `SELECT predictions FROM forecast_runs WHERE id = $1`

	var predictionsJSON []byte
	err := r.db.QueryRowContext(ctx, query, runID).Scan(&predictionsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run predictions: %w", err)
	}

	if len(predictionsJSON) == 0 {
		return nil, nil
	}

	var table engine.PredictionTable
	if err := json.Unmarshal(predictionsJSON, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal predictions: %w", err)
	}

	return &table, nil
}
