package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prophetd/prophetd/internal/models"
)

// HTTPClient drives a remote engine service over JSON/HTTP. Each model
// instance owns one session on the engine side, created lazily on
// Configure.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	logger    *slog.Logger
	sessionID string
}

// NewHTTPClient builds a client for the engine service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Configure creates an engine session with the given model configuration.
func (c *HTTPClient) Configure(cfg Config) error {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.post(context.Background(), "/v1/sessions", cfg, &resp); err != nil {
		return fmt.Errorf("engine configure: %w", err)
	}
	if resp.SessionID == "" {
		return fmt.Errorf("engine configure: empty session id")
	}
	c.sessionID = resp.SessionID
	c.logger.Info("engine session created", "session_id", c.sessionID)
	return nil
}

// AddSeasonality registers an extra seasonal component on the session.
func (c *HTTPClient) AddSeasonality(s Seasonality) error {
	if c.sessionID == "" {
		return models.NewPrerequisiteError("engine session not configured")
	}
	return c.post(context.Background(), "/v1/sessions/"+c.sessionID+"/seasonalities", s, nil)
}

// AddRegressor registers an extra regressor column on the session.
func (c *HTTPClient) AddRegressor(name string) error {
	if c.sessionID == "" {
		return models.NewPrerequisiteError("engine session not configured")
	}
	body := map[string]string{"name": name}
	return c.post(context.Background(), "/v1/sessions/"+c.sessionID+"/regressors", body, nil)
}

// Fit trains the session on the given frame.
func (c *HTTPClient) Fit(ctx context.Context, frame *models.TimeSeriesFrame) error {
	if c.sessionID == "" {
		return models.NewPrerequisiteError("engine session not configured")
	}
	if err := c.post(ctx, "/v1/sessions/"+c.sessionID+"/fit", frameEnvelope(frame), nil); err != nil {
		return fmt.Errorf("engine fit: %w", err)
	}
	return nil
}

// Predict produces forecasts for the given frame's dates.
func (c *HTTPClient) Predict(ctx context.Context, frame *models.TimeSeriesFrame) (*PredictionTable, error) {
	if c.sessionID == "" {
		return nil, models.NewPrerequisiteError("engine session not configured")
	}
	var table PredictionTable
	if err := c.post(ctx, "/v1/sessions/"+c.sessionID+"/predict", frameEnvelope(frame), &table); err != nil {
		return nil, fmt.Errorf("engine predict: %w", err)
	}
	return &table, nil
}

// frameEnvelope flattens a frame into the engine's wire shape: ISO dates,
// the value column, and one numeric column per covariate with event columns
// carrying the engine's event_ prefix as 0/1.
func frameEnvelope(frame *models.TimeSeriesFrame) map[string]any {
	dates := make([]string, frame.Len())
	for i, d := range frame.Dates {
		dates[i] = d.Format("2006-01-02")
	}

	columns := make(map[string][]float64, len(frame.Events)+len(frame.Regressors))
	for name, col := range frame.Events {
		numeric := make([]float64, len(col))
		for i, on := range col {
			if on {
				numeric[i] = 1
			}
		}
		columns[EventPrefix+name] = numeric
	}
	for name, col := range frame.Regressors {
		columns[name] = col
	}

	return map[string]any{
		"ds":      dates,
		"y":       frame.Values,
		"columns": columns,
	}
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("engine returned %d: %s", resp.StatusCode, string(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode engine response: %w", err)
	}
	return nil
}
