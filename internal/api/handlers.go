package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prophetd/prophetd/internal/auth"
	"github.com/prophetd/prophetd/internal/calendar"
	"github.com/prophetd/prophetd/internal/database"
	"github.com/prophetd/prophetd/internal/forecast"
	"github.com/prophetd/prophetd/internal/models"
)

// maxICSPayload bounds downloaded ICS documents
const maxICSPayload = 1 << 20

// Handler serves the model and forecast API
type Handler struct {
	db         *sql.DB
	repo       *database.ModelRepository
	service    *forecast.Service
	authConfig auth.Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHandler creates the API handler
func NewHandler(db *sql.DB, repo *database.ModelRepository, service *forecast.Service, authConfig auth.Config, logger *slog.Logger) *Handler {
	return &Handler{
		db:         db,
		repo:       repo,
		service:    service,
		authConfig: authConfig,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// statusForError maps domain error kinds to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrConfiguration), errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnsupportedFeature):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrPrerequisite):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// LoginRequest represents a login request
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.passwordValid(req.Password) {
		h.logger.Warn("failed login attempt", "ip", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateToken("admin", h.authConfig.JWTSecret, h.authConfig.TokenDuration)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("successful login", "ip", r.RemoteAddr)

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.authConfig.TokenDuration),
	})
}

// passwordValid checks the admin password, accepting either a bcrypt hash or
// a plain value in config.
func (h *Handler) passwordValid(password string) bool {
	if strings.HasPrefix(h.authConfig.AdminPassword, "$2") {
		return auth.CheckPassword(password, h.authConfig.AdminPassword)
	}
	return password == h.authConfig.AdminPassword
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}

	if h.db != nil {
		if err := database.HealthCheck(r.Context(), h.db); err != nil {
			h.logger.Error("database health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "degraded",
				"database": err.Error(),
			})
			return
		}
		status["database"] = "ok"
		status["pool"] = database.Stats(h.db)
	}

	writeJSON(w, http.StatusOK, status)
}

// createModelRequest extends the stored config with alternative holiday
// sources resolved at creation time.
type createModelRequest struct {
	models.CreateModelRequest
	HolidayICSURL   string `json:"holiday_ics_url,omitempty"`
	HolidayFilePath string `json:"holiday_file,omitempty"`
	LowerWindow     int    `json:"lower_window,omitempty"`
	UpperWindow     int    `json:"upper_window,omitempty"`
}

// CreateModel handles POST /api/models
func (h *Handler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var req createModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	spec, err := h.resolveHolidays(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	req.Holidays = spec

	// Reject invalid holiday tables before persisting
	if _, err := calendar.Register(req.Holidays); err != nil {
		h.writeDomainError(w, err)
		return
	}

	record, err := h.repo.CreateModel(r.Context(), req.CreateModelRequest)
	if err != nil {
		h.logger.Error("failed to create model", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create model")
		return
	}

	h.logger.Info("model created", "model_id", record.ID, "name", record.Name)
	writeJSON(w, http.StatusCreated, record)
}

// resolveHolidays merges inline holidays with YAML file and ICS URL sources.
func (h *Handler) resolveHolidays(ctx context.Context, req createModelRequest) (models.HolidaySpec, error) {
	spec := req.Holidays

	if req.HolidayFilePath != "" {
		fromFile, err := calendar.LoadFile(req.HolidayFilePath)
		if err != nil {
			return nil, err
		}
		spec = append(spec, fromFile...)
	}

	if req.HolidayICSURL != "" {
		fromICS, err := h.fetchICS(ctx, req.HolidayICSURL, req.LowerWindow, req.UpperWindow)
		if err != nil {
			return nil, err
		}
		spec = append(spec, fromICS...)
	}

	return spec, nil
}

func (h *Handler) fetchICS(ctx context.Context, url string, lower, upper int) (models.HolidaySpec, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.NewConfigurationError("invalid ICS URL: %v", err)
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return nil, models.NewConfigurationError("failed to fetch ICS: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewConfigurationError("ICS source returned %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxICSPayload))
	if err != nil {
		return nil, models.NewConfigurationError("failed to read ICS payload: %v", err)
	}

	now := time.Now()
	return calendar.ParseICS(payload, calendar.ICSOptions{
		RangeStart:  now.AddDate(-1, 0, 0),
		RangeEnd:    now.AddDate(3, 0, 0),
		LowerWindow: lower,
		UpperWindow: upper,
	})
}

// ListModels handles GET /api/models
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.ListModels(r.Context())
	if err != nil {
		h.logger.Error("failed to list models", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list models")
		return
	}
	if records == nil {
		records = []models.ModelRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetModel handles GET /api/models/{id}
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadModel(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// DeleteModel handles DELETE /api/models/{id}
func (h *Handler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	id := modelID(r.URL.Path)
	if id == "" {
		writeError(w, http.StatusBadRequest, "Model ID required")
		return
	}

	if err := h.repo.DeleteModel(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "Model not found")
			return
		}
		h.logger.Error("failed to delete model", "model_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete model")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Fit handles POST /api/models/{id}/fit
func (h *Handler) Fit(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadModel(w, r)
	if !ok {
		return
	}

	var frame models.TimeSeriesFrame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid frame payload")
		return
	}

	if err := h.service.Fit(r.Context(), record, &frame); err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"model_id": record.ID,
		"rows":     frame.Len(),
		"status":   "fitted",
	})
}

// predictRequest carries either an explicit frame or a horizon description.
type predictRequest struct {
	Frame          *models.TimeSeriesFrame `json:"frame,omitempty"`
	Periods        int                     `json:"periods,omitempty"`
	Frequency      string                  `json:"freq,omitempty"`
	IncludeHistory bool                    `json:"include_history,omitempty"`
	WithSummary    bool                    `json:"with_summary,omitempty"`
}

// Predict handles POST /api/models/{id}/predict
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadModel(w, r)
	if !ok {
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// An explicit horizon overrides the stored one
	if req.Frame == nil && req.Periods > 0 {
		record = recordWithHorizon(record, req)
	}

	result, err := h.service.Predict(r.Context(), record, req.Frame, req.WithSummary)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":   result.RunID,
		"forecast": result.Table,
		"summary":  result.Summary,
	})
}

func recordWithHorizon(record *models.ModelRecord, req predictRequest) *models.ModelRecord {
	clone := *record
	clone.Periods = req.Periods
	if req.Frequency != "" {
		clone.Frequency = req.Frequency
	}
	clone.IncludeHistory = req.IncludeHistory
	return &clone
}

// Future handles POST /api/models/{id}/future
func (h *Handler) Future(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadModel(w, r)
	if !ok {
		return
	}

	var horizon models.ForecastHorizon
	if err := json.NewDecoder(r.Body).Decode(&horizon); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if horizon.Periods == 0 {
		horizon = models.ForecastHorizon{
			Periods:        record.Periods,
			Frequency:      record.Frequency,
			IncludeHistory: record.IncludeHistory,
		}
	}

	frame, err := h.service.Future(record, horizon)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, frame)
}

// ListRuns handles GET /api/models/{id}/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadModel(w, r)
	if !ok {
		return
	}

	runs, err := h.repo.ListRuns(r.Context(), record.ID, 50)
	if err != nil {
		h.logger.Error("failed to list runs", "model_id", record.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []models.ForecastRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun handles GET /api/models/{id}/runs/{runID}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadModel(w, r)
	if !ok {
		return
	}

	runID := runIDFromPath(r.URL.Path)
	if runID == "" {
		writeError(w, http.StatusBadRequest, "Run ID required")
		return
	}

	table, err := h.repo.GetRunPredictions(r.Context(), runID)
	if err != nil {
		h.logger.Error("failed to get run", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}
	if table == nil {
		writeError(w, http.StatusNotFound, "Run not found or has no predictions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"model_id": record.ID,
		"run_id":   runID,
		"forecast": table,
	})
}

// loadModel resolves the {id} path segment to a stored model, writing the
// error response itself when that fails.
func (h *Handler) loadModel(w http.ResponseWriter, r *http.Request) (*models.ModelRecord, bool) {
	id := modelID(r.URL.Path)
	if id == "" {
		writeError(w, http.StatusBadRequest, "Model ID required")
		return nil, false
	}

	record, err := h.repo.GetModel(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get model", "model_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get model")
		return nil, false
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "Model not found")
		return nil, false
	}

	return record, true
}

// modelID extracts the model ID from paths of the form
// /api/models/{id}[/suffix].
func modelID(path string) string {
	rest := strings.TrimPrefix(path, "/api/models/")
	if rest == path {
		return ""
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// runIDFromPath extracts the run ID from paths of the form
// /api/models/{id}/runs/{runID}.
func runIDFromPath(path string) string {
	i := strings.Index(path, "/runs/")
	if i < 0 {
		return ""
	}
	rest := path[i+len("/runs/"):]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return ""
	}
	return rest
}
