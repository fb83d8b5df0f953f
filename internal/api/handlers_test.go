package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prophetd/prophetd/internal/auth"
	"github.com/prophetd/prophetd/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuthConfig() auth.Config {
	return auth.Config{
		JWTSecret:     "test-secret",
		AdminPassword: "letmein",
		TokenDuration: time.Hour,
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"configuration", models.NewConfigurationError("bad holiday row"), http.StatusBadRequest},
		{"invalid argument", models.NewInvalidArgumentError("unknown frequency"), http.StatusBadRequest},
		{"unsupported feature", models.NewUnsupportedFeatureError("cap column"), http.StatusUnprocessableEntity},
		{"prerequisite", models.NewPrerequisiteError("not fitted"), http.StatusConflict},
		{"unknown", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestModelID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/models/abc-123", "abc-123"},
		{"/api/models/abc-123/fit", "abc-123"},
		{"/api/models/abc-123/predict", "abc-123"},
		{"/api/models/", ""},
		{"/api/other/abc", ""},
	}

	for _, tt := range tests {
		if got := modelID(tt.path); got != tt.want {
			t.Errorf("modelID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRunIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/models/abc-123/runs/run-9", "run-9"},
		{"/api/models/abc-123/runs", ""},
		{"/api/models/abc-123/runs/run-9/extra", ""},
		{"/api/models/abc-123", ""},
	}

	for _, tt := range tests {
		if got := runIDFromPath(tt.path); got != tt.want {
			t.Errorf("runIDFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLogin(t *testing.T) {
	handler := NewHandler(nil, nil, nil, testAuthConfig(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"letmein"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected token in response")
	}

	userID, err := auth.ValidateToken(resp.Token, "test-secret")
	if err != nil {
		t.Fatalf("token did not validate: %v", err)
	}
	if userID != "admin" {
		t.Errorf("expected admin, got %s", userID)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	handler := NewHandler(nil, nil, nil, testAuthConfig(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"wrong"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginAcceptsBcryptHash(t *testing.T) {
	hash, err := auth.HashPassword("letmein")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	cfg := testAuthConfig()
	cfg.AdminPassword = hash
	handler := NewHandler(nil, nil, nil, cfg, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"letmein"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	handler := NewHandler(nil, nil, nil, testAuthConfig(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	handler := NewHandler(nil, nil, nil, testAuthConfig(), testLogger())
	mux := http.NewServeMux()
	SetupRoutes(mux, handler, testAuthConfig())

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/models"},
		{http.MethodPost, "/api/models/abc/fit"},
		{http.MethodPost, "/api/models/abc/predict"},
		{http.MethodDelete, "/api/models/abc"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", tt.method, tt.path, rec.Code)
		}
	}
}

func TestRoutesRejectUnknownMethods(t *testing.T) {
	handler := NewHandler(nil, nil, nil, testAuthConfig(), testLogger())
	mux := http.NewServeMux()
	SetupRoutes(mux, handler, testAuthConfig())

	req := httptest.NewRequest(http.MethodPut, "/api/models", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
