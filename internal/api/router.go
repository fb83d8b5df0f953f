package api

import (
	"net/http"
	"strings"

	"github.com/prophetd/prophetd/internal/auth"
)

// SetupRoutes configures all API routes on the mux.
func SetupRoutes(mux *http.ServeMux, handler *Handler, authConfig auth.Config) {
	authMiddleware := auth.Middleware(authConfig)

	// Public routes
	mux.HandleFunc("/api/auth/login", handler.Login)
	mux.HandleFunc("/api/health", handler.Health)

	// Model collection routes
	mux.HandleFunc("/api/models", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListModels(w, r)
		case http.MethodPost:
			authMiddleware(http.HandlerFunc(handler.CreateModel)).ServeHTTP(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Model instance routes
	mux.HandleFunc("/api/models/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/models/" {
			http.NotFound(w, r)
			return
		}

		// Handle /api/models/{id}/fit
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/fit") {
			authMiddleware(http.HandlerFunc(handler.Fit)).ServeHTTP(w, r)
			return
		}

		// Handle /api/models/{id}/predict
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/predict") {
			authMiddleware(http.HandlerFunc(handler.Predict)).ServeHTTP(w, r)
			return
		}

		// Handle /api/models/{id}/future
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/future") {
			handler.Future(w, r)
			return
		}

		// Handle /api/models/{id}/runs and /api/models/{id}/runs/{runID}
		if r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/runs") {
			if strings.HasSuffix(r.URL.Path, "/runs") {
				handler.ListRuns(w, r)
			} else {
				handler.GetRun(w, r)
			}
			return
		}

		// Handle /api/models/{id}
		switch r.Method {
		case http.MethodGet:
			handler.GetModel(w, r)
		case http.MethodDelete:
			authMiddleware(http.HandlerFunc(handler.DeleteModel)).ServeHTTP(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
}
