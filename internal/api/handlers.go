// Package api exposes the HTTP surface of the footprint logger.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/auth"
	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/domain"
	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/notify"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	hub     *notify.Hub
	authCfg auth.Config
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, hub *notify.Hub, authCfg auth.Config) *Handler {
	return &Handler{service: service, hub: hub, authCfg: authCfg}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", h.register)
	mux.HandleFunc("/api/auth/login", h.login)
	mux.HandleFunc("/api/auth/me", h.me)
	mux.HandleFunc("/api/auth/logout", h.logout)
	mux.HandleFunc("/api/activities", h.activities)
	mux.HandleFunc("/api/activities/", h.activityByPath)
	mux.HandleFunc("/api/dashboard", h.dashboard)
	mux.HandleFunc("/api/dashboard/streak", h.streak)
	mux.HandleFunc("/api/dashboard/leaderboard", h.leaderboard)
	mux.HandleFunc("/api/insights", h.insights)
	mux.HandleFunc("/api/insights/progress", h.reportProgress)
	mux.HandleFunc("/api/events", h.eventStream)
	mux.HandleFunc("/healthz", healthz)
}

// AuthSkipper reports whether a request may bypass bearer-token
// authentication.
func AuthSkipper(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/metrics", "/api/auth/register", "/api/auth/login":
		return true
	case "/api/activities/categories":
		// The static catalog is public.
		return r.Method == http.MethodGet
	}
	return false
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func claimsFrom(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	return claims, true
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

// writeDomainError maps domain failures onto HTTP statuses. Collaborator
// failures surface as 500 rather than being masked as empty results.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrActivityNotFound),
		errors.Is(err, domain.ErrGoalNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrUserExists):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
