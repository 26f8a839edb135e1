package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/catalog"
	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/domain"
)

// LogActivityRequest is the payload for POST /api/activities.
type LogActivityRequest struct {
	Category string `json:"category"`
	Activity string `json:"activity"`
}

// Validate ensures request correctness.
func (r LogActivityRequest) Validate() error {
	if strings.TrimSpace(r.Category) == "" {
		return errors.New("category is required")
	}
	if strings.TrimSpace(r.Activity) == "" {
		return errors.New("activity is required")
	}
	return nil
}

// ActivityView exposes one logged activity.
type ActivityView struct {
	ActivityID   string    `json:"activity_id"`
	Category     string    `json:"category"`
	Activity     string    `json:"activity"`
	ActivityText string    `json:"activity_text"`
	CO2Kg        float64   `json:"co2_kg"`
	OccurredAt   time.Time `json:"occurred_at"`
	Week         int       `json:"week"`
	Year         int       `json:"year"`
}

// ListActivitiesResponse packages a page of activities.
type ListActivitiesResponse struct {
	Activities  []ActivityView `json:"activities"`
	Total       int            `json:"total"`
	TotalPages  int            `json:"total_pages"`
	CurrentPage int            `json:"current_page"`
}

func toActivityView(activity domain.Activity) ActivityView {
	return ActivityView{
		ActivityID:   activity.ID,
		Category:     string(activity.Category),
		Activity:     activity.ActivityKey,
		ActivityText: activity.ActivityText,
		CO2Kg:        activity.CO2Kg,
		OccurredAt:   activity.OccurredAt,
		Week:         activity.Week,
		Year:         activity.Year,
	}
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.logActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/activities/")
	if rest == "categories" {
		h.categories(w, r)
		return
	}
	if rest == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		h.deleteActivity(w, r, rest)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req LogActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid category or activity")
		return
	}
	entry, ok := catalog.Lookup(category, req.Activity)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid category or activity")
		return
	}

	activity, err := h.service.LogActivity(r.Context(), domain.LogActivityInput{
		UserID:       claims.UserID,
		Category:     category,
		ActivityKey:  req.Activity,
		ActivityText: entry.Text,
		CO2Kg:        entry.CO2Kg,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "activity added",
		"activity": toActivityView(*activity),
	})
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var category domain.Category
	if raw := r.URL.Query().Get("category"); raw != "" && raw != "all" {
		category = domain.Category(raw)
	}

	result, err := h.service.ListActivities(r.Context(), claims.UserID, category, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]ActivityView, 0, len(result.Activities))
	for _, activity := range result.Activities {
		views = append(views, toActivityView(activity))
	}

	writeJSON(w, http.StatusOK, ListActivitiesResponse{
		Activities:  views,
		Total:       result.Total,
		TotalPages:  result.TotalPages,
		CurrentPage: result.Page,
	})
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, activityID string) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteActivity(r.Context(), claims.UserID, activityID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "activity deleted"})
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	writeJSON(w, http.StatusOK, catalog.All())
}
