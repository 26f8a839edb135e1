package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/domain"
)

// GoalView is the public shape of a weekly reduction goal.
type GoalView struct {
	Week              int       `json:"week"`
	Year              int       `json:"year"`
	Category          string    `json:"category"`
	TargetReductionKg float64   `json:"target_reduction_kg"`
	CurrentProgressKg float64   `json:"current_progress_kg"`
	Tip               string    `json:"tip"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// InsightsResponse is returned by GET /api/insights. Goal is null when
// the user has nothing to analyze yet.
type InsightsResponse struct {
	Tip        string             `json:"tip"`
	Goal       *GoalView          `json:"goal"`
	ByCategory map[string]float64 `json:"by_category"`
}

// ReportProgressRequest is the payload for POST /api/insights/progress.
type ReportProgressRequest struct {
	AmountKg float64 `json:"amount_kg"`
}

func toGoalView(goal domain.Goal) *GoalView {
	return &GoalView{
		Week:              goal.Week,
		Year:              goal.Year,
		Category:          string(goal.Category),
		TargetReductionKg: goal.TargetReductionKg,
		CurrentProgressKg: goal.CurrentProgressKg,
		Tip:               goal.Tip,
		UpdatedAt:         goal.UpdatedAt,
	}
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	report, err := h.service.GenerateInsights(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	byCategory := make(map[string]float64, len(report.ByCategory))
	for category, kg := range report.ByCategory {
		byCategory[string(category)] = kg
	}

	resp := InsightsResponse{Tip: report.Tip, ByCategory: byCategory}
	if report.Goal != nil {
		resp.Goal = toGoalView(*report.Goal)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) reportProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req ReportProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	goal, err := h.service.ReportGoalProgress(r.Context(), claims.UserID, req.AmountKg)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goal": toGoalView(*goal)})
}
