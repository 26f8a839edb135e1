package api

import (
	"net/http"
	"strconv"

	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/domain"
)

// DashboardResponse bundles personal and community statistics.
type DashboardResponse struct {
	TotalEmissions      float64            `json:"total_emissions"`
	EmissionsByCategory map[string]float64 `json:"emissions_by_category"`
	WeeklyEmissions     float64            `json:"weekly_emissions"`
	CommunityAverage    float64            `json:"community_average"`
	UserRank            int                `json:"user_rank"`
	TotalUsers          int                `json:"total_users"`
	RecentActivities    []ActivityView     `json:"recent_activities"`
}

// StreakResponse reports low-emission-week streaks.
type StreakResponse struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	Threshold     float64 `json:"threshold"`
}

// LeaderboardEntryView is one ranked leaderboard row.
type LeaderboardEntryView struct {
	Rank           int     `json:"rank"`
	Username       string  `json:"username"`
	TotalEmissions float64 `json:"total_emissions"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	dashboard, err := h.service.GetDashboard(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	byCategory := make(map[string]float64, len(dashboard.ByCategory))
	for category, kg := range dashboard.ByCategory {
		byCategory[string(category)] = kg
	}
	recent := make([]ActivityView, 0, len(dashboard.RecentActivities))
	for _, activity := range dashboard.RecentActivities {
		recent = append(recent, toActivityView(activity))
	}

	writeJSON(w, http.StatusOK, DashboardResponse{
		TotalEmissions:      dashboard.Total,
		EmissionsByCategory: byCategory,
		WeeklyEmissions:     dashboard.WeeklyTotal,
		CommunityAverage:    dashboard.Community.Average,
		UserRank:            dashboard.Community.Rank,
		TotalUsers:          dashboard.Community.TotalUsers,
		RecentActivities:    recent,
	})
}

func (h *Handler) streak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	report, err := h.service.GetStreak(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StreakResponse{
		CurrentStreak: report.Current,
		LongestStreak: report.Longest,
		Threshold:     report.Threshold,
	})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := claimsFrom(w, r); !ok {
		return
	}

	period, err := domain.ParseLeaderboardPeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "period must be one of all, week, month")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := h.service.GetLeaderboard(r.Context(), period, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]LeaderboardEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, LeaderboardEntryView{
			Rank:           entry.Rank,
			Username:       entry.Username,
			TotalEmissions: entry.TotalEmissions,
		})
	}
	writeJSON(w, http.StatusOK, views)
}
