package domain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/observability"
)

// GoalRefreshPolicy decides what happens when insights are regenerated
// for a week that already has a goal.
type GoalRefreshPolicy string

const (
	// RefreshAdaptive overwrites category, target, and tip whenever the
	// activity mix shifts mid-week.
	RefreshAdaptive GoalRefreshPolicy = "adaptive"
	// RefreshLock keeps the first goal created for the week and only
	// recomputes progress on later calls.
	RefreshLock GoalRefreshPolicy = "lock-on-first-create"
)

// baselineWeeks is the trailing window, in weeks, used to judge avoided
// emissions against historical behaviour.
const baselineWeeks = 4

// fallbackWindow widens the data selection when the current week is empty.
const fallbackWindow = 28 * 24 * time.Hour

// genericTip is the terminal response when the user has nothing to
// analyze at all.
const genericTip = "Log an activity to start tracking your footprint and get a personalised weekly goal."

var tipTemplates = map[Category]string{
	CategoryTransport: "Try walking, cycling, or public transport for short trips this week to cut about %.2f kg of CO2.",
	CategoryFood:      "Swap a few high-impact meals like beef for plant-based options this week to save about %.2f kg of CO2.",
	CategoryEnergy:    "Switch off idle appliances and ease the heating this week to avoid about %.2f kg of CO2.",
}

func tipFor(category Category, targetKg float64) string {
	template, ok := tipTemplates[category]
	if !ok {
		template = "Focus on cutting about %.2f kg of CO2 from your highest-impact habits this week."
	}
	return fmt.Sprintf(template, targetKg)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// InsightReport is the response of a generate-insights invocation. A nil
// Goal with the generic tip is the terminal "nothing to analyze" response,
// not an error.
type InsightReport struct {
	Tip        string
	Goal       *Goal
	ByCategory map[Category]float64
}

// keyedMutex serializes goal mutation per (user, week, year) so concurrent
// insight generation and progress reports cannot lose updates.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func goalKey(userID string, week, year int) string {
	return fmt.Sprintf("%s:%d:%d", userID, week, year)
}

// GenerateInsights inspects the user's recent activity, derives the weekly
// reduction goal for the current week, upserts it, computes progress
// against the trailing four-week baseline, and pushes a best-effort
// realtime notification.
func (s *Service) GenerateInsights(ctx context.Context, userID string) (*InsightReport, error) {
	now := s.now().UTC()
	week, year := WeekOf(now)

	unlock := s.goalLocks.lock(goalKey(userID, week, year))
	defer unlock()

	// Step 1: current week first, then the trailing 28 days.
	records, err := s.activities.Find(ctx, ActivityFilter{UserID: userID, Week: week, Year: year})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		records, err = s.activities.Find(ctx, ActivityFilter{UserID: userID, From: now.Add(-fallbackWindow)})
		if err != nil {
			return nil, err
		}
	}
	if len(records) == 0 {
		return &InsightReport{Tip: genericTip, ByCategory: map[Category]float64{}}, nil
	}

	// Step 2: highest-emitting category; lexically smallest name wins ties.
	byCategory := make(map[Category]float64, len(records))
	for _, record := range records {
		byCategory[record.Category] += record.CO2Kg
	}
	topCategory, topKg := pickHighestCategory(byCategory)

	// Steps 3 and 4.
	targetKg := round2(topKg * 0.10)
	tip := tipFor(topCategory, targetKg)

	existing, err := s.goals.Find(ctx, userID, week, year)
	if err != nil {
		return nil, err
	}
	if existing != nil && s.refreshPolicy == RefreshLock {
		topCategory = existing.Category
		targetKg = existing.TargetReductionKg
		tip = existing.Tip
	}

	// Step 5: upsert keyed by (user, week, year).
	goal := Goal{
		UserID:            userID,
		Week:              week,
		Year:              year,
		Category:          topCategory,
		TargetReductionKg: targetKg,
		Tip:               tip,
		UpdatedAt:         now,
	}
	if existing != nil {
		goal.CreatedAt = existing.CreatedAt
		goal.CurrentProgressKg = existing.CurrentProgressKg
	} else {
		goal.CreatedAt = now
	}

	// Step 6: progress against the trailing four-week baseline.
	baseline, err := s.categoryBaseline(ctx, userID, topCategory, week, year)
	if err != nil {
		return nil, err
	}
	if baseline == 0 {
		// No history means no avoided emissions can be claimed.
		goal.CurrentProgressKg = 0
	} else {
		avoided := math.Max(0, baseline-byCategory[topCategory])
		goal.CurrentProgressKg = round2(math.Min(avoided, goal.TargetReductionKg))
	}

	// Step 7: persist, then best-effort notify.
	saved, err := s.goals.Upsert(ctx, goal)
	if err != nil {
		return nil, err
	}
	observability.RecordInsightGenerated(string(saved.Category))
	s.notify(ctx, userID, "insight.updated", map[string]any{
		"tip":  saved.Tip,
		"goal": saved,
	})

	return &InsightReport{Tip: saved.Tip, Goal: saved, ByCategory: byCategory}, nil
}

// ReportGoalProgress applies a user-reported reduction to the current
// week's goal, clamped so progress never leaves [0, target].
func (s *Service) ReportGoalProgress(ctx context.Context, userID string, amountKg float64) (*Goal, error) {
	if amountKg <= 0 || math.IsNaN(amountKg) || math.IsInf(amountKg, 0) {
		return nil, fmt.Errorf("%w: amount must be a positive finite number", ErrInvalidInput)
	}

	now := s.now().UTC()
	week, year := WeekOf(now)

	unlock := s.goalLocks.lock(goalKey(userID, week, year))
	defer unlock()

	goal, err := s.goals.Find(ctx, userID, week, year)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, ErrGoalNotFound
	}

	goal.CurrentProgressKg = round2(math.Min(goal.CurrentProgressKg+amountKg, goal.TargetReductionKg))
	goal.UpdatedAt = now

	saved, err := s.goals.Upsert(ctx, *goal)
	if err != nil {
		return nil, err
	}
	observability.RecordGoalProgressReported()
	s.notify(ctx, userID, "goal.progress", saved)
	return saved, nil
}

// categoryBaseline averages the user's emissions in one category over the
// four calendar weeks preceding the current week. Weeks without data
// contribute zero to the sum but still count in the divisor, so this is a
// true four-week average.
func (s *Service) categoryBaseline(ctx context.Context, userID string, category Category, week, year int) (float64, error) {
	weekStart := WeekStart(week, year)
	records, err := s.activities.Find(ctx, ActivityFilter{
		UserID:   userID,
		Category: category,
		From:     weekStart.AddDate(0, 0, -7*baselineWeeks),
		To:       weekStart,
	})
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, record := range records {
		sum += record.CO2Kg
	}
	return sum / baselineWeeks, nil
}

func pickHighestCategory(byCategory map[Category]float64) (Category, float64) {
	categories := make([]Category, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var top Category
	topKg := math.Inf(-1)
	for _, category := range categories {
		if byCategory[category] > topKg {
			top = category
			topKg = byCategory[category]
		}
	}
	return top, topKg
}
