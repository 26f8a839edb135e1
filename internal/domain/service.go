package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/observability"
)

// Deps bundles the collaborators the service orchestrates.
type Deps struct {
	Activities ActivityRepository
	Goals      GoalRepository
	Users      UserRepository
	Community  CommunityRepository
	Notifier   Notifier
	Logger     *log.Logger
	// Now overrides the clock; defaults to time.Now. All week bucketing
	// runs in UTC regardless.
	Now func() time.Time
	// StreakThreshold is the weekly kg CO2 ceiling for streak counting.
	StreakThreshold float64
	// RefreshPolicy governs whether an existing goal is overwritten when
	// insights are regenerated mid-week.
	RefreshPolicy GoalRefreshPolicy
}

// Service orchestrates activity logging, dashboard aggregation, and the
// insight/goal engine over the persistence and notification collaborators.
type Service struct {
	activities ActivityRepository
	goals      GoalRepository
	users      UserRepository
	community  CommunityRepository
	notifier   Notifier
	logger     *log.Logger
	now        func() time.Time

	streakThreshold float64
	refreshPolicy   GoalRefreshPolicy
	goalLocks       keyedMutex
}

// NewService constructs a Service, filling unset optional dependencies
// with defaults.
func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.Writer(), "[domain] ", log.LstdFlags)
	}
	if deps.StreakThreshold <= 0 {
		deps.StreakThreshold = DefaultStreakThreshold
	}
	if deps.RefreshPolicy == "" {
		deps.RefreshPolicy = RefreshAdaptive
	}
	return &Service{
		activities:      deps.Activities,
		goals:           deps.Goals,
		users:           deps.Users,
		community:       deps.Community,
		notifier:        deps.Notifier,
		logger:          deps.Logger,
		now:             deps.Now,
		streakThreshold: deps.StreakThreshold,
		refreshPolicy:   deps.RefreshPolicy,
	}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser fetches an account by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// LogActivityInput carries a catalog-resolved activity into the service.
type LogActivityInput struct {
	UserID       string
	Category     Category
	ActivityKey  string
	ActivityText string
	CO2Kg        float64
	OccurredAt   time.Time
}

// LogActivity persists a new activity record, deriving the redundant
// (week, year) key from the occurrence time so write and read paths agree.
func (s *Service) LogActivity(ctx context.Context, input LogActivityInput) (*Activity, error) {
	if _, err := ParseCategory(string(input.Category)); err != nil {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, input.Category)
	}
	if input.CO2Kg < 0 {
		return nil, fmt.Errorf("%w: co2 must be non-negative", ErrInvalidInput)
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}
	occurredAt = occurredAt.UTC()
	week, year := WeekOf(occurredAt)

	activity := Activity{
		ID:           uuid.NewString(),
		UserID:       input.UserID,
		Category:     input.Category,
		ActivityKey:  input.ActivityKey,
		ActivityText: input.ActivityText,
		CO2Kg:        input.CO2Kg,
		OccurredAt:   occurredAt,
		Week:         week,
		Year:         year,
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, err
	}
	observability.RecordActivityLogged(string(activity.Category))
	return &activity, nil
}

// ActivityPage is a paged slice of a user's activity history.
type ActivityPage struct {
	Activities []Activity
	Total      int
	TotalPages int
	Page       int
}

// ListActivities returns the user's activities newest first, optionally
// filtered by category, with offset pagination.
func (s *Service) ListActivities(ctx context.Context, userID string, category Category, page, limit int) (*ActivityPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if category != "" {
		if _, err := ParseCategory(string(category)); err != nil {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
		}
	}

	filter := ActivityFilter{
		UserID:   userID,
		Category: category,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}
	activities, err := s.activities.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.activities.Count(ctx, ActivityFilter{UserID: userID, Category: category})
	if err != nil {
		return nil, err
	}

	return &ActivityPage{
		Activities: activities,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
		Page:       page,
	}, nil
}

// DeleteActivity removes an activity after confirming ownership.
func (s *Service) DeleteActivity(ctx context.Context, userID, activityID string) error {
	activity, err := s.activities.Get(ctx, userID, activityID)
	if err != nil {
		return err
	}
	if activity == nil {
		return ErrActivityNotFound
	}
	return s.activities.Delete(ctx, userID, activityID)
}

// Dashboard bundles the personal and community statistics for one user.
type Dashboard struct {
	Summary
	Community        CommunityStats
	RecentActivities []Activity
}

// GetDashboard recomputes personal aggregates from the user's full history
// and reads community figures from the incrementally maintained per-user
// totals rather than scanning every record in the system.
func (s *Service) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	records, err := s.activities.Find(ctx, ActivityFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	summary := Summarize(records, s.now())

	recent := make([]Activity, len(records))
	copy(recent, records)
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].OccurredAt.After(recent[j].OccurredAt)
	})
	if len(recent) > 10 {
		recent = recent[:10]
	}

	totals, err := s.community.UserTotals(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Summary:          summary,
		Community:        CommunityStatsOf(totals, userID),
		RecentActivities: recent,
	}, nil
}

// StreakReport is the streak payload exposed to the presentation layer.
type StreakReport struct {
	Current   int
	Longest   int
	Threshold float64
}

// GetStreak derives the user's low-emission-week streaks for the current
// year.
func (s *Service) GetStreak(ctx context.Context, userID string) (*StreakReport, error) {
	now := s.now().UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	records, err := s.activities.Find(ctx, ActivityFilter{UserID: userID, From: yearStart})
	if err != nil {
		return nil, err
	}

	totals := WeeklyTotalsForYear(records, now.Year())
	result := Streak(totals, s.streakThreshold)
	return &StreakReport{
		Current:   result.Current,
		Longest:   result.Longest,
		Threshold: s.streakThreshold,
	}, nil
}

// GetLeaderboard ranks users by summed emissions over the selected period.
// Users whose display name cannot be resolved keep a placeholder entry;
// entries whose lookup errors are dropped individually so one bad row never
// fails the whole board.
func (s *Service) GetLeaderboard(ctx context.Context, period LeaderboardPeriod, limit int) ([]LeaderboardEntry, error) {
	limit = ClampLeaderboardLimit(limit)

	filter := ActivityFilter{}
	now := s.now().UTC()
	switch period {
	case PeriodAll, "":
	case PeriodWeek:
		filter.Week, filter.Year = WeekOf(now)
	case PeriodMonth:
		filter.From = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		filter.To = filter.From.AddDate(0, 1, 0)
	default:
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidInput, period)
	}

	totals, err := s.activities.Totals(ctx, filter)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(totals))
	for _, total := range totals {
		username, err := s.users.ResolveUsername(ctx, total.UserID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				username = "Unknown User"
			} else {
				s.logger.Printf("leaderboard: dropping user %s: %v", total.UserID, err)
				continue
			}
		}
		entries = append(entries, LeaderboardEntry{
			UserID:         total.UserID,
			Username:       username,
			TotalEmissions: total.TotalKg,
		})
	}

	return RankLeaderboard(entries, limit), nil
}

// notify delivers a best-effort realtime event. Failures are logged and
// swallowed: tips and goal updates must never fail the primary response.
func (s *Service) notify(ctx context.Context, userID, event string, payload any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, event, payload); err != nil {
		observability.RecordNotificationDropped(event)
		s.logger.Printf("notify %s to user %s failed: %v", event, userID, err)
		return
	}
	observability.RecordNotificationDelivered(event)
}
