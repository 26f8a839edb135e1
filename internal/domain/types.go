// Package domain implements the aggregation and goal engine for the
// footprint logger: weekly grouping, dashboard statistics, streaks,
// the community leaderboard, and the per-week reduction goal lifecycle.
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidInput flags a malformed request value (unknown category,
	// non-positive progress amount, bad period).
	ErrInvalidInput = errors.New("invalid input")
	// ErrActivityNotFound is returned when an activity cannot be located
	// or does not belong to the requesting user.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrGoalNotFound is returned when no goal exists for the current week.
	ErrGoalNotFound = errors.New("no goal exists for the current week")
	// ErrUserNotFound is returned on direct lookup of an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a registration collides with an
	// existing username or email.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Category is the coarse classification of a logged activity.
type Category string

const (
	CategoryTransport Category = "transport"
	CategoryFood      Category = "food"
	CategoryEnergy    Category = "energy"
)

// ParseCategory validates a raw category string.
func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case CategoryTransport, CategoryFood, CategoryEnergy:
		return Category(raw), nil
	}
	return "", ErrInvalidInput
}

// Activity is one logged user action with its CO2 estimate fixed at
// creation time from the emission catalog. Week and Year are derived from
// OccurredAt via WeekOf when the record is created and stored redundantly
// for fast weekly grouping.
type Activity struct {
	ID           string
	UserID       string
	Category     Category
	ActivityKey  string
	ActivityText string
	CO2Kg        float64
	OccurredAt   time.Time
	Week         int
	Year         int
}

// Goal is the per-user-per-week reduction target and progress tracker.
// At most one goal exists per (UserID, Week, Year); the repository enforces
// this with upsert semantics.
type Goal struct {
	UserID            string
	Week              int
	Year              int
	Category          Category
	TargetReductionKg float64
	CurrentProgressKg float64
	Tip               string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// User is an account able to log activities and receive insights.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserTotal is a per-user emission sum, either maintained incrementally by
// the community totals projection or aggregated in SQL for leaderboards.
type UserTotal struct {
	UserID  string
	TotalKg float64
}

// ActivityFilter narrows activity queries. Zero values mean "no filter";
// Week/Year filter only when Week > 0, the time range only when non-zero.
type ActivityFilter struct {
	UserID   string
	Category Category
	Week     int
	Year     int
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// ActivityRepository captures persistence operations over activity records.
type ActivityRepository interface {
	Create(ctx context.Context, activity Activity) error
	Find(ctx context.Context, filter ActivityFilter) ([]Activity, error)
	Count(ctx context.Context, filter ActivityFilter) (int, error)
	Get(ctx context.Context, userID, activityID string) (*Activity, error)
	Delete(ctx context.Context, userID, activityID string) error
	// Totals sums emissions per user over the filtered record set.
	Totals(ctx context.Context, filter ActivityFilter) ([]UserTotal, error)
}

// GoalRepository stores the per-user-per-week goal singleton.
type GoalRepository interface {
	Find(ctx context.Context, userID string, week, year int) (*Goal, error)
	Upsert(ctx context.Context, goal Goal) (*Goal, error)
}

// UserRepository stores accounts and resolves display names.
type UserRepository interface {
	Create(ctx context.Context, user User) error
	Get(ctx context.Context, userID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	// ResolveUsername returns ErrUserNotFound for unknown IDs.
	ResolveUsername(ctx context.Context, userID string) (string, error)
}

// CommunityRepository reads the incrementally maintained per-user totals.
type CommunityRepository interface {
	UserTotals(ctx context.Context) ([]UserTotal, error)
}

// Notifier delivers an event to the user's live connection if one exists.
// Implementations are best-effort; the service logs and swallows failures
// so tips and goal updates never fail the primary response.
type Notifier interface {
	Notify(ctx context.Context, userID, event string, payload any) error
}
