// Package events defines the payloads published through the outbox and
// consumed by downstream projections.
package events

import "time"

// Topics the outbox dispatcher routes events onto.
const (
	ActivityTopic = "footprint_activity_events"
	GoalTopic     = "footprint_goal_events"
)

// Event type identifiers carried in the message headers.
const (
	TypeActivityLogged  = "activity.logged"
	TypeActivityDeleted = "activity.deleted"
	TypeGoalUpdated     = "goal.updated"
)

// ActivityLogged is emitted when a new activity record is accepted.
type ActivityLogged struct {
	ActivityID  string    `json:"activity_id"`
	UserID      string    `json:"user_id"`
	Category    string    `json:"category"`
	ActivityKey string    `json:"activity_key"`
	CO2Kg       float64   `json:"co2_kg"`
	OccurredAt  time.Time `json:"occurred_at"`
	Week        int       `json:"week"`
	Year        int       `json:"year"`
}

// ActivityDeleted is emitted when a user removes a record, so projections
// can back the emissions out of their running totals.
type ActivityDeleted struct {
	ActivityID string    `json:"activity_id"`
	UserID     string    `json:"user_id"`
	Category   string    `json:"category"`
	CO2Kg      float64   `json:"co2_kg"`
	OccurredAt time.Time `json:"occurred_at"`
}

// GoalUpdated tracks goal creation and progress changes for downstream
// consumers interested in engagement signals.
type GoalUpdated struct {
	UserID            string    `json:"user_id"`
	Week              int       `json:"week"`
	Year              int       `json:"year"`
	Category          string    `json:"category"`
	TargetReductionKg float64   `json:"target_reduction_kg"`
	CurrentProgressKg float64   `json:"current_progress_kg"`
	Tip               string    `json:"tip"`
	UpdatedAt         time.Time `json:"updated_at"`
}
