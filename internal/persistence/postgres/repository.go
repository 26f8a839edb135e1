// Package postgres provides pgx-backed persistence for users, activities,
// goals, the community totals projection, and the event outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/domain"
	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/events"
)

// Repository provides Postgres-backed persistence. Domain events are
// recorded in the outbox inside the same transaction as the write they
// describe, so projections never observe a write without its event.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const activityColumns = `activity_id, user_id, category, activity_key, activity_text, co2_kg, occurred_at, week, year`

func scanActivity(row pgx.Row) (domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(&a.ID, &a.UserID, &a.Category, &a.ActivityKey, &a.ActivityText, &a.CO2Kg, &a.OccurredAt, &a.Week, &a.Year)
	return a, err
}

// Create persists an activity and records its outbox event in one
// transaction.
func (r *Repository) Create(ctx context.Context, activity domain.Activity) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertActivity = `INSERT INTO activities (activity_id, user_id, category, activity_key, activity_text, co2_kg, occurred_at, week, year)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, insertActivity,
		activity.ID,
		activity.UserID,
		activity.Category,
		activity.ActivityKey,
		activity.ActivityText,
		activity.CO2Kg,
		activity.OccurredAt,
		activity.Week,
		activity.Year,
	)
	if err != nil {
		return err
	}

	err = insertOutbox(ctx, tx, outboxRecord{
		AggregateType: "activity",
		AggregateID:   activity.ID,
		EventType:     events.TypeActivityLogged,
		Topic:         events.ActivityTopic,
		PartitionKey:  activity.UserID,
		Payload: events.ActivityLogged{
			ActivityID:  activity.ID,
			UserID:      activity.UserID,
			Category:    string(activity.Category),
			ActivityKey: activity.ActivityKey,
			CO2Kg:       activity.CO2Kg,
			OccurredAt:  activity.OccurredAt,
			Week:        activity.Week,
			Year:        activity.Year,
		},
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Find returns activities matching the filter, newest first.
func (r *Repository) Find(ctx context.Context, filter domain.ActivityFilter) ([]domain.Activity, error) {
	where, args := buildActivityWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM activities%s ORDER BY occurred_at DESC, activity_id DESC`, activityColumns, where)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, activity)
	}
	return results, rows.Err()
}

// Count returns the number of activities matching the filter.
func (r *Repository) Count(ctx context.Context, filter domain.ActivityFilter) (int, error) {
	where, args := buildActivityWhere(filter)
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities`+where, args...).Scan(&count)
	return count, err
}

// Get retrieves one activity owned by the user, nil when absent.
func (r *Repository) Get(ctx context.Context, userID, activityID string) (*domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE user_id=$1 AND activity_id=$2`, activityColumns)
	activity, err := scanActivity(r.pool.QueryRow(ctx, query, userID, activityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &activity, nil
}

// Delete removes an activity and records the deletion event in one
// transaction.
func (r *Repository) Delete(ctx context.Context, userID, activityID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	query := fmt.Sprintf(`DELETE FROM activities WHERE user_id=$1 AND activity_id=$2 RETURNING %s`, activityColumns)
	deleted, err := scanActivity(tx.QueryRow(ctx, query, userID, activityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrActivityNotFound
		}
		return err
	}

	err = insertOutbox(ctx, tx, outboxRecord{
		AggregateType: "activity",
		AggregateID:   deleted.ID,
		EventType:     events.TypeActivityDeleted,
		Topic:         events.ActivityTopic,
		PartitionKey:  deleted.UserID,
		Payload: events.ActivityDeleted{
			ActivityID: deleted.ID,
			UserID:     deleted.UserID,
			Category:   string(deleted.Category),
			CO2Kg:      deleted.CO2Kg,
			OccurredAt: deleted.OccurredAt,
		},
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Totals sums emissions per user over the filtered record set in SQL.
func (r *Repository) Totals(ctx context.Context, filter domain.ActivityFilter) ([]domain.UserTotal, error) {
	where, args := buildActivityWhere(filter)
	query := `SELECT user_id, SUM(co2_kg) FROM activities` + where + ` GROUP BY user_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]domain.UserTotal, 0)
	for rows.Next() {
		var total domain.UserTotal
		if err := rows.Scan(&total.UserID, &total.TotalKg); err != nil {
			return nil, err
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

func buildActivityWhere(filter domain.ActivityFilter) (string, []interface{}) {
	clauses := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.UserID != "" {
		add("user_id=$%d", filter.UserID)
	}
	if filter.Category != "" {
		add("category=$%d", filter.Category)
	}
	if filter.Week > 0 {
		add("week=$%d", filter.Week)
		add("year=$%d", filter.Year)
	}
	if !filter.From.IsZero() {
		add("occurred_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("occurred_at < $%d", filter.To)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// FindGoal fetches the goal for (user, week, year), nil when absent.
func (r *Repository) FindGoal(ctx context.Context, userID string, week, year int) (*domain.Goal, error) {
	const query = `SELECT user_id, week, year, category, target_reduction_kg, current_progress_kg, tip, created_at, updated_at
        FROM goals WHERE user_id=$1 AND week=$2 AND year=$3`

	var g domain.Goal
	err := r.pool.QueryRow(ctx, query, userID, week, year).
		Scan(&g.UserID, &g.Week, &g.Year, &g.Category, &g.TargetReductionKg, &g.CurrentProgressKg, &g.Tip, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// UpsertGoal creates or replaces the goal keyed by (user, week, year) and
// records the goal.updated event in the same transaction.
func (r *Repository) UpsertGoal(ctx context.Context, goal domain.Goal) (*domain.Goal, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO goals (user_id, week, year, category, target_reduction_kg, current_progress_kg, tip, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (user_id, week, year) DO UPDATE SET
            category = EXCLUDED.category,
            target_reduction_kg = EXCLUDED.target_reduction_kg,
            current_progress_kg = EXCLUDED.current_progress_kg,
            tip = EXCLUDED.tip,
            updated_at = EXCLUDED.updated_at
        RETURNING user_id, week, year, category, target_reduction_kg, current_progress_kg, tip, created_at, updated_at`

	var saved domain.Goal
	err = tx.QueryRow(ctx, stmt,
		goal.UserID,
		goal.Week,
		goal.Year,
		goal.Category,
		goal.TargetReductionKg,
		goal.CurrentProgressKg,
		goal.Tip,
		goal.CreatedAt,
		goal.UpdatedAt,
	).Scan(&saved.UserID, &saved.Week, &saved.Year, &saved.Category, &saved.TargetReductionKg, &saved.CurrentProgressKg, &saved.Tip, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, err
	}

	err = insertOutbox(ctx, tx, outboxRecord{
		AggregateType: "goal",
		AggregateID:   fmt.Sprintf("%s:%d:%d", saved.UserID, saved.Week, saved.Year),
		EventType:     events.TypeGoalUpdated,
		Topic:         events.GoalTopic,
		PartitionKey:  saved.UserID,
		Payload: events.GoalUpdated{
			UserID:            saved.UserID,
			Week:              saved.Week,
			Year:              saved.Year,
			Category:          string(saved.Category),
			TargetReductionKg: saved.TargetReductionKg,
			CurrentProgressKg: saved.CurrentProgressKg,
			Tip:               saved.Tip,
			UpdatedAt:         saved.UpdatedAt,
		},
	})
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &saved, nil
}

type outboxRecord struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	PartitionKey  string
	Payload       interface{}
}

func insertOutbox(ctx context.Context, tx pgx.Tx, record outboxRecord) error {
	body, err := json.Marshal(record.Payload)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6)`

	_, err = tx.Exec(ctx, stmt,
		record.AggregateType,
		record.AggregateID,
		record.EventType,
		record.Topic,
		record.PartitionKey,
		body,
	)
	return err
}

// goalRepository adapts Repository to the domain.GoalRepository interface.
type goalRepository struct{ *Repository }

func (g goalRepository) Find(ctx context.Context, userID string, week, year int) (*domain.Goal, error) {
	return g.FindGoal(ctx, userID, week, year)
}

func (g goalRepository) Upsert(ctx context.Context, goal domain.Goal) (*domain.Goal, error) {
	return g.UpsertGoal(ctx, goal)
}

// Goals returns the repository viewed as a domain.GoalRepository.
func (r *Repository) Goals() domain.GoalRepository {
	return goalRepository{r}
}

// UserTotals reads the incrementally maintained per-user emission sums.
// Users whose totals have been backed out to zero are treated as inactive
// and excluded, matching the "users with at least one record" contract.
func (r *Repository) UserTotals(ctx context.Context) ([]domain.UserTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, total_kg FROM user_emission_totals WHERE total_kg > 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]domain.UserTotal, 0)
	for rows.Next() {
		var total domain.UserTotal
		if err := rows.Scan(&total.UserID, &total.TotalKg); err != nil {
			return nil, err
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

// ApplyEmissionDelta adjusts a user's running total, clamping at zero so a
// backed-out delete can never drive the projection negative. The delta is
// recorded under its event ID in the same transaction: Kafka redelivers
// after a consumer crash, and a delta already applied must not be applied
// again. An empty eventID (a producer predating the header) skips dedupe.
func (r *Repository) ApplyEmissionDelta(ctx context.Context, eventID, userID string, deltaKg float64, at time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if eventID != "" {
		tag, markErr := tx.Exec(ctx,
			`INSERT INTO applied_events (event_id) VALUES ($1) ON CONFLICT (event_id) DO NOTHING`,
			eventID)
		if markErr != nil {
			err = markErr
			return err
		}
		if tag.RowsAffected() == 0 {
			// Redelivery of an event that already hit the projection.
			return tx.Commit(ctx)
		}
	}

	const stmt = `INSERT INTO user_emission_totals (user_id, total_kg, updated_at)
        VALUES ($1, GREATEST($2, 0), $3)
        ON CONFLICT (user_id) DO UPDATE SET
            total_kg = GREATEST(user_emission_totals.total_kg + $2, 0),
            updated_at = $3`

	if _, err = tx.Exec(ctx, stmt, userID, deltaKg, at); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
