//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/domain"
)

func startPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("footprint"),
		postgrescontainer.WithUsername("footprint"),
		postgrescontainer.WithPassword("footprint"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestRepositoryActivityLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	require.NoError(t, repo.CreateUser(ctx, domain.User{
		ID:           userID,
		Username:     "thandi",
		Email:        "thandi@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}))

	occurredAt := time.Date(2025, time.July, 10, 12, 0, 0, 0, time.UTC)
	week, year := domain.WeekOf(occurredAt)
	activity := domain.Activity{
		ID:           uuid.NewString(),
		UserID:       userID,
		Category:     domain.CategoryFood,
		ActivityKey:  "Beef",
		ActivityText: "Beef",
		CO2Kg:        27,
		OccurredAt:   occurredAt,
		Week:         week,
		Year:         year,
	}
	require.NoError(t, repo.Create(ctx, activity))

	// The write and its event land in one transaction.
	var outboxCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id=$1 AND event_type='activity.logged'`,
		activity.ID).Scan(&outboxCount))
	require.Equal(t, 1, outboxCount)

	found, err := repo.Find(ctx, domain.ActivityFilter{UserID: userID, Week: week, Year: year})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, activity.ID, found[0].ID)
	require.InDelta(t, 27, found[0].CO2Kg, 1e-9)

	none, err := repo.Find(ctx, domain.ActivityFilter{UserID: userID, Category: domain.CategoryTransport})
	require.NoError(t, err)
	require.Empty(t, none)

	count, err := repo.Count(ctx, domain.ActivityFilter{UserID: userID})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	totals, err := repo.Totals(ctx, domain.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	require.InDelta(t, 27, totals[0].TotalKg, 1e-9)

	require.NoError(t, repo.Delete(ctx, userID, activity.ID))
	err = repo.Delete(ctx, userID, activity.ID)
	require.ErrorIs(t, err, domain.ErrActivityNotFound)

	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id=$1 AND event_type='activity.deleted'`,
		activity.ID).Scan(&outboxCount))
	require.Equal(t, 1, outboxCount)
}

func TestRepositoryGoalUpsert(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)

	first, err := repo.UpsertGoal(ctx, domain.Goal{
		UserID:            userID,
		Week:              28,
		Year:              2025,
		Category:          domain.CategoryFood,
		TargetReductionKg: 2.7,
		Tip:               "first tip",
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	require.NoError(t, err)
	require.InDelta(t, 2.7, first.TargetReductionKg, 1e-9)

	// Same key: row is replaced, not duplicated.
	second, err := repo.UpsertGoal(ctx, domain.Goal{
		UserID:            userID,
		Week:              28,
		Year:              2025,
		Category:          domain.CategoryTransport,
		TargetReductionKg: 1.2,
		CurrentProgressKg: 0.5,
		Tip:               "second tip",
		CreatedAt:         now,
		UpdatedAt:         now.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, domain.CategoryTransport, second.Category)

	var rows int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM goals WHERE user_id=$1`, userID).Scan(&rows))
	require.Equal(t, 1, rows)

	stored, err := repo.FindGoal(ctx, userID, 28, 2025)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.InDelta(t, 0.5, stored.CurrentProgressKg, 1e-9)

	missing, err := repo.FindGoal(ctx, userID, 29, 2025)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestRepositoryEmissionTotalsProjection(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	now := time.Now().UTC()

	require.NoError(t, repo.ApplyEmissionDelta(ctx, "evt-1", userID, 27, now))
	require.NoError(t, repo.ApplyEmissionDelta(ctx, "evt-2", userID, 6, now))

	totals, err := repo.UserTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	require.InDelta(t, 33, totals[0].TotalKg, 1e-9)

	// Over-corrections clamp at zero and drop the user from the ranking.
	require.NoError(t, repo.ApplyEmissionDelta(ctx, "evt-3", userID, -100, now))
	totals, err = repo.UserTotals(ctx)
	require.NoError(t, err)
	require.Empty(t, totals)
}

func TestRepositoryEmissionDeltaIsIdempotentPerEvent(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	now := time.Now().UTC()

	// Kafka redelivers after a crash between handling and offset commit;
	// the same event applied twice must count once.
	require.NoError(t, repo.ApplyEmissionDelta(ctx, "evt-9", userID, 27, now))
	require.NoError(t, repo.ApplyEmissionDelta(ctx, "evt-9", userID, 27, now))

	totals, err := repo.UserTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	require.InDelta(t, 27, totals[0].TotalKg, 1e-9)

	var applied int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM applied_events WHERE event_id='evt-9'`).Scan(&applied))
	require.Equal(t, 1, applied)
}

func TestRepositoryUserLookups(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)
	repo := NewRepository(pool)

	userID := uuid.NewString()
	require.NoError(t, repo.CreateUser(ctx, domain.User{
		ID:           userID,
		Username:     "kabelo",
		Email:        "kabelo@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}))

	byEmail, err := repo.FindUserByEmail(ctx, "kabelo@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	require.Equal(t, userID, byEmail.ID)

	collision, err := repo.FindUserByUsernameOrEmail(ctx, "kabelo", "unused@example.com")
	require.NoError(t, err)
	require.NotNil(t, collision)

	name, err := repo.ResolveUsername(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "kabelo", name)

	_, err = repo.ResolveUsername(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	contents, err := os.ReadFile(resolvePath(t, "../../../migrations/0001_init.sql"))
	require.NoError(t, err)

	_, err = pool.Exec(ctx, string(contents))
	require.NoError(t, err)
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
