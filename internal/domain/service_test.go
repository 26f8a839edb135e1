package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	user, err := f.service.Register(context.Background(), "sipho", "sipho@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.NotEqual(t, "hunter22", user.PasswordHash, "password must be stored hashed")

	_, err = f.service.Register(context.Background(), "sipho", "other@example.com", "pw")
	require.ErrorIs(t, err, ErrUserExists)

	loggedIn, err := f.service.Login(context.Background(), "sipho@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)

	_, err = f.service.Login(context.Background(), "sipho@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.service.Login(context.Background(), "nobody@example.com", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRequiresAllFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(context.Background(), "", "a@example.com", "pw")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogActivityDerivesWeekKey(t *testing.T) {
	f := newFixture(t)

	activity, err := f.service.LogActivity(context.Background(), LogActivityInput{
		UserID:       "u1",
		Category:     CategoryFood,
		ActivityKey:  "beef",
		ActivityText: "Beef",
		CO2Kg:        27,
	})
	require.NoError(t, err)
	require.Equal(t, 28, activity.Week, "zero OccurredAt must fall back to the clock")
	require.Equal(t, 2025, activity.Year)
	require.Equal(t, fixedNow, activity.OccurredAt)
	require.NotEmpty(t, activity.ID)

	explicit, err := f.service.LogActivity(context.Background(), LogActivityInput{
		UserID:     "u1",
		Category:   CategoryTransport,
		CO2Kg:      0.15,
		OccurredAt: time.Date(2025, time.January, 3, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, 1, explicit.Week)
	require.Equal(t, 2025, explicit.Year)
}

func TestLogActivityRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.LogActivity(context.Background(), LogActivityInput{UserID: "u1", Category: "aviation", CO2Kg: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.service.LogActivity(context.Background(), LogActivityInput{UserID: "u1", Category: CategoryFood, CO2Kg: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestListActivitiesPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		f.addActivity(t, "u1", CategoryFood, 1, fixedNow.Add(-time.Duration(i)*time.Hour))
	}
	f.addActivity(t, "someone-else", CategoryFood, 1, fixedNow)

	page, err := f.service.ListActivities(context.Background(), "u1", "", 2, 5)
	require.NoError(t, err)
	require.Equal(t, 12, page.Total)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 2, page.Page)
	require.Len(t, page.Activities, 5)
	// Newest first: page two starts five hours back.
	require.Equal(t, fixedNow.Add(-5*time.Hour), page.Activities[0].OccurredAt)

	_, err = f.service.ListActivities(context.Background(), "u1", "aviation", 1, 5)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteActivity(t *testing.T) {
	f := newFixture(t)
	f.addActivity(t, "u1", CategoryFood, 6, fixedNow)
	id := f.activities.items[0].ID

	require.NoError(t, f.service.DeleteActivity(context.Background(), "u1", id))
	require.Empty(t, f.activities.items)

	err := f.service.DeleteActivity(context.Background(), "u1", id)
	require.ErrorIs(t, err, ErrActivityNotFound)
}

func TestDeleteActivityEnforcesOwnership(t *testing.T) {
	f := newFixture(t)
	f.addActivity(t, "owner", CategoryFood, 6, fixedNow)
	id := f.activities.items[0].ID

	err := f.service.DeleteActivity(context.Background(), "intruder", id)
	require.ErrorIs(t, err, ErrActivityNotFound, "other users' records must look like they do not exist")
	require.Len(t, f.activities.items, 1)
}

func TestGetDashboard(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 15; i++ {
		f.addActivity(t, "u1", CategoryEnergy, 2, fixedNow.Add(-time.Duration(i)*24*time.Hour))
	}
	f.community.totals = []UserTotal{
		{UserID: "u1", TotalKg: 30},
		{UserID: "u2", TotalKg: 10},
	}

	dashboard, err := f.service.GetDashboard(context.Background(), "u1")
	require.NoError(t, err)
	require.InDelta(t, 30, dashboard.Total, 1e-9)
	require.Len(t, dashboard.RecentActivities, 10, "recent list is capped at ten records")
	require.Equal(t, fixedNow, dashboard.RecentActivities[0].OccurredAt)
	require.Equal(t, 2, dashboard.Community.Rank)
	require.Equal(t, 2, dashboard.Community.TotalUsers)
	require.InDelta(t, 20, dashboard.Community.Average, 1e-9)
}

func TestGetStreakUsesCurrentYearOnly(t *testing.T) {
	f := newFixture(t)
	// Two recent weeks under threshold, plus old-year noise that must not count.
	f.addActivity(t, "u1", CategoryEnergy, 50, time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC))
	f.addActivity(t, "u1", CategoryEnergy, 50, fixedNow)
	f.addActivity(t, "u1", CategoryEnergy, 500, time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC))

	report, err := f.service.GetStreak(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 2, report.Current)
	require.Equal(t, 2, report.Longest)
	require.InDelta(t, DefaultStreakThreshold, report.Threshold, 1e-9)
}

func TestGetLeaderboard(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Create(context.Background(), User{ID: "u1", Username: "thandi"}))
	require.NoError(t, f.users.Create(context.Background(), User{ID: "u2", Username: "kabelo"}))
	f.addActivity(t, "u1", CategoryFood, 6, fixedNow)
	f.addActivity(t, "u2", CategoryFood, 27, fixedNow)
	f.addActivity(t, "ghost", CategoryFood, 1, fixedNow)

	entries, err := f.service.GetLeaderboard(context.Background(), PeriodAll, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Ascending by emissions, ranks contiguous from 1.
	require.Equal(t, 1, entries[0].Rank)
	require.Equal(t, "Unknown User", entries[0].Username, "deleted accounts keep a placeholder entry")
	require.Equal(t, "thandi", entries[1].Username)
	require.Equal(t, "kabelo", entries[2].Username)
	require.Equal(t, 3, entries[2].Rank)
}

func TestGetLeaderboardWeekPeriodFilters(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.users.Create(context.Background(), User{ID: "u1", Username: "thandi"}))
	f.addActivity(t, "u1", CategoryFood, 6, fixedNow)
	f.addActivity(t, "u1", CategoryFood, 100, fixedNow.AddDate(0, 0, -21))

	entries, err := f.service.GetLeaderboard(context.Background(), PeriodWeek, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.InDelta(t, 6, entries[0].TotalEmissions, 1e-9)
}

func TestGetLeaderboardRejectsUnknownPeriod(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.GetLeaderboard(context.Background(), "decade", 10)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetLeaderboardDropsEntriesOnLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.users.resolveErr = errors.New("connection reset")
	f.addActivity(t, "u1", CategoryFood, 6, fixedNow)

	entries, err := f.service.GetLeaderboard(context.Background(), PeriodAll, 10)
	require.NoError(t, err, "a failing row is dropped, never the whole board")
	require.Empty(t, entries)
}
