package domain

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// memActivities is an in-memory ActivityRepository mirroring the SQL
// repository's filter semantics.
type memActivities struct {
	mu    sync.Mutex
	items []Activity
	err   error
}

func (m *memActivities) Create(_ context.Context, activity Activity) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, activity)
	return nil
}

func (m *memActivities) matches(a Activity, f ActivityFilter) bool {
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.Week > 0 && (a.Week != f.Week || a.Year != f.Year) {
		return false
	}
	if !f.From.IsZero() && a.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !a.OccurredAt.Before(f.To) {
		return false
	}
	return true
}

func (m *memActivities) Find(_ context.Context, filter ActivityFilter) ([]Activity, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Activity
	for _, a := range m.items {
		if m.matches(a, filter) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memActivities) Count(_ context.Context, filter ActivityFilter) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, a := range m.items {
		if m.matches(a, filter) {
			count++
		}
	}
	return count, nil
}

func (m *memActivities) Get(_ context.Context, userID, activityID string) (*Activity, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.UserID == userID && a.ID == activityID {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memActivities) Delete(_ context.Context, userID, activityID string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.items {
		if a.UserID == userID && a.ID == activityID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return ErrActivityNotFound
}

func (m *memActivities) Totals(_ context.Context, filter ActivityFilter) ([]UserTotal, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := make(map[string]float64)
	for _, a := range m.items {
		if m.matches(a, filter) {
			sums[a.UserID] += a.CO2Kg
		}
	}
	totals := make([]UserTotal, 0, len(sums))
	for userID, kg := range sums {
		totals = append(totals, UserTotal{UserID: userID, TotalKg: kg})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].UserID < totals[j].UserID })
	return totals, nil
}

type memGoals struct {
	mu    sync.Mutex
	goals map[string]Goal
	err   error
}

func (m *memGoals) key(userID string, week, year int) string {
	return fmt.Sprintf("%s/%d/%d", userID, week, year)
}

func (m *memGoals) Find(_ context.Context, userID string, week, year int) (*Goal, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	goal, ok := m.goals[m.key(userID, week, year)]
	if !ok {
		return nil, nil
	}
	return &goal, nil
}

func (m *memGoals) Upsert(_ context.Context, goal Goal) (*Goal, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.goals == nil {
		m.goals = make(map[string]Goal)
	}
	m.goals[m.key(goal.UserID, goal.Week, goal.Year)] = goal
	return &goal, nil
}

type memUsers struct {
	mu         sync.Mutex
	users      map[string]User
	resolveErr error
}

func (m *memUsers) Create(_ context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[string]User)
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) Get(_ context.Context, userID string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByUsernameOrEmail(_ context.Context, username, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username || user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memUsers) ResolveUsername(_ context.Context, userID string) (string, error) {
	if m.resolveErr != nil {
		return "", m.resolveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return user.Username, nil
}

type memCommunity struct {
	totals []UserTotal
	err    error
}

func (m *memCommunity) UserTotals(context.Context) ([]UserTotal, error) {
	return m.totals, m.err
}

type notification struct {
	userID  string
	event   string
	payload any
}

type memNotifier struct {
	mu       sync.Mutex
	sent     []notification
	failWith error
}

func (m *memNotifier) Notify(_ context.Context, userID, event string, payload any) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, notification{userID: userID, event: event, payload: payload})
	return nil
}
