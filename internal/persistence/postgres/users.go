package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/tshegofatsoseane/footprint-logger-fullstack/internal/domain"
)

const userColumns = `user_id, username, email, password_hash, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// CreateUser persists a new account.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) error {
	const stmt = `INSERT INTO users (user_id, username, email, password_hash, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, stmt, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	return err
}

// GetUser fetches an account by ID, nil when absent.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id=$1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail fetches an account by email, nil when absent.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByUsernameOrEmail checks registration collisions.
func (r *Repository) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username=$1 OR email=$2`
	user, err := scanUser(r.pool.QueryRow(ctx, query, username, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ResolveUsername maps a user ID to its display name.
func (r *Repository) ResolveUsername(ctx context.Context, userID string) (string, error) {
	var username string
	err := r.pool.QueryRow(ctx, `SELECT username FROM users WHERE user_id=$1`, userID).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrUserNotFound
		}
		return "", err
	}
	return username, nil
}

// userRepository adapts Repository to the domain.UserRepository interface.
type userRepository struct{ *Repository }

func (u userRepository) Create(ctx context.Context, user domain.User) error {
	return u.CreateUser(ctx, user)
}

func (u userRepository) Get(ctx context.Context, userID string) (*domain.User, error) {
	return u.GetUser(ctx, userID)
}

func (u userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.FindUserByEmail(ctx, email)
}

func (u userRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	return u.FindUserByUsernameOrEmail(ctx, username, email)
}

// Users returns the repository viewed as a domain.UserRepository.
func (r *Repository) Users() domain.UserRepository {
	return userRepository{r}
}
