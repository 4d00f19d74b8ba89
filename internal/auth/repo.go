package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicely/invoicely/internal/shared"
)

const uniqueViolation = "23505"

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, email, passwordHash string) (*User, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, password_hash, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return user, nil
}

// CreateUser inserts an active user. A duplicate email yields shared.ErrEmailTaken.
func (r *PGRepository) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, is_active, created_at, updated_at)
		 VALUES ($1, $2, TRUE, NOW(), NOW())
		 RETURNING `+userColumns, email, passwordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, shared.ErrEmailTaken
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}

// CreateSession persists a login session for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_sessions (id, user_id, created_at, expires_at, ip, user_agent)
		 VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))
		 ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`,
		id, userID, expiresAt.UTC(), ip, ua)
	if err != nil {
		return fmt.Errorf("auth: create session: %w", err)
	}
	return nil
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
