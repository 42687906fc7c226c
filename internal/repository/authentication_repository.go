package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-platform/support-api/internal/domain"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

const uniqueViolation = "23505"

// AuthenticationRepository stores locally managed credentials.
type AuthenticationRepository interface {
	Create(ctx context.Context, auth *domain.Authentication) error
	// Register inserts the user and its credentials atomically and links them.
	Register(ctx context.Context, user *domain.User, auth *domain.Authentication) error
	GetByEmail(ctx context.Context, email string) (*domain.Authentication, error)
}

type authenticationRepository struct {
	pool *pgxpool.Pool
}

// NewAuthenticationRepository returns a Postgres-backed implementation.
func NewAuthenticationRepository(pool *pgxpool.Pool) AuthenticationRepository {
	return &authenticationRepository{pool: pool}
}

func (r *authenticationRepository) Create(ctx context.Context, auth *domain.Authentication) error {
	return insertAuthentication(ctx, r.pool, auth)
}

func (r *authenticationRepository) Register(ctx context.Context, user *domain.User, auth *domain.Authentication) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin register: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := insertUser(ctx, tx, user); err != nil {
		return err
	}
	auth.UserID = &user.ID
	if err := insertAuthentication(ctx, tx, auth); err != nil {
		auth.UserID = nil
		return err
	}
	return tx.Commit(ctx)
}

func insertAuthentication(ctx context.Context, q rowQuerier, auth *domain.Authentication) error {
	const query = `
        INSERT INTO authentications (email, password_hash, user_id)
        VALUES (LOWER($1), $2, $3)
        RETURNING id`
	err := q.QueryRow(ctx, query, auth.Email, auth.PasswordHash, auth.UserID).Scan(&auth.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func (r *authenticationRepository) GetByEmail(ctx context.Context, email string) (*domain.Authentication, error) {
	const query = `
        SELECT id, email, password_hash, user_id
        FROM authentications WHERE email=LOWER($1)`

	var auth domain.Authentication
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&auth.ID,
		&auth.Email,
		&auth.PasswordHash,
		&auth.UserID,
	); err != nil {
		return nil, notFound(err)
	}
	return &auth, nil
}
