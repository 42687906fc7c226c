package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-platform/support-api/internal/domain"
)

// UserRepository defines persistence access for internal users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByExternalAuthID(ctx context.Context, externalID uuid.UUID) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userSelect = `
        SELECT u.id, u.name, u.role_id, r.name, u.user_status_id, us.name, u.external_auth_id,
               u.created_at, u.updated_at
        FROM users u
        LEFT JOIN roles r ON r.id = u.role_id
        LEFT JOIN user_statuses us ON us.id = u.user_status_id`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return insertUser(ctx, r.pool, user)
}

// rowQuerier is satisfied by both the pool and an open transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertUser(ctx context.Context, q rowQuerier, user *domain.User) error {
	const query = `
        INSERT INTO users (name, role_id, user_status_id, external_auth_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return q.QueryRow(ctx, query,
		user.Name,
		roleID(user),
		statusID(user),
		externalID(user),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, role_id=$2, user_status_id=$3, external_auth_id=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		roleID(user),
		statusID(user),
		externalID(user),
		user.ID,
	).Scan(&user.UpdatedAt)
	return notFound(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE u.id=$1`, id)
}

func (r *userRepository) GetByExternalAuthID(ctx context.Context, externalID uuid.UUID) (*domain.User, error) {
	return r.fetchSingle(ctx, userSelect+` WHERE u.external_auth_id=$1`, pgtype.UUID{Bytes: externalID, Valid: true})
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, userSelect+` ORDER BY u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user       domain.User
		roleID     *int64
		roleName   *string
		statusID   *int64
		statusName *string
		external   pgtype.UUID
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&roleID,
		&roleName,
		&statusID,
		&statusName,
		&external,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if roleID != nil {
		user.Role = &domain.Role{ID: *roleID, Name: deref(roleName)}
	}
	if statusID != nil {
		user.Status = &domain.UserStatus{ID: *statusID, Name: deref(statusName)}
	}
	if external.Valid {
		id := uuid.UUID(external.Bytes)
		user.ExternalAuthID = &id
	}
	return &user, nil
}

func roleID(user *domain.User) *int64 {
	if user.Role == nil {
		return nil
	}
	return &user.Role.ID
}

func statusID(user *domain.User) *int64 {
	if user.Status == nil {
		return nil
	}
	return &user.Status.ID
}

func externalID(user *domain.User) pgtype.UUID {
	if user.ExternalAuthID == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *user.ExternalAuthID, Valid: true}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
