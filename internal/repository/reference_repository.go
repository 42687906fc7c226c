package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdesk-platform/support-api/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// RoleRepository reads the role reference table.
type RoleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
}

// UserStatusRepository reads the user status reference table.
type UserStatusRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.UserStatus, error)
	List(ctx context.Context) ([]domain.UserStatus, error)
}

// TicketStatusRepository reads the ticket status reference table.
type TicketStatusRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.TicketStatus, error)
	GetByName(ctx context.Context, name string) (*domain.TicketStatus, error)
	List(ctx context.Context) ([]domain.TicketStatus, error)
}

// referenceTable serves the {id, name} tables.
type referenceTable struct {
	pool  *pgxpool.Pool
	table string
}

type referenceRow struct {
	id   int64
	name string
}

func (t referenceTable) get(ctx context.Context, id int64) (referenceRow, error) {
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE id=$1`, t.table)
	return t.single(ctx, query, id)
}

func (t referenceTable) getByName(ctx context.Context, name string) (referenceRow, error) {
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE UPPER(name)=UPPER($1) ORDER BY id LIMIT 1`, t.table)
	return t.single(ctx, query, name)
}

func (t referenceTable) single(ctx context.Context, query string, arg any) (referenceRow, error) {
	var row referenceRow
	if err := t.pool.QueryRow(ctx, query, arg).Scan(&row.id, &row.name); err != nil {
		return referenceRow{}, notFound(err)
	}
	return row, nil
}

func (t referenceTable) list(ctx context.Context) ([]referenceRow, error) {
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id`, t.table)
	rows, err := t.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []referenceRow
	for rows.Next() {
		var row referenceRow
		if err := rows.Scan(&row.id, &row.name); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

type roleRepository struct{ referenceTable }

// NewRoleRepository returns a Postgres-backed implementation.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{referenceTable{pool: pool, table: "roles"}}
}

func (r *roleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	row, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.Role{ID: row.id, Name: row.name}, nil
}

func (r *roleRepository) List(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Role, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Role{ID: row.id, Name: row.name})
	}
	return result, nil
}

type userStatusRepository struct{ referenceTable }

// NewUserStatusRepository returns a Postgres-backed implementation.
func NewUserStatusRepository(pool *pgxpool.Pool) UserStatusRepository {
	return &userStatusRepository{referenceTable{pool: pool, table: "user_statuses"}}
}

func (r *userStatusRepository) GetByID(ctx context.Context, id int64) (*domain.UserStatus, error) {
	row, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.UserStatus{ID: row.id, Name: row.name}, nil
}

func (r *userStatusRepository) List(ctx context.Context) ([]domain.UserStatus, error) {
	rows, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.UserStatus, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.UserStatus{ID: row.id, Name: row.name})
	}
	return result, nil
}

type ticketStatusRepository struct{ referenceTable }

// NewTicketStatusRepository returns a Postgres-backed implementation.
func NewTicketStatusRepository(pool *pgxpool.Pool) TicketStatusRepository {
	return &ticketStatusRepository{referenceTable{pool: pool, table: "ticket_statuses"}}
}

func (r *ticketStatusRepository) GetByID(ctx context.Context, id int64) (*domain.TicketStatus, error) {
	row, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.TicketStatus{ID: row.id, Name: row.name}, nil
}

func (r *ticketStatusRepository) GetByName(ctx context.Context, name string) (*domain.TicketStatus, error) {
	row, err := r.getByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return &domain.TicketStatus{ID: row.id, Name: row.name}, nil
}

func (r *ticketStatusRepository) List(ctx context.Context) ([]domain.TicketStatus, error) {
	rows, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.TicketStatus, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.TicketStatus{ID: row.id, Name: row.name})
	}
	return result, nil
}

// notFound translates pgx's empty-result error into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
