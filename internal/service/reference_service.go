package service

import (
	"context"
	"errors"

	"github.com/helpdesk-platform/support-api/internal/domain"
	"github.com/helpdesk-platform/support-api/internal/repository"
	apperrors "github.com/helpdesk-platform/support-api/pkg/util/errorutil"
)

// StatusCachePurger drops cached ticket statuses.
type StatusCachePurger interface {
	Purge(ctx context.Context) error
}

// ReferenceService serves roles and ticket statuses.
type ReferenceService struct {
	roles    repository.RoleRepository
	statuses repository.TicketStatusRepository
	catalog  *StatusCatalog
	cache    StatusCachePurger
}

// NewReferenceService builds the service. cache may be nil.
func NewReferenceService(roles repository.RoleRepository, statuses repository.TicketStatusRepository, catalog *StatusCatalog, cache StatusCachePurger) *ReferenceService {
	return &ReferenceService{roles: roles, statuses: statuses, catalog: catalog, cache: cache}
}

func (s *ReferenceService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	return roles, nil
}

func (s *ReferenceService) GetRole(ctx context.Context, id int64) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("role", map[string]any{"roleId": id})
	}
	return role, err
}

func (s *ReferenceService) ListTicketStatuses(ctx context.Context) ([]domain.TicketStatus, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, err
	}
	if statuses == nil {
		statuses = []domain.TicketStatus{}
	}
	return statuses, nil
}

func (s *ReferenceService) GetTicketStatus(ctx context.Context, id int64) (*domain.TicketStatus, error) {
	status, err := s.statuses.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("ticket status", map[string]any{"statusId": id})
	}
	return status, err
}

// CatalogSnapshot reports the statuses the lifecycle currently targets.
type CatalogSnapshot struct {
	Pending    *domain.TicketStatus
	InProgress *domain.TicketStatus
	Answered   *domain.TicketStatus
}

// RefreshStatuses clears the status cache and re-resolves the catalog.
func (s *ReferenceService) RefreshStatuses(ctx context.Context) (*CatalogSnapshot, error) {
	if s.cache != nil {
		if err := s.cache.Purge(ctx); err != nil {
			return nil, err
		}
	}
	if err := s.catalog.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// Snapshot returns the catalog state.
func (s *ReferenceService) Snapshot() *CatalogSnapshot {
	snapshot := &CatalogSnapshot{}
	if st, ok := s.catalog.Pending(); ok {
		snapshot.Pending = &st
	}
	if st, ok := s.catalog.InProgress(); ok {
		snapshot.InProgress = &st
	}
	if st, ok := s.catalog.Answered(); ok {
		snapshot.Answered = &st
	}
	return snapshot
}
