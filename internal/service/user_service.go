package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/helpdesk-platform/support-api/internal/domain"
	"github.com/helpdesk-platform/support-api/internal/repository"
	apperrors "github.com/helpdesk-platform/support-api/pkg/util/errorutil"
)

// UserService manages internal accounts.
type UserService struct {
	users           repository.UserRepository
	roles           repository.RoleRepository
	userStatuses    repository.UserStatusRepository
	deletedStatusID int64
}

// UserDependencies bundles repositories for the user service.
type UserDependencies struct {
	UserRepo        repository.UserRepository
	RoleRepo        repository.RoleRepository
	UserStatusRepo  repository.UserStatusRepository
	DeletedStatusID int64
}

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Name           string
	RoleID         *int64
	StatusID       *int64
	ExternalAuthID *uuid.UUID
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:           deps.UserRepo,
		roles:           deps.RoleRepo,
		userStatuses:    deps.UserStatusRepo,
		deletedStatusID: deps.DeletedStatusID,
	}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", map[string]any{"userId": id})
	}
	return user, err
}

// FindByExternalID returns the account linked to an identity provider
// subject, or nil when none is linked.
func (s *UserService) FindByExternalID(ctx context.Context, externalID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByExternalAuthID(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// Create stores a new account. Referenced role and status must exist.
func (s *UserService) Create(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	user, err := s.build(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// build validates input and resolves its references without storing anything.
func (s *UserService) build(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	user := &domain.User{Name: name, ExternalAuthID: input.ExternalAuthID}
	if input.RoleID != nil {
		role, err := s.role(ctx, *input.RoleID)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}
	if input.StatusID != nil {
		status, err := s.status(ctx, *input.StatusID)
		if err != nil {
			return nil, err
		}
		user.Status = status
	}
	return user, nil
}

// UpdateName renames an account.
func (s *UserService) UpdateName(ctx context.Context, id int64, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	return s.save(ctx, user)
}

// Delete marks the account with the deleted status. Rows are never removed.
func (s *UserService) Delete(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := s.userStatuses.GetByID(ctx, s.deletedStatusID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(errors.New("deleted user status is not configured"))
		}
		return nil, err
	}
	user.Status = status
	return s.save(ctx, user)
}

func (s *UserService) AssignRole(ctx context.Context, id, roleID int64) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := s.role(ctx, roleID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	return s.save(ctx, user)
}

func (s *UserService) SetStatus(ctx context.Context, id, statusID int64) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := s.status(ctx, statusID)
	if err != nil {
		return nil, err
	}
	user.Status = status
	return s.save(ctx, user)
}

func (s *UserService) save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"userId": user.ID})
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) role(ctx context.Context, id int64) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("role", map[string]any{"roleId": id})
	}
	return role, err
}

func (s *UserService) status(ctx context.Context, id int64) (*domain.UserStatus, error) {
	status, err := s.userStatuses.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user status", map[string]any{"statusId": id})
	}
	return status, err
}
