package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpdesk-platform/support-api/internal/auth"
	"github.com/helpdesk-platform/support-api/internal/config"
	"github.com/helpdesk-platform/support-api/internal/domain"
	"github.com/helpdesk-platform/support-api/internal/identity"
	"github.com/helpdesk-platform/support-api/internal/repository"
	apperrors "github.com/helpdesk-platform/support-api/pkg/util/errorutil"
)

// IdentityProvider is the subset of the identity client the service uses.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*identity.SignupResult, error)
	SignIn(ctx context.Context, email, password string) (json.RawMessage, error)
}

// AuthService coordinates local credential login and the identity provider flows.
type AuthService struct {
	auths      repository.AuthenticationRepository
	users      *UserService
	identity   IdentityProvider
	bcryptCost int
	roleID     int64
	statusID   int64
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	AuthenticationRepo repository.AuthenticationRepository
	Users              *UserService
	Identity           IdentityProvider
	Logger             *zap.Logger
}

// LoginResult is returned by a successful local login.
type LoginResult struct {
	UserID int64
	Name   string
	Role   string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		auths:      deps.AuthenticationRepo,
		users:      deps.Users,
		identity:   deps.Identity,
		bcryptCost: cfg.BcryptCost,
		roleID:     cfg.SignupRoleID,
		statusID:   cfg.SignupUserStatus,
		logger:     logger,
	}
}

// Login checks locally stored credentials and returns the linked account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	credentials, err := s.auths.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(credentials.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if credentials.UserID == nil {
		return nil, apperrors.NewUnauthorized("credentials are not linked to a user")
	}
	user, err := s.users.Get(ctx, *credentials.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("credentials are not linked to a user")
		}
		return nil, err
	}

	result := &LoginResult{UserID: user.ID, Name: user.Name}
	if user.Role != nil {
		result.Role = user.Role.Name
	}
	return result, nil
}

// Register creates a local account with stored credentials.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	if _, err := s.auths.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewValidationError("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = localPart(email)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user, err := s.users.build(ctx, s.defaultAccount(name, nil))
	if err != nil {
		return nil, err
	}
	credentials := &domain.Authentication{Email: email, PasswordHash: hash}
	if err := s.auths.Register(ctx, user, credentials); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewValidationError("email already registered", map[string]any{"email": email})
		}
		return nil, err
	}
	return user, nil
}

// SignUp registers the account with the identity provider and links a new
// local user to the returned subject.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (json.RawMessage, *domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("email and password are required", nil)
	}
	result, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, nil, identityError(err)
	}

	user, err := s.users.Create(ctx, s.defaultAccount(localPart(email), &result.UserID))
	if err != nil {
		s.logger.Error("identity account created but local user failed",
			zap.String("external_id", result.UserID.String()),
			zap.Error(err))
		return nil, nil, err
	}
	return result.Raw, user, nil
}

// SignIn proxies a password grant to the identity provider.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (json.RawMessage, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	session, err := s.identity.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, identityError(err)
	}
	return session, nil
}

func (s *AuthService) defaultAccount(name string, externalID *uuid.UUID) UserCreateInput {
	input := UserCreateInput{Name: name, ExternalAuthID: externalID}
	if s.roleID > 0 {
		roleID := s.roleID
		input.RoleID = &roleID
	}
	if s.statusID > 0 {
		statusID := s.statusID
		input.StatusID = &statusID
	}
	return input
}

func identityError(err error) error {
	var upstream *identity.UpstreamError
	if errors.As(err, &upstream) {
		switch {
		case upstream.Status == http.StatusBadRequest || upstream.Status == http.StatusUnauthorized:
			return apperrors.NewUnauthorized(upstream.Message)
		case upstream.Status < http.StatusInternalServerError:
			return apperrors.NewValidationError(upstream.Message, nil)
		}
	}
	return apperrors.NewBadGateway("identity provider unavailable", err)
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
