package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-platform/support-api/internal/domain"
)

func newUserService(users *memUsers) *UserService {
	return NewUserService(UserDependencies{
		UserRepo: users,
		RoleRepo: memRoles{
			1: {ID: 1, Name: "USER"},
			2: {ID: 2, Name: "AGENT"},
			3: {ID: 3, Name: "ADMIN"},
		},
		UserStatusRepo: memUserStatuses{
			1: {ID: 1, Name: "ACTIVE"},
			2: {ID: 2, Name: "SUSPENDED"},
			3: {ID: 3, Name: "DELETED"},
		},
		DeletedStatusID: 3,
	})
}

func TestUserService_CreateAndGet(t *testing.T) {
	svc := newUserService(newMemUsers())
	ctx := context.Background()

	created, err := svc.Create(ctx, UserCreateInput{Name: " Ana ", RoleID: int64p(2), StatusID: int64p(1)})
	require.NoError(t, err)
	assert.Equal(t, "Ana", created.Name)
	assert.Equal(t, "AGENT", created.Role.Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, 404)
	assertStatus(t, err, http.StatusNotFound)

	_, err = svc.Create(ctx, UserCreateInput{Name: ""})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = svc.Create(ctx, UserCreateInput{Name: "x", RoleID: int64p(99)})
	assertStatus(t, err, http.StatusNotFound)
}

func TestUserService_DeleteIsLogical(t *testing.T) {
	users := newMemUsers(domain.User{ID: 1, Name: "Ana", Status: &domain.UserStatus{ID: 1, Name: "ACTIVE"}})
	svc := newUserService(users)

	deleted, err := svc.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "DELETED", deleted.Status.Name)

	stored, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.Status.ID)

	_, err = svc.Delete(context.Background(), 2)
	assertStatus(t, err, http.StatusNotFound)
}

func TestUserService_AssignRoleAndStatus(t *testing.T) {
	users := newMemUsers(domain.User{ID: 1, Name: "Ana"})
	svc := newUserService(users)
	ctx := context.Background()

	user, err := svc.AssignRole(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", user.Role.Name)

	user, err = svc.SetStatus(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "SUSPENDED", user.Status.Name)

	_, err = svc.AssignRole(ctx, 1, 9)
	assertStatus(t, err, http.StatusNotFound)
	_, err = svc.SetStatus(ctx, 9, 1)
	assertStatus(t, err, http.StatusNotFound)
	_, err = svc.SetStatus(ctx, 1, 9)
	assertStatus(t, err, http.StatusNotFound)
}

func TestUserService_UpdateName(t *testing.T) {
	svc := newUserService(newMemUsers(domain.User{ID: 1, Name: "Ana"}))

	user, err := svc.UpdateName(context.Background(), 1, "Ana María")
	require.NoError(t, err)
	assert.Equal(t, "Ana María", user.Name)

	_, err = svc.UpdateName(context.Background(), 1, " ")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestUserService_FindByExternalID(t *testing.T) {
	external := uuid.New()
	svc := newUserService(newMemUsers(domain.User{ID: 1, Name: "Ana", ExternalAuthID: &external}))

	user, err := svc.FindByExternalID(context.Background(), external)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(1), user.ID)

	missing, err := svc.FindByExternalID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
