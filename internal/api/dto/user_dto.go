package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/helpdesk-platform/support-api/internal/domain"
)

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name           string     `json:"name"`
	RoleID         *int64     `json:"roleId"`
	StatusID       *int64     `json:"statusId"`
	ExternalAuthID *uuid.UUID `json:"externalAuthId"`
}

// UpdateUserRequest payload. Only the name is mutable here.
type UpdateUserRequest struct {
	Name string `json:"name"`
}

// ReferenceResponse is an {id, name} reference row.
type ReferenceResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserResponse is the user representation.
type UserResponse struct {
	ID             int64              `json:"id"`
	Name           string             `json:"name"`
	Role           *ReferenceResponse `json:"role"`
	Status         *ReferenceResponse `json:"status"`
	ExternalAuthID *uuid.UUID         `json:"externalAuthId,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// NewUserResponse maps the domain user.
func NewUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:             user.ID,
		Name:           user.Name,
		ExternalAuthID: user.ExternalAuthID,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
	if user.Role != nil {
		resp.Role = &ReferenceResponse{ID: user.Role.ID, Name: user.Role.Name}
	}
	if user.Status != nil {
		resp.Status = &ReferenceResponse{ID: user.Status.ID, Name: user.Status.Name}
	}
	return resp
}

// NewUserResponses maps a listing.
func NewUserResponses(users []domain.User) []UserResponse {
	items := make([]UserResponse, 0, len(users))
	for i := range users {
		items = append(items, NewUserResponse(&users[i]))
	}
	return items
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	Subject     string        `json:"sub"`
	Email       string        `json:"email,omitempty"`
	Authorities []string      `json:"authorities"`
	User        *UserResponse `json:"user"`
}
