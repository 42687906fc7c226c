package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a row of the role reference table.
type Role struct {
	ID   int64
	Name string
}

// UserStatus is a row of the user status reference table.
type UserStatus struct {
	ID   int64
	Name string
}

// User is an internal account. Agents are users assigned to tickets.
// ExternalAuthID links the account to the identity provider subject.
type User struct {
	ID             int64
	Name           string
	Role           *Role
	Status         *UserStatus
	ExternalAuthID *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
