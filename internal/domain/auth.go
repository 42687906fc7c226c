package domain

// Authentication stores locally managed credentials.
type Authentication struct {
	ID           int64
	Email        string
	PasswordHash string
	UserID       *int64
}
