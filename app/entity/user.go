package entity

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User joins a profiles row with its user_roles row.
type User struct {
	ID           string
	Email        string
	FullName     *string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
