package models

import (
	"time"
)

const (
	RoleAdministrator = "Administrator"
	RoleUser          = "User"
)

// User represents the user_accounts table in the database.
type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"fullName,omitempty"`
	UserName     string    `json:"userName"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
