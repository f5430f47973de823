// Package users implements account lifecycle: signup, login, profile
// management, password reset and the admin user surface.
package users

import (
	"errors"
	"time"
)

// User is a forum account. Name and email are unique among activated
// accounts; deactivated rows free their name and address for reuse.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Avatar       *string    `json:"avatar,omitempty"`
	Signature    *string    `json:"signature,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	LastIP       *string    `json:"last_ip,omitempty"`
	Activated    bool       `json:"activated"`
}

var (
	ErrUserNotFound = errors.New("users: user not found")
	ErrNameTaken    = errors.New("users: name already taken")
	ErrEmailTaken   = errors.New("users: email already taken")
)

// SearchFilter is one predicate of an admin search. Field names a user
// column; Value matches as a case-insensitive substring.
type SearchFilter struct {
	Field string `json:"field" validate:"required,oneof=name email signature"`
	Value string `json:"value" validate:"required,max=100"`
}

// SearchQuery combines filters with a single combinator, optionally
// restricted to members of one group.
type SearchQuery struct {
	Combinator string         `json:"combinator" validate:"required,oneof=and or"`
	Filters    []SearchFilter `json:"filters" validate:"required,min=1,max=10,dive"`
	GroupID    *int64         `json:"group_id" validate:"omitempty,gt=0"`
}
