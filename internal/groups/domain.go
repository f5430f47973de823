// Package groups manages named user groups and their membership, including
// the administrator group that gates the admin API.
package groups

import (
	"errors"
	"time"
)

// Group is a named collection of users.
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Membership links a user to a group.
type Membership struct {
	GroupID int64 `json:"group_id"`
	UserID  int64 `json:"user_id"`
}

var (
	ErrGroupNotFound  = errors.New("groups: group not found")
	ErrGroupExists    = errors.New("groups: group name already taken")
	ErrMemberExists   = errors.New("groups: user already in group")
	ErrMemberNotFound = errors.New("groups: user not in group")
)
