// Package threads manages content buckets and the threshold-based
// visibility rules attached to them.
package threads

import "errors"

// Thread is a content bucket users may browse when they satisfy all of its
// access requirements.
type Thread struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// AccessRequirement states that a principal must hold at least MinCount of
// the item to see the thread. All requirements of a thread must hold.
type AccessRequirement struct {
	ID       int64 `json:"id"`
	ThreadID int64 `json:"thread_id"`
	ItemID   int64 `json:"item_id"`
	MinCount int64 `json:"min_count"`
}

var (
	// ErrThreadNotFound indicates the referenced thread does not exist.
	ErrThreadNotFound = errors.New("threads: thread not found")
	// ErrThreadExists indicates a thread title collision.
	ErrThreadExists = errors.New("threads: thread already exists")
	// ErrRequirementNotFound indicates the referenced requirement row is gone.
	ErrRequirementNotFound = errors.New("threads: requirement not found")
)
