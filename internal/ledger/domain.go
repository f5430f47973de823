// Package ledger tracks fungible items and how many units of each a user
// holds. Grant counts are the unit of access thresholding for thread
// visibility.
package ledger

import "errors"

// Item is a fungible unit type: permission token, currency, badge.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// Holding pairs an item with the count a user holds.
type Holding struct {
	Item  Item  `json:"item"`
	Count int64 `json:"count"`
}

var (
	// ErrItemNotFound indicates the referenced item does not exist.
	ErrItemNotFound = errors.New("ledger: item not found")
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("ledger: user not found")
	// ErrItemExists indicates an item name collision.
	ErrItemExists = errors.New("ledger: item already exists")
)
