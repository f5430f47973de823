// Package places manages the directory of view addresses, named physical
// spots with a map position.
package places

import "errors"

// MaxPageSize caps listing page sizes.
const MaxPageSize = 20

// Address is one named spot.
type Address struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

var (
	ErrAddressNotFound = errors.New("places: address not found")
	ErrAddressExists   = errors.New("places: address name already taken")
)
