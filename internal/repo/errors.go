// Package repo holds the storage errors shared by the memory and mongo
// repositories.
package repo

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidID    = errors.New("invalid id format")
)
