// Package store persists the single serialized session record.
package store

import (
	"context"
	"errors"
)

// ErrNoSession indicates that no session record is currently persisted.
var ErrNoSession = errors.New("no session record")

// Store defines the persistence contract for the session slot. The slot
// holds at most one serialized user record and is written exclusively by the
// session manager.
type Store interface {
	// Read returns the raw stored record or ErrNoSession when absent.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the stored record.
	Write(ctx context.Context, record []byte) error
	// Delete removes the record. Deleting an absent record is a no-op.
	Delete(ctx context.Context) error
}
