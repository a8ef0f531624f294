package application

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an application or profile does not
// exist in the store.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when a status change violates the
// lifecycle table.
var ErrInvalidTransition = errors.New("invalid status transition")

// Store persists applications.
type Store interface {
	// Put saves an application, overwriting any existing entry.
	Put(ctx context.Context, app *Application) error

	// Get retrieves an application by ID. Returns ErrNotFound if it
	// does not exist.
	Get(ctx context.Context, id string) (*Application, error)

	// List retrieves all applications for a user, optionally filtered
	// by status ("" matches all).
	List(ctx context.Context, userID string, status Status) ([]*Application, error)

	// Delete removes an application.
	Delete(ctx context.Context, id string) error
}

// ProfileStore persists applicant profiles keyed by user ID.
type ProfileStore interface {
	// Put saves a profile, overwriting any existing entry.
	Put(ctx context.Context, profile *Profile) error

	// Get retrieves a profile by user ID. Returns ErrNotFound if it
	// does not exist.
	Get(ctx context.Context, userID string) (*Profile, error)
}
