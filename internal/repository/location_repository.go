package repository

import (
	"context"
	"errors"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
)

// ErrNotFound is returned when no location has the requested identifier.
var ErrNotFound = errors.New("location not found")

// LocationRepository persists locations independently of the storage engine.
type LocationRepository interface {
	// Create stores a new location and returns it with its generated identifier.
	Create(ctx context.Context, in model.LocationInput) (*model.Location, error)
	// ListAll returns every stored location; an empty store yields an empty slice.
	ListAll(ctx context.Context) ([]model.Location, error)
	// GetByID returns ErrNotFound when the identifier is unknown.
	GetByID(ctx context.Context, id string) (*model.Location, error)
	// UpdateByID applies the supplied patch fields and returns the updated record.
	UpdateByID(ctx context.Context, id string, patch model.LocationPatch) (*model.Location, error)
	// DeleteByID removes the location or returns ErrNotFound.
	DeleteByID(ctx context.Context, id string) error
}
