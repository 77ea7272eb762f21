package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
)

// MemoryLocationRepository keeps locations in process memory.
type MemoryLocationRepository struct {
	mu    sync.RWMutex
	items map[string]model.Location
	order []string
}

// NewMemoryLocationRepository returns an empty in-process store.
func NewMemoryLocationRepository() *MemoryLocationRepository {
	return &MemoryLocationRepository{items: make(map[string]model.Location)}
}

// Create stores a copy of the location under a new UUID.
func (r *MemoryLocationRepository) Create(_ context.Context, in model.LocationInput) (*model.Location, error) {
	loc := model.NewLocation(uuid.NewString(), in)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[loc.ID] = loc
	r.order = append(r.order, loc.ID)
	return &loc, nil
}

// ListAll returns the locations in insertion order.
func (r *MemoryLocationRepository) ListAll(_ context.Context) ([]model.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	locations := make([]model.Location, 0, len(r.order))
	for _, id := range r.order {
		locations = append(locations, r.items[id])
	}
	return locations, nil
}

// GetByID returns a copy of the stored location.
func (r *MemoryLocationRepository) GetByID(_ context.Context, id string) (*model.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &loc, nil
}

// UpdateByID applies the patch in place.
func (r *MemoryLocationRepository) UpdateByID(_ context.Context, id string, patch model.LocationPatch) (*model.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	loc.Apply(patch)
	r.items[id] = loc
	return &loc, nil
}

// DeleteByID removes the location and its position in the order.
func (r *MemoryLocationRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
