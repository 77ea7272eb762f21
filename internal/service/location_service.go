package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
	"github.com/Jinwoo290350/PaiLOCAL/internal/repository"
)

var (
	// ErrImportUnavailable is returned by Import when no place provider is configured.
	ErrImportUnavailable = errors.New("place import is not configured")
	// ErrPlaceLookup wraps failures of the external place provider.
	ErrPlaceLookup = errors.New("place lookup failed")
)

// NotFoundError reports a location identifier with no stored record.
type NotFoundError struct {
	ID string
}

// Error formats the not-found message returned to API clients.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Location #%s not found", e.ID)
}

// PlaceLookup resolves an external place identifier into a create payload.
type PlaceLookup interface {
	Lookup(ctx context.Context, placeID string) (model.LocationInput, error)
}

// LocationService contains the business logic around stored locations.
type LocationService struct {
	repo   repository.LocationRepository
	places PlaceLookup
	log    zerolog.Logger
}

// NewLocationService creates a location service. places may be nil, which disables Import.
func NewLocationService(repo repository.LocationRepository, places PlaceLookup, log zerolog.Logger) *LocationService {
	return &LocationService{
		repo:   repo,
		places: places,
		log:    log.With().Str("component", "location_service").Logger(),
	}
}

// Create validates and stores a new location.
func (s *LocationService) Create(ctx context.Context, in model.LocationInput) (*model.Location, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return nil, errs
	}
	loc, err := s.repo.Create(ctx, in)
	if err != nil {
		s.log.Error().Err(err).Str("place_id", in.PlaceID).Msg("create location")
		return nil, err
	}
	s.log.Info().Str("id", loc.ID).Str("place_id", loc.PlaceID).Msg("location created")
	return loc, nil
}

// List returns every stored location. An empty store yields an empty slice.
func (s *LocationService) List(ctx context.Context) ([]model.Location, error) {
	locs, err := s.repo.ListAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list locations")
		return nil, err
	}
	return locs, nil
}

// Search returns the locations whose name, keyword, address or types contain the query.
func (s *LocationService) Search(ctx context.Context, query string) ([]model.Location, error) {
	locs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return locs, nil
	}
	found := []model.Location{}
	for _, l := range locs {
		haystack := strings.ToLower(l.Name + " " + l.Keyword + " " + l.Address + " " + l.Types)
		if strings.Contains(haystack, query) {
			found = append(found, l)
		}
	}
	return found, nil
}

// Get returns one location or a *NotFoundError.
func (s *LocationService) Get(ctx context.Context, id string) (*model.Location, error) {
	loc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id, "get location")
	}
	return loc, nil
}

// Update applies a partial update and returns the updated location.
func (s *LocationService) Update(ctx context.Context, id string, patch model.LocationPatch) (*model.Location, error) {
	if errs := patch.Validate(); len(errs) > 0 {
		return nil, errs
	}
	loc, err := s.repo.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, s.mapError(err, id, "update location")
	}
	s.log.Info().Str("id", id).Msg("location updated")
	return loc, nil
}

// Delete removes a location and returns the confirmation message.
func (s *LocationService) Delete(ctx context.Context, id string) (string, error) {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return "", s.mapError(err, id, "delete location")
	}
	s.log.Info().Str("id", id).Msg("location removed")
	return fmt.Sprintf("Location #%s removed successfully", id), nil
}

// Import fetches a place from the configured provider and stores it under the given keyword.
func (s *LocationService) Import(ctx context.Context, placeID, keyword string) (*model.Location, error) {
	var errs model.ValidationErrors
	if strings.TrimSpace(placeID) == "" {
		errs = append(errs, model.FieldError{Field: "placeID", Reason: "is required"})
	}
	if strings.TrimSpace(keyword) == "" {
		errs = append(errs, model.FieldError{Field: "keyword", Reason: "is required"})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if s.places == nil {
		return nil, ErrImportUnavailable
	}

	in, err := s.places.Lookup(ctx, placeID)
	if err != nil {
		s.log.Warn().Err(err).Str("place_id", placeID).Msg("place lookup")
		return nil, fmt.Errorf("%w: %w", ErrPlaceLookup, err)
	}
	in.Keyword = keyword
	return s.Create(ctx, in)
}

func (s *LocationService) mapError(err error, id, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{ID: id}
	}
	s.log.Error().Err(err).Str("id", id).Msg(op)
	return err
}
