package planner

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
)

// State is the lifecycle stage of a planning session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}
	return "unknown"
}

const (
	DefaultStartLat      = 19.9105
	DefaultStartLng      = 99.8406
	DefaultNumStops      = 5
	DefaultMaxDistanceKM = 50
	DefaultTopK          = 5
)

var (
	// ErrBusy is returned by Begin while a request is in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrNothingSelected is returned when planning from an empty selection.
	ErrNothingSelected = errors.New("please select at least one place")
	// ErrNoValue is returned when no theme or place name was chosen.
	ErrNoValue = errors.New("please select a theme or enter a place name")
	// ErrNoCandidate is returned when toggling an index outside the candidate list.
	ErrNoCandidate = errors.New("no such candidate")
	// ErrStaleCandidates is returned when toggling against a replaced candidate list.
	ErrStaleCandidates = errors.New("candidate list has been replaced")
)

// Settings are the user-adjustable planning parameters.
type Settings struct {
	Start         model.LatLng
	Mode          string
	Value         string
	NumStops      int
	MaxDistanceKM float64
}

// DefaultSettings starts in Chiang Rai with five stops within 50 km.
func DefaultSettings() Settings {
	return Settings{
		Start:         model.LatLng{Lat: DefaultStartLat, Lng: DefaultStartLng},
		Mode:          model.ModeTheme,
		NumStops:      DefaultNumStops,
		MaxDistanceKM: DefaultMaxDistanceKM,
	}
}

// Session holds the state of one user's planning dialog.
// Transitions: idle -> loading -> success|error -> loading ... and Reset back to idle.
type Session struct {
	mu         sync.Mutex
	state      State
	settings   Settings
	itinerary  *model.Itinerary
	err        error
	candidates []model.ImageMatch
	generation int
	selected   map[int]struct{}
}

// NewSession returns an idle session with default settings.
func NewSession() *Session {
	return &Session{
		settings: DefaultSettings(),
		selected: make(map[int]struct{}),
	}
}

// Begin enters the loading state. Only one request may be in flight.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLoading {
		return ErrBusy
	}
	s.state = StateLoading
	return nil
}

// Finish records the outcome of the in-flight request.
func (s *Session) Finish(it *model.Itinerary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateError
		s.err = err
		return
	}
	s.state = StateSuccess
	s.itinerary = it
	s.err = nil
}

// Reset drops the last result and returns to idle. Settings are kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.itinerary = nil
	s.err = nil
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the last itinerary or error.
func (s *Session) Result() (*model.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itinerary, s.err
}

// Settings returns a copy of the planning parameters.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetStart moves the start point.
func (s *Session) SetStart(lat, lng float64) error {
	if errs := validateStart(lat, lng); len(errs) > 0 {
		return errs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Start = model.LatLng{Lat: lat, Lng: lng}
	return nil
}

// SetTarget chooses the planning mode and its theme id or place name.
func (s *Session) SetTarget(mode, value string) error {
	if mode != model.ModeTheme && mode != model.ModePlaceName {
		return model.ValidationErrors{{Field: "mode", Reason: "must be theme or place_name"}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Mode = mode
	s.settings.Value = strings.TrimSpace(value)
	return nil
}

// SetNumStops sets the stop count, 1 to 20.
func (s *Session) SetNumStops(n int) error {
	if n < 1 || n > 20 {
		return model.ValidationErrors{{Field: "num_stops", Reason: "must be between 1 and 20"}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.NumStops = n
	return nil
}

// SetMaxDistance sets the search radius in kilometres.
func (s *Session) SetMaxDistance(km float64) error {
	if km <= 0 {
		return model.ValidationErrors{{Field: "max_distance_km", Reason: "must be greater than 0"}}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.MaxDistanceKM = km
	return nil
}

// TripRequest builds a plan request from the current settings.
func (s *Session) TripRequest() (model.TripRequest, error) {
	st := s.Settings()
	if st.Value == "" {
		return model.TripRequest{}, ErrNoValue
	}
	return model.TripRequest{
		StartLat:      st.Start.Lat,
		StartLng:      st.Start.Lng,
		Mode:          st.Mode,
		Value:         st.Value,
		NumStops:      st.NumStops,
		MaxDistanceKM: st.MaxDistanceKM,
	}, nil
}

// SetCandidates replaces the image-search candidates, clears the selection and
// returns the generation of the new list.
func (s *Session) SetCandidates(matches []model.ImageMatch) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates = matches
	s.generation++
	s.selected = make(map[int]struct{})
	return s.generation
}

// Candidates returns the current candidate list and its generation.
func (s *Session) Candidates() ([]model.ImageMatch, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidates, s.generation
}

// Toggle flips the selection of candidate i of list generation gen and reports
// whether it is now selected.
func (s *Session) Toggle(gen, i int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false, ErrStaleCandidates
	}
	if i < 0 || i >= len(s.candidates) {
		return false, ErrNoCandidate
	}
	if _, ok := s.selected[i]; ok {
		delete(s.selected, i)
		return false, nil
	}
	s.selected[i] = struct{}{}
	return true, nil
}

// IsSelected reports whether candidate i is selected.
func (s *Session) IsSelected(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[i]
	return ok
}

// SelectedPlaceIDs returns the selected place ids in candidate order.
func (s *Session) SelectedPlaceIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := make([]int, 0, len(s.selected))
	for i := range s.selected {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	ids := make([]string, 0, len(idx))
	for _, i := range idx {
		ids = append(ids, s.candidates[i].PlaceID)
	}
	return ids
}

// PlacesRequest builds a plan-from-places request from the selection.
func (s *Session) PlacesRequest() (model.PlacesTripRequest, error) {
	ids := s.SelectedPlaceIDs()
	if len(ids) == 0 {
		return model.PlacesTripRequest{}, ErrNothingSelected
	}
	st := s.Settings()
	return model.PlacesTripRequest{
		StartLat: st.Start.Lat,
		StartLng: st.Start.Lng,
		PlaceIDs: ids,
	}, nil
}
