package model

// Trip planning modes understood by the planner service.
const (
	ModeTheme     = "theme"
	ModePlaceName = "place_name"
)

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Theme is a curated category that drives thematic trip planning.
type Theme struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	NameTH      string   `json:"name_th"`
	Subtitle    string   `json:"subtitle"`
	Icon        string   `json:"icon"`
	Keywords    []string `json:"keywords"`
	CarbonLevel string   `json:"carbon_level"`
	Description string   `json:"description"`
}

// TripRequest asks the planner for a theme or place-name itinerary.
type TripRequest struct {
	StartLat      float64 `json:"start_lat"`
	StartLng      float64 `json:"start_lng"`
	Mode          string  `json:"mode"`  // ModeTheme or ModePlaceName
	Value         string  `json:"value"` // theme id or free-text place name
	NumStops      int     `json:"num_stops"`
	MaxDistanceKM float64 `json:"max_distance_km"`
}

// PlacesTripRequest asks the planner to order an explicit set of places.
type PlacesTripRequest struct {
	StartLat float64  `json:"start_lat"`
	StartLng float64  `json:"start_lng"`
	PlaceIDs []string `json:"place_ids"`
}

// Itinerary is the planned trip returned by the planner service.
type Itinerary struct {
	TripID        string      `json:"trip_id"`
	StartLocation LatLng      `json:"start_location"`
	Mode          string      `json:"mode"`
	Theme         *string     `json:"theme,omitempty"`
	PlaceName     *string     `json:"place_name,omitempty"`
	Summary       TripSummary `json:"summary"`
	Route         []Stop      `json:"route"`
}

// TripSummary holds the aggregate metrics of an itinerary.
type TripSummary struct {
	TotalStops             int      `json:"total_stops"`
	TotalDistanceKM        float64  `json:"total_distance_km"`
	EstimatedTimeHours     float64  `json:"estimated_time_hours"`
	TotalCarbonKG          float64  `json:"total_carbon_kg"`
	EcoScore               float64  `json:"eco_score"` // 0..10
	CarbonReductionPercent float64  `json:"carbon_reduction_percent"`
	Narrative              string   `json:"narrative,omitempty"`
	Compact                string   `json:"compact,omitempty"`
	Directions             []string `json:"directions,omitempty"`
}

// Stop is a single place of an itinerary in visiting order.
type Stop struct {
	StopNumber          int      `json:"stop_number"`
	PlaceID             string   `json:"place_id"`
	Name                string   `json:"name"`
	Keyword             string   `json:"keyword"`
	Address             string   `json:"address"`
	Lat                 float64  `json:"lat"`
	Lng                 float64  `json:"lng"`
	DistanceFromPrevKM  float64  `json:"distance_from_prev_km"`
	DistanceFromStartKM float64  `json:"distance_from_start_km"`
	Rating              float64  `json:"rating"`
	UserRatingsTotal    int      `json:"user_ratings_total"`
	TourismScore        float64  `json:"tourism_score"`
	CarbonKG            float64  `json:"carbon_kg"`
	Photos              []string `json:"photos"`
	Phone               *string  `json:"phone,omitempty"`
	Website             *string  `json:"website,omitempty"`
	ReviewSummary       *string  `json:"review_summary,omitempty"`
}

// ImageMatch is a candidate place returned by image similarity search.
type ImageMatch struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Keyword          string   `json:"keyword"`
	Lat              float64  `json:"lat"`
	Lng              float64  `json:"lng"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	TourismScore     float64  `json:"tourism_score"`
	Similarity       float64  `json:"similarity"` // 0..1
	Photos           []string `json:"photos"`
	Address          string   `json:"address"`
}

// PlaceHit is a name search result of the planner's place catalogue.
type PlaceHit struct {
	PlaceID    string  `json:"place_id"`
	Name       string  `json:"name"`
	Keyword    string  `json:"keyword"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Rating     float64 `json:"rating"`
	DistanceKM float64 `json:"distance_km"`
}
