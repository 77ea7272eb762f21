package model

// Location represents a point of interest that can be visited on a trip.
type Location struct {
	ID               string   `json:"_id"`
	PlaceID          string   `json:"placeID"` // external provider identifier, not unique
	Name             string   `json:"name"`
	Address          string   `json:"address"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Keyword          string   `json:"keyword"` // category, e.g. temple, waterfall
	Types            string   `json:"types"`   // provider type classification
	Phone            *string  `json:"phone,omitempty"`
	Website          *string  `json:"website,omitempty"`
	Photo            *string  `json:"photo_1_URL,omitempty"`
	ReviewSummary    *string  `json:"review_summary,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	NumReviews       *int     `json:"num_reviews,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
}

// LocationInput is the payload accepted when a location is created.
type LocationInput struct {
	PlaceID          string
	Name             string
	Address          string
	Latitude         float64
	Longitude        float64
	Keyword          string
	Types            string
	Phone            *string
	Website          *string
	Photo            *string
	ReviewSummary    *string
	UserRatingsTotal *int
	NumReviews       *int
	Rating           *float64
}

// LocationPatch carries a partial update. Nil fields are left untouched.
type LocationPatch struct {
	PlaceID          *string
	Name             *string
	Address          *string
	Latitude         *float64
	Longitude        *float64
	Keyword          *string
	Types            *string
	Phone            *string
	Website          *string
	Photo            *string
	ReviewSummary    *string
	UserRatingsTotal *int
	NumReviews       *int
	Rating           *float64
}

// NewLocation builds a stored record from a create payload and a store-generated id.
func NewLocation(id string, in LocationInput) Location {
	return Location{
		ID:               id,
		PlaceID:          in.PlaceID,
		Name:             in.Name,
		Address:          in.Address,
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		Keyword:          in.Keyword,
		Types:            in.Types,
		Phone:            in.Phone,
		Website:          in.Website,
		Photo:            in.Photo,
		ReviewSummary:    in.ReviewSummary,
		UserRatingsTotal: in.UserRatingsTotal,
		NumReviews:       in.NumReviews,
		Rating:           in.Rating,
	}
}

// Apply copies every supplied patch field onto the location.
func (l *Location) Apply(p LocationPatch) {
	if p.PlaceID != nil {
		l.PlaceID = *p.PlaceID
	}
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Address != nil {
		l.Address = *p.Address
	}
	if p.Latitude != nil {
		l.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		l.Longitude = *p.Longitude
	}
	if p.Keyword != nil {
		l.Keyword = *p.Keyword
	}
	if p.Types != nil {
		l.Types = *p.Types
	}
	if p.Phone != nil {
		l.Phone = p.Phone
	}
	if p.Website != nil {
		l.Website = p.Website
	}
	if p.Photo != nil {
		l.Photo = p.Photo
	}
	if p.ReviewSummary != nil {
		l.ReviewSummary = p.ReviewSummary
	}
	if p.UserRatingsTotal != nil {
		l.UserRatingsTotal = p.UserRatingsTotal
	}
	if p.NumReviews != nil {
		l.NumReviews = p.NumReviews
	}
	if p.Rating != nil {
		l.Rating = p.Rating
	}
}

// IsEmpty reports whether the patch supplies no field at all.
func (p LocationPatch) IsEmpty() bool {
	return p == LocationPatch{}
}
