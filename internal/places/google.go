package places

import (
	"context"
	"fmt"
	"math"
	"time"

	"googlemaps.github.io/maps"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
)

const defaultType = "point_of_interest"

var detailFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskPlaceID,
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskGeometryLocation,
	maps.PlaceDetailsFieldMaskTypes,
	maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
	maps.PlaceDetailsFieldMaskWebsite,
	maps.PlaceDetailsFieldMaskPhotos,
	maps.PlaceDetailsFieldMaskEditorialSummary,
	maps.PlaceDetailsFieldMaskRatings,
	maps.PlaceDetailsFieldMaskUserRatingsTotal,
}

// GoogleProvider looks places up with the Google Places Details API.
type GoogleProvider struct {
	client  *maps.Client
	timeout time.Duration
}

// NewGoogleProvider creates a provider. Extra options are passed to the maps client.
func NewGoogleProvider(apiKey string, timeout time.Duration, opts ...maps.ClientOption) (*GoogleProvider, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleProvider{client: c, timeout: timeout}, nil
}

// Lookup fetches the details of a place and maps them onto a create payload.
// The keyword is left empty for the caller to fill in.
func (g *GoogleProvider) Lookup(ctx context.Context, placeID string) (model.LocationInput, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields:  detailFields,
	})
	if err != nil {
		return model.LocationInput{}, fmt.Errorf("place details %s: %w", placeID, err)
	}
	return toInput(placeID, res), nil
}

func toInput(placeID string, res maps.PlaceDetailsResult) model.LocationInput {
	in := model.LocationInput{
		PlaceID:   placeID,
		Name:      res.Name,
		Address:   res.FormattedAddress,
		Latitude:  res.Geometry.Location.Lat,
		Longitude: res.Geometry.Location.Lng,
		Types:     defaultType,
	}
	if res.PlaceID != "" {
		in.PlaceID = res.PlaceID
	}
	if len(res.Types) > 0 {
		in.Types = res.Types[0]
	}
	if res.FormattedPhoneNumber != "" {
		in.Phone = &res.FormattedPhoneNumber
	}
	if res.Website != "" {
		in.Website = &res.Website
	}
	if len(res.Photos) > 0 && res.Photos[0].PhotoReference != "" {
		ref := res.Photos[0].PhotoReference
		in.Photo = &ref
	}
	if res.EditorialSummary != nil && res.EditorialSummary.Overview != "" {
		in.ReviewSummary = &res.EditorialSummary.Overview
	}
	if res.Rating > 0 {
		// float32 from the API, keep one decimal
		rating := math.Round(float64(res.Rating)*10) / 10
		in.Rating = &rating
	}
	if res.UserRatingsTotal > 0 {
		total := res.UserRatingsTotal
		in.UserRatingsTotal = &total
	}
	return in
}
