package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *GoogleProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := NewGoogleProvider("test-key", time.Second, maps.WithBaseURL(srv.URL))
	require.NoError(t, err)
	return p
}

func TestGoogleProvider_Lookup(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/api/place/details/json", r.URL.Path)
		assert.Equal(t, "ChIJwhite", r.URL.Query().Get("placeid"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"result": {
				"place_id": "ChIJwhite",
				"name": "Wat Rong Khun",
				"formatted_address": "Pa O Don Chai, Mueang Chiang Rai District",
				"geometry": {"location": {"lat": 19.8243, "lng": 99.7630}},
				"types": ["tourist_attraction", "place_of_worship"],
				"formatted_phone_number": "053 673 579",
				"website": "https://www.watrongkhun.org",
				"photos": [{"photo_reference": "ref-1", "height": 100, "width": 100}],
				"editorial_summary": {"overview": "Ornate white temple."},
				"rating": 4.6,
				"user_ratings_total": 45210
			}
		}`))
	})

	in, err := p.Lookup(context.Background(), "ChIJwhite")
	require.NoError(t, err)

	assert.Equal(t, "ChIJwhite", in.PlaceID)
	assert.Equal(t, "Wat Rong Khun", in.Name)
	assert.Equal(t, 19.8243, in.Latitude)
	assert.Equal(t, 99.7630, in.Longitude)
	assert.Equal(t, "tourist_attraction", in.Types)
	assert.Empty(t, in.Keyword)
	require.NotNil(t, in.Phone)
	assert.Equal(t, "053 673 579", *in.Phone)
	require.NotNil(t, in.Photo)
	assert.Equal(t, "ref-1", *in.Photo)
	require.NotNil(t, in.ReviewSummary)
	assert.Equal(t, "Ornate white temple.", *in.ReviewSummary)
	require.NotNil(t, in.Rating)
	assert.Equal(t, 4.6, *in.Rating)
	require.NotNil(t, in.UserRatingsTotal)
	assert.Equal(t, 45210, *in.UserRatingsTotal)
}

func TestGoogleProvider_LookupMinimal(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "OK", "result": {"name": "Viewpoint", "formatted_address": "Doi Mae Salong",
			"geometry": {"location": {"lat": 20.16, "lng": 99.62}}}}`))
	})

	in, err := p.Lookup(context.Background(), "ChIJview")
	require.NoError(t, err)
	assert.Equal(t, "ChIJview", in.PlaceID)
	assert.Equal(t, defaultType, in.Types)
	assert.Nil(t, in.Website)
	assert.Nil(t, in.Rating)
	assert.Nil(t, in.UserRatingsTotal)
}

func TestGoogleProvider_LookupStatusError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "NOT_FOUND", "error_message": "unknown place"}`))
	})

	_, err := p.Lookup(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}
