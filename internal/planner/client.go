// Package planner talks to the external trip-planning and image-search API
// and keeps the per-user planning state.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
)

const (
	themesKey = "themes"

	msgPlanFailed   = "Failed to plan trip"
	msgSearchFailed = "Failed to search for similar places"
	msgThemesFailed = "Failed to load themes"
	msgPlacesFailed = "Failed to search places"
)

// APIError is a non-2xx answer of the planner API.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error returns the server detail.
func (e *APIError) Error() string {
	return e.Detail
}

// Config holds client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	ThemesTTL time.Duration
}

// Client is a client for the planner API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	themes     *cache.Cache
	log        zerolog.Logger
}

// New creates a planner client.
func New(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ttl := cfg.ThemesTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		themes:     cache.New(ttl, 2*ttl),
		log:        log.With().Str("component", "planner").Logger(),
	}
}

// Themes lists the curated themes. Results are cached for the configured TTL.
func (c *Client) Themes(ctx context.Context) ([]model.Theme, error) {
	if v, ok := c.themes.Get(themesKey); ok {
		return v.([]model.Theme), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/themes", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var out struct {
		Themes []model.Theme `json:"themes"`
	}
	if err := c.do(req, msgThemesFailed, &out); err != nil {
		return nil, err
	}
	c.themes.Set(themesKey, out.Themes, cache.DefaultExpiration)
	return out.Themes, nil
}

// PlanTrip plans a theme or place-name itinerary.
func (c *Client) PlanTrip(ctx context.Context, r model.TripRequest) (*model.Itinerary, error) {
	if errs := ValidateTripRequest(r); len(errs) > 0 {
		return nil, errs
	}
	var it model.Itinerary
	if err := c.postJSON(ctx, "/api/plan-trip", r, msgPlanFailed, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// PlanTripFromPlaces orders an explicit set of places into an itinerary.
func (c *Client) PlanTripFromPlaces(ctx context.Context, r model.PlacesTripRequest) (*model.Itinerary, error) {
	if errs := ValidatePlacesRequest(r); len(errs) > 0 {
		return nil, errs
	}
	var it model.Itinerary
	if err := c.postJSON(ctx, "/api/plan-trip-from-places", r, msgPlanFailed, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// ImageSearch uploads an image and returns the most similar places.
func (c *Client) ImageSearch(ctx context.Context, filename string, image []byte, topK int) ([]model.ImageMatch, error) {
	if topK < 1 || topK > 20 {
		return nil, model.ValidationErrors{{Field: "top_k", Reason: "must be between 1 and 20"}}
	}
	if len(image) == 0 {
		return nil, model.ValidationErrors{{Field: "image", Reason: "is required"}}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	h.Set("Content-Type", http.DetectContentType(image))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.WriteField("top_k", strconv.Itoa(topK)); err != nil {
		return nil, fmt.Errorf("write form field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	// the server reads top_k from the query string
	endpoint := c.baseURL + "/api/image-search?top_k=" + strconv.Itoa(topK)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Results []model.ImageMatch `json:"results"`
	}
	if err := c.do(req, msgSearchFailed, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// SearchPlaces finds catalogue places by name. When from is set, distances are measured from it.
func (c *Client) SearchPlaces(ctx context.Context, query string, limit int, from *model.LatLng) ([]model.PlaceHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.ValidationErrors{{Field: "query", Reason: "is required"}}
	}
	if limit < 1 || limit > 50 {
		return nil, model.ValidationErrors{{Field: "limit", Reason: "must be between 1 and 50"}}
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	if from != nil {
		q.Set("start_lat", strconv.FormatFloat(from.Lat, 'f', -1, 64))
		q.Set("start_lng", strconv.FormatFloat(from.Lng, 'f', -1, 64))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/places/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var out struct {
		Results []model.PlaceHit `json:"results"`
	}
	if err := c.do(req, msgPlacesFailed, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, fallback string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, fallback, out)
}

func (c *Client) do(req *http.Request, fallback string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("planner call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(respBody, fallback)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// errorDetail extracts the "detail" field of an error body. Validation
// failures carry a list of objects with a "msg" field instead of a string.
func errorDetail(body []byte, fallback string) string {
	var e struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err != nil || len(e.Detail) == 0 {
		return fallback
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		if s == "" {
			return fallback
		}
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(e.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallback
}

// ValidateTripRequest checks the constraints the planner API enforces.
func ValidateTripRequest(r model.TripRequest) model.ValidationErrors {
	errs := validateStart(r.StartLat, r.StartLng)
	if r.Mode != model.ModeTheme && r.Mode != model.ModePlaceName {
		errs = append(errs, model.FieldError{Field: "mode", Reason: "must be theme or place_name"})
	}
	if strings.TrimSpace(r.Value) == "" {
		errs = append(errs, model.FieldError{Field: "value", Reason: "must not be empty"})
	}
	if r.NumStops < 1 || r.NumStops > 20 {
		errs = append(errs, model.FieldError{Field: "num_stops", Reason: "must be between 1 and 20"})
	}
	if r.MaxDistanceKM <= 0 {
		errs = append(errs, model.FieldError{Field: "max_distance_km", Reason: "must be greater than 0"})
	}
	return errs
}

// ValidatePlacesRequest checks a plan-from-places request.
func ValidatePlacesRequest(r model.PlacesTripRequest) model.ValidationErrors {
	errs := validateStart(r.StartLat, r.StartLng)
	if len(r.PlaceIDs) == 0 {
		errs = append(errs, model.FieldError{Field: "place_ids", Reason: "must not be empty"})
	}
	return errs
}

func validateStart(lat, lng float64) model.ValidationErrors {
	var errs model.ValidationErrors
	if lat < -90 || lat > 90 {
		errs = append(errs, model.FieldError{Field: "start_lat", Reason: "must be between -90 and 90"})
	}
	if lng < -180 || lng > 180 {
		errs = append(errs, model.FieldError{Field: "start_lng", Reason: "must be between -180 and 180"})
	}
	return errs
}
