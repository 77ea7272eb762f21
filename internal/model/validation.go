package model

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// urlSyntax checks URL and host syntax; field dispatch stays in locationFields.
var urlSyntax = validator.New()

// FieldError describes why a single payload field was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationErrors lists every rejected field of a payload.
type ValidationErrors []FieldError

// Error joins the field reasons into one message.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+" "+fe.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the field already has an error recorded.
func (v ValidationErrors) Has(field string) bool {
	for _, fe := range v {
		if fe.Field == field {
			return true
		}
	}
	return false
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindInteger
	kindURL
)

const (
	reasonRequired = "is required"
	reasonEmpty    = "must not be empty"
	reasonString   = "must be a string"
	reasonNumber   = "must be a number"
	reasonInteger  = "must be an integer"
	reasonURL      = "must be a valid URL"
)

type fieldSpec struct {
	key      string
	alias    string // legacy key still accepted on input
	kind     fieldKind
	required bool
	assign   func(p *LocationPatch, v any)
}

// locationFields is ordered as the stored schema; errors are reported in this order.
var locationFields = []fieldSpec{
	{key: "placeID", kind: kindString, required: true, assign: func(p *LocationPatch, v any) { p.PlaceID = strPtr(v) }},
	{key: "name", kind: kindString, required: true, assign: func(p *LocationPatch, v any) { p.Name = strPtr(v) }},
	{key: "address", kind: kindString, required: true, assign: func(p *LocationPatch, v any) { p.Address = strPtr(v) }},
	{key: "latitude", kind: kindNumber, required: true, assign: func(p *LocationPatch, v any) { p.Latitude = floatPtr(v) }},
	{key: "longitude", alias: "longtitude", kind: kindNumber, required: true, assign: func(p *LocationPatch, v any) { p.Longitude = floatPtr(v) }},
	{key: "keyword", kind: kindString, required: true, assign: func(p *LocationPatch, v any) { p.Keyword = strPtr(v) }},
	{key: "types", kind: kindString, required: true, assign: func(p *LocationPatch, v any) { p.Types = strPtr(v) }},
	{key: "phone", kind: kindString, assign: func(p *LocationPatch, v any) { p.Phone = strPtr(v) }},
	{key: "website", kind: kindURL, assign: func(p *LocationPatch, v any) { p.Website = strPtr(v) }},
	{key: "photo_1_URL", kind: kindString, assign: func(p *LocationPatch, v any) { p.Photo = strPtr(v) }},
	{key: "review_summary", kind: kindString, assign: func(p *LocationPatch, v any) { p.ReviewSummary = strPtr(v) }},
	{key: "user_ratings_total", kind: kindInteger, assign: func(p *LocationPatch, v any) { p.UserRatingsTotal = intPtr(v) }},
	{key: "num_reviews", kind: kindInteger, assign: func(p *LocationPatch, v any) { p.NumReviews = intPtr(v) }},
	{key: "rating", kind: kindNumber, assign: func(p *LocationPatch, v any) { p.Rating = floatPtr(v) }},
}

// DecodeLocationCreate parses and validates a create payload. Every required
// field must be present with the right type; nothing is returned usable when
// the error list is non-empty.
func DecodeLocationCreate(body []byte) (LocationInput, ValidationErrors) {
	patch, errs := decodeFields(body, true)
	if errs.Has("body") {
		return LocationInput{}, errs
	}
	in := patch.input()
	for _, fe := range in.Validate() {
		if !errs.Has(fe.Field) {
			errs = append(errs, fe)
		}
	}
	sortErrors(errs)
	return in, errs
}

// DecodeLocationPatch parses and validates a partial update payload.
func DecodeLocationPatch(body []byte) (LocationPatch, ValidationErrors) {
	patch, errs := decodeFields(body, false)
	if errs.Has("body") {
		return LocationPatch{}, errs
	}
	for _, fe := range patch.Validate() {
		if !errs.Has(fe.Field) {
			errs = append(errs, fe)
		}
	}
	sortErrors(errs)
	return patch, errs
}

// Validate checks the content rules of a create payload.
func (in LocationInput) Validate() ValidationErrors {
	var errs ValidationErrors
	required := []struct{ field, value string }{
		{"placeID", in.PlaceID},
		{"name", in.Name},
		{"address", in.Address},
		{"keyword", in.Keyword},
		{"types", in.Types},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, FieldError{Field: r.field, Reason: reasonEmpty})
		}
	}
	if in.Website != nil && !isURL(*in.Website) {
		errs = append(errs, FieldError{Field: "website", Reason: reasonURL})
	}
	sortErrors(errs)
	return errs
}

// Validate checks the content rules of the supplied patch fields.
func (p LocationPatch) Validate() ValidationErrors {
	var errs ValidationErrors
	supplied := []struct {
		field string
		value *string
	}{
		{"placeID", p.PlaceID},
		{"name", p.Name},
		{"address", p.Address},
		{"keyword", p.Keyword},
		{"types", p.Types},
	}
	for _, s := range supplied {
		if s.value != nil && *s.value == "" {
			errs = append(errs, FieldError{Field: s.field, Reason: reasonEmpty})
		}
	}
	if p.Website != nil && !isURL(*p.Website) {
		errs = append(errs, FieldError{Field: "website", Reason: reasonURL})
	}
	sortErrors(errs)
	return errs
}

func decodeFields(body []byte, create bool) (LocationPatch, ValidationErrors) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return LocationPatch{}, ValidationErrors{{Field: "body", Reason: "must be a JSON object"}}
	}

	var patch LocationPatch
	var errs ValidationErrors
	for _, fd := range locationFields {
		value, ok := raw[fd.key]
		if !ok && fd.alias != "" {
			value, ok = raw[fd.alias]
		}
		if !ok || isNull(value) {
			if create && fd.required {
				errs = append(errs, FieldError{Field: fd.key, Reason: reasonRequired})
			}
			continue
		}
		v, reason := decodeValue(fd.kind, value)
		if reason != "" {
			errs = append(errs, FieldError{Field: fd.key, Reason: reason})
			continue
		}
		fd.assign(&patch, v)
	}
	return patch, errs
}

func decodeValue(kind fieldKind, value json.RawMessage) (any, string) {
	switch kind {
	case kindString, kindURL:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, reasonString
		}
		return s, ""
	case kindNumber:
		var f float64
		if err := json.Unmarshal(value, &f); err != nil {
			return nil, reasonNumber
		}
		return f, ""
	case kindInteger:
		var f float64
		if err := json.Unmarshal(value, &f); err != nil {
			return nil, reasonNumber
		}
		if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return nil, reasonInteger
		}
		return int(f), ""
	}
	return nil, fmt.Sprintf("has unsupported kind %d", kind)
}

func (p LocationPatch) input() LocationInput {
	in := LocationInput{
		Phone:            p.Phone,
		Website:          p.Website,
		Photo:            p.Photo,
		ReviewSummary:    p.ReviewSummary,
		UserRatingsTotal: p.UserRatingsTotal,
		NumReviews:       p.NumReviews,
		Rating:           p.Rating,
	}
	if p.PlaceID != nil {
		in.PlaceID = *p.PlaceID
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Address != nil {
		in.Address = *p.Address
	}
	if p.Latitude != nil {
		in.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		in.Longitude = *p.Longitude
	}
	if p.Keyword != nil {
		in.Keyword = *p.Keyword
	}
	if p.Types != nil {
		in.Types = *p.Types
	}
	return in
}

// isURL accepts http(s) URLs and bare host names whose host is an IP
// address, localhost or a domain with a top-level domain.
func isURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	candidate := s
	if !strings.Contains(s, "://") {
		candidate = "http://" + s
	}
	if urlSyntax.Var(candidate, "http_url") != nil {
		return false
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	return urlSyntax.Var(host, "ip|fqdn") == nil
}

func sortErrors(errs ValidationErrors) {
	order := make(map[string]int, len(locationFields))
	for i, fd := range locationFields {
		order[fd.key] = i
	}
	sort.SliceStable(errs, func(i, j int) bool {
		return order[errs[i].Field] < order[errs[j].Field]
	})
}

func isNull(value json.RawMessage) bool {
	return strings.TrimSpace(string(value)) == "null"
}

func strPtr(v any) *string {
	s := v.(string)
	return &s
}

func floatPtr(v any) *float64 {
	f := v.(float64)
	return &f
}

func intPtr(v any) *int {
	n := v.(int)
	return &n
}
