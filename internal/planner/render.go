package planner

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSummary formats the aggregate metrics of an itinerary, narrative first.
func RenderSummary(it *model.Itinerary) string {
	sm := it.Summary
	var b strings.Builder
	if sm.Narrative != "" {
		b.WriteString(strings.ReplaceAll(sm.Narrative, "**", ""))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Total Stops: %d\n", sm.TotalStops)
	fmt.Fprintf(&b, "Total Distance: %s km\n", num(sm.TotalDistanceKM))
	fmt.Fprintf(&b, "Estimated Time: %s hrs\n", num(sm.EstimatedTimeHours))
	fmt.Fprintf(&b, "Total Carbon: %s kg CO2\n", num(sm.TotalCarbonKG))
	fmt.Fprintf(&b, "Eco Score: %s/10 (%s%% Carbon Reduction)", num(sm.EcoScore), num(sm.CarbonReductionPercent))
	return b.String()
}

// RenderStops lists the stops in visiting order.
func RenderStops(it *model.Itinerary) string {
	var b strings.Builder
	for i, st := range it.Route {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", st.StopNumber, st.Name, st.Keyword)
		fmt.Fprintf(&b, "⭐ %s/5 (%d reviews)\n", num(st.Rating), st.UserRatingsTotal)
		fmt.Fprintf(&b, "Distance from previous: %s km, from start: %s km\n", num(st.DistanceFromPrevKM), num(st.DistanceFromStartKM))
		if st.Phone != nil && *st.Phone != "" {
			fmt.Fprintf(&b, "Phone: %s\n", *st.Phone)
		}
		fmt.Fprintf(&b, "🌱 Carbon: %s kg CO2", num(st.CarbonKG))
	}
	return b.String()
}

// MatchPercent converts a 0..1 similarity into a rounded percentage.
func MatchPercent(similarity float64) int {
	return int(math.Round(similarity * 100))
}

// RenderMatches lists image-search candidates numbered from 1.
func RenderMatches(matches []model.ImageMatch) string {
	if len(matches) == 0 {
		return "No similar places found."
	}
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s (%s) ⭐ %s/5 • %d%% Match", i+1, m.Name, m.Keyword, num(m.Rating), MatchPercent(m.Similarity))
	}
	return b.String()
}

// Path returns the polyline of an itinerary: the start point followed by every stop.
func Path(start model.LatLng, it *model.Itinerary) []model.LatLng {
	path := make([]model.LatLng, 0, len(it.Route)+1)
	path = append(path, start)
	for _, st := range it.Route {
		path = append(path, model.LatLng{Lat: st.Lat, Lng: st.Lng})
	}
	return path
}

// DirectionsURL builds a Google Maps directions link through every point of the path.
func DirectionsURL(path []model.LatLng) string {
	if len(path) < 2 {
		return ""
	}
	point := func(p model.LatLng) string { return num(p.Lat) + "," + num(p.Lng) }

	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", point(path[0]))
	q.Set("destination", point(path[len(path)-1]))
	if len(path) > 2 {
		ws := make([]string, 0, len(path)-2)
		for _, p := range path[1 : len(path)-1] {
			ws = append(ws, point(p))
		}
		q.Set("waypoints", strings.Join(ws, "|"))
	}
	q.Set("travelmode", "driving")
	return "https://www.google.com/maps/dir/?" + q.Encode()
}

// MapURL links a single coordinate on Google Maps.
func MapURL(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s", num(lat), num(lng))
}
