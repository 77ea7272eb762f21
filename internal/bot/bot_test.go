package bot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
	"github.com/Jinwoo290350/PaiLOCAL/internal/planner"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	fileURL  string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) GetFileDirectURL(string) (string, error) {
	if f.fileURL == "" {
		return "", errors.New("no file")
	}
	return f.fileURL, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

type stubPlanner struct {
	mu         sync.Mutex
	themes     []model.Theme
	itinerary  *model.Itinerary
	matches    []model.ImageMatch
	hits       []model.PlaceHit
	err        error
	trip       model.TripRequest
	places     model.PlacesTripRequest
	image      []byte
	searchFrom *model.LatLng
}

func (s *stubPlanner) Themes(context.Context) ([]model.Theme, error) {
	return s.themes, s.err
}

func (s *stubPlanner) PlanTrip(_ context.Context, r model.TripRequest) (*model.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trip = r
	return s.itinerary, s.err
}

func (s *stubPlanner) PlanTripFromPlaces(_ context.Context, r model.PlacesTripRequest) (*model.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.places = r
	return s.itinerary, s.err
}

func (s *stubPlanner) ImageSearch(_ context.Context, _ string, image []byte, _ int) ([]model.ImageMatch, error) {
	s.image = image
	return s.matches, s.err
}

func (s *stubPlanner) SearchPlaces(_ context.Context, _ string, _ int, from *model.LatLng) ([]model.PlaceHit, error) {
	s.searchFrom = from
	return s.hits, s.err
}

type stubLocations struct {
	items []model.Location
}

func (s *stubLocations) Search(_ context.Context, q string) ([]model.Location, error) {
	var out []model.Location
	for _, l := range s.items {
		if q == "" || strings.Contains(strings.ToLower(l.Name), strings.ToLower(q)) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubLocations) Get(_ context.Context, id string) (*model.Location, error) {
	for _, l := range s.items {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, errors.New("Location #" + id + " not found")
}

func newTestBot(p *stubPlanner, locs *stubLocations) (*Bot, *fakeSender) {
	api := &fakeSender{}
	if locs == nil {
		locs = &stubLocations{}
	}
	return New(api, p, locs, zerolog.Nop()), api
}

func command(chatID int64, text string) tgbotapi.Update {
	name := strings.SplitN(text, " ", 2)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 42, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func sampleItinerary() *model.Itinerary {
	return &model.Itinerary{
		Summary: model.TripSummary{TotalStops: 2, TotalDistanceKM: 12.5, EcoScore: 8},
		Route: []model.Stop{
			{StopNumber: 1, Name: "Wat Rong Khun", Lat: 19.82, Lng: 99.76},
			{StopNumber: 2, Name: "Singha Park", Lat: 19.86, Lng: 99.75},
		},
	}
}

func buttons(t *testing.T, m tgbotapi.MessageConfig) []tgbotapi.InlineKeyboardButton {
	t.Helper()
	kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "message has an inline keyboard")
	var out []tgbotapi.InlineKeyboardButton
	for _, row := range kb.InlineKeyboard {
		out = append(out, row...)
	}
	return out
}

func TestBot_Help(t *testing.T) {
	b, api := newTestBot(&stubPlanner{}, nil)
	b.HandleUpdate(context.Background(), command(1, "/start"))
	assert.Contains(t, api.last(t).Text, "/themes")
}

func TestBot_Themes(t *testing.T) {
	p := &stubPlanner{themes: []model.Theme{{ID: "cafe", Name: "Cafe Hopping", NameTH: "คาเฟ่", Icon: "☕"}}}
	b, api := newTestBot(p, nil)

	b.HandleUpdate(context.Background(), command(1, "/themes"))

	btns := buttons(t, api.last(t))
	require.Len(t, btns, 1)
	require.NotNil(t, btns[0].CallbackData)
	assert.Equal(t, "THEME_cafe", *btns[0].CallbackData)
}

func TestBot_ThemesUnavailable(t *testing.T) {
	b, api := newTestBot(&stubPlanner{err: errors.New("dial tcp")}, nil)
	b.HandleUpdate(context.Background(), command(1, "/themes"))
	assert.Contains(t, api.last(t).Text, "Failed to load themes")
}

func TestBot_PlanTheme(t *testing.T) {
	p := &stubPlanner{itinerary: sampleItinerary()}
	b, api := newTestBot(p, nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 7},
		Location: &tgbotapi.Location{Latitude: 19.9, Longitude: 99.8},
	}})
	b.HandleUpdate(ctx, command(7, "/stops 3"))
	b.HandleUpdate(ctx, command(7, "/distance 25"))
	b.HandleUpdate(ctx, callback(7, "THEME_cafe"))
	b.Wait()

	assert.Equal(t, model.TripRequest{
		StartLat: 19.9, StartLng: 99.8, Mode: model.ModeTheme, Value: "cafe", NumStops: 3, MaxDistanceKM: 25,
	}, p.trip)
	assert.Equal(t, planner.StateSuccess, b.session(7).State())

	msgs := api.messages()
	require.GreaterOrEqual(t, len(msgs), 2)
	summary := msgs[len(msgs)-2]
	assert.Contains(t, summary.Text, "Total Stops: 2")
	link := buttons(t, summary)[0]
	require.NotNil(t, link.URL)
	assert.Contains(t, *link.URL, "origin=19.9%2C99.8")
	assert.Contains(t, msgs[len(msgs)-1].Text, "Singha Park")

	require.NotEmpty(t, api.requests)
	_, ok := api.requests[0].(tgbotapi.CallbackConfig)
	assert.True(t, ok, "callback is acknowledged")
}

func TestBot_PlanPlaceName(t *testing.T) {
	p := &stubPlanner{itinerary: sampleItinerary()}
	b, _ := newTestBot(p, nil)

	b.HandleUpdate(context.Background(), command(1, "/place Wat Rong Khun"))
	b.Wait()

	assert.Equal(t, model.ModePlaceName, p.trip.Mode)
	assert.Equal(t, "Wat Rong Khun", p.trip.Value)
	assert.Equal(t, planner.DefaultNumStops, p.trip.NumStops)
}

func TestBot_PlanFailure(t *testing.T) {
	p := &stubPlanner{err: &planner.APIError{StatusCode: 404, Detail: "No places found for theme"}}
	b, api := newTestBot(p, nil)

	b.HandleUpdate(context.Background(), callback(1, "THEME_none"))
	b.Wait()

	assert.Equal(t, "Error: No places found for theme", api.last(t).Text)
	assert.Equal(t, planner.StateError, b.session(1).State())
}

func TestBot_PlanWhileBusy(t *testing.T) {
	b, api := newTestBot(&stubPlanner{}, nil)
	require.NoError(t, b.session(1).Begin())

	b.HandleUpdate(context.Background(), callback(1, "THEME_cafe"))

	assert.Contains(t, api.last(t).Text, "Please wait")
}

func TestBot_InvalidSettings(t *testing.T) {
	b, api := newTestBot(&stubPlanner{}, nil)
	ctx := context.Background()

	b.HandleUpdate(ctx, command(1, "/stops 50"))
	assert.Contains(t, api.last(t).Text, "between 1 and 20")

	b.HandleUpdate(ctx, command(1, "/distance abc"))
	assert.Contains(t, api.last(t).Text, "Usage")

	b.HandleUpdate(ctx, command(1, "/place"))
	assert.Contains(t, api.last(t).Text, "Usage")

	assert.Equal(t, planner.DefaultNumStops, b.session(1).Settings().NumStops)
}

func TestBot_ImageSearchAndPlan(t *testing.T) {
	photo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("\xff\xd8\xff\xe0jpeg"))
	}))
	defer photo.Close()

	p := &stubPlanner{
		itinerary: sampleItinerary(),
		matches: []model.ImageMatch{
			{PlaceID: "a", Name: "Blue Temple", Similarity: 0.91},
			{PlaceID: "b", Name: "White Temple", Similarity: 0.85},
		},
	}
	b, api := newTestBot(p, nil)
	api.fileURL = photo.URL
	ctx := context.Background()

	b.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 3},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}})
	assert.Equal(t, []byte("\xff\xd8\xff\xe0jpeg"), p.image)

	msg := api.last(t)
	assert.Contains(t, msg.Text, "1. Blue Temple")
	btns := buttons(t, msg)
	require.Len(t, btns, 3)
	assert.Equal(t, "PICK_1_1", *btns[1].CallbackData)
	assert.Equal(t, "PLANPICKED", *btns[2].CallbackData)

	b.HandleUpdate(ctx, callback(3, "PLANPICKED"))
	assert.Equal(t, planner.ErrNothingSelected.Error(), api.last(t).Text)

	b.HandleUpdate(ctx, callback(3, "PICK_1_1"))
	b.HandleUpdate(ctx, callback(3, "PICK_1_0"))
	assert.True(t, b.session(3).IsSelected(1))

	var edit tgbotapi.EditMessageReplyMarkupConfig
	for _, r := range api.requests {
		if e, ok := r.(tgbotapi.EditMessageReplyMarkupConfig); ok {
			edit = e
		}
	}
	assert.Equal(t, 42, edit.MessageID)
	require.NotNil(t, edit.ReplyMarkup)
	assert.True(t, strings.HasPrefix(edit.ReplyMarkup.InlineKeyboard[0][0].Text, "✅"))

	b.HandleUpdate(ctx, callback(3, "PLANPICKED"))
	b.Wait()
	assert.Equal(t, []string{"a", "b"}, p.places.PlaceIDs)
	assert.Equal(t, planner.DefaultStartLat, p.places.StartLat)
}

func TestBot_PickOutOfRange(t *testing.T) {
	b, api := newTestBot(&stubPlanner{}, nil)
	b.HandleUpdate(context.Background(), callback(1, "PICK_0_4"))
	assert.Contains(t, api.last(t).Text, "no longer available")
}

func TestBot_PickFromOlderPhoto(t *testing.T) {
	photo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg"))
	}))
	defer photo.Close()

	p := &stubPlanner{matches: []model.ImageMatch{{PlaceID: "a", Name: "A"}, {PlaceID: "b", Name: "B"}}}
	b, api := newTestBot(p, nil)
	api.fileURL = photo.URL
	ctx := context.Background()
	sendPhoto := tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 5},
		Photo: []tgbotapi.PhotoSize{{FileID: "f"}},
	}}

	b.HandleUpdate(ctx, sendPhoto)
	first := *buttons(t, api.last(t))[1].CallbackData

	p.matches = []model.ImageMatch{{PlaceID: "x", Name: "X"}, {PlaceID: "y", Name: "Y"}}
	b.HandleUpdate(ctx, sendPhoto)
	assert.Equal(t, "PICK_2_1", *buttons(t, api.last(t))[1].CallbackData)

	b.HandleUpdate(ctx, callback(5, first))

	assert.Empty(t, b.session(5).SelectedPlaceIDs())
	assert.Contains(t, api.last(t).Text, "no longer available")
}

func TestParsePick(t *testing.T) {
	gen, i, ok := parsePick("3_12")
	assert.True(t, ok)
	assert.Equal(t, 3, gen)
	assert.Equal(t, 12, i)

	for _, bad := range []string{"", "3", "a_1", "1_b"} {
		_, _, ok := parsePick(bad)
		assert.False(t, ok, bad)
	}
}

func TestBot_SearchPlaces(t *testing.T) {
	p := &stubPlanner{hits: []model.PlaceHit{{Name: "Doi Tung", Keyword: "mountain", Rating: 4.7, DistanceKM: 42.31}}}
	b, api := newTestBot(p, nil)

	b.HandleUpdate(context.Background(), command(1, "/search doi"))

	assert.Equal(t, "1. Doi Tung (mountain) ⭐ 4.7/5, 42.3 km", api.last(t).Text)
	require.NotNil(t, p.searchFrom)
	assert.Equal(t, planner.DefaultStartLat, p.searchFrom.Lat)
}

func TestBot_Locations(t *testing.T) {
	rating := 4.5
	website := "https://singhapark.com"
	locs := &stubLocations{items: []model.Location{
		{ID: "l1", Name: "Singha Park", Address: "Mueang", Keyword: "farm", Types: "park",
			Latitude: 19.86, Longitude: 99.75, Rating: &rating, Website: &website},
		{ID: "l2", Name: "Wat Rong Khun", Keyword: "temple"},
	}}
	b, api := newTestBot(&stubPlanner{}, locs)
	ctx := context.Background()

	b.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "singha"}})
	msg := api.last(t)
	assert.Equal(t, "Found: 1", msg.Text)
	assert.Equal(t, "LOC_l1", *buttons(t, msg)[0].CallbackData)

	b.HandleUpdate(ctx, command(1, "/locations"))
	assert.Equal(t, "Found: 2", api.last(t).Text)

	b.HandleUpdate(ctx, callback(1, "LOC_l1"))
	detail := api.last(t)
	assert.Contains(t, detail.Text, "⭐ 4.5/5")
	btns := buttons(t, detail)
	require.Len(t, btns, 2)
	assert.Equal(t, "https://www.google.com/maps?q=19.86,99.75", *btns[0].URL)

	b.HandleUpdate(ctx, callback(1, "LOC_missing"))
	assert.Equal(t, "Location #missing not found", api.last(t).Text)

	b.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "nothing"}})
	assert.Equal(t, "No locations found", api.last(t).Text)
}

func TestBot_RunStopsOnClose(t *testing.T) {
	b, api := newTestBot(&stubPlanner{}, nil)
	updates := make(chan tgbotapi.Update, 1)
	updates <- command(1, "/help")
	close(updates)

	b.Run(context.Background(), updates)

	assert.Len(t, api.messages(), 1)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "bad", userMessage(&planner.APIError{StatusCode: 400, Detail: "bad"}, "fb"))
	verrs := model.ValidationErrors{{Field: "num_stops", Reason: "must be between 1 and 20"}}
	assert.Equal(t, verrs.Error(), userMessage(verrs, "fb"))
	assert.Equal(t, "fb", userMessage(errors.New("x"), "fb"))
}
