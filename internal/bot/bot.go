// Package bot is the Telegram front end of the trip planner.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
	"github.com/Jinwoo290350/PaiLOCAL/internal/planner"
)

// Callback data prefixes of inline buttons.
const (
	cbTheme      = "THEME_"
	cbPick       = "PICK_"
	cbPlanPicked = "PLANPICKED"
	cbLocation   = "LOC_"
)

const (
	maxPhotoBytes  = 10 << 20
	maxListButtons = 20
	searchLimit    = 10
)

const helpText = `PaiLOCAL trip planner

/themes - plan a trip around a theme
/place <name> - plan a trip around a place
/stops <n> - number of stops (1-20)
/distance <km> - maximum distance from the start
/search <name> - find places in the planner catalogue
/locations [text] - browse saved locations
/settings - show the current settings
/reset - clear the last result

Share your location to set the start point.
Send a photo to find similar places.`

// Sender is the part of the Telegram API the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Planner is the trip planning backend.
type Planner interface {
	Themes(ctx context.Context) ([]model.Theme, error)
	PlanTrip(ctx context.Context, r model.TripRequest) (*model.Itinerary, error)
	PlanTripFromPlaces(ctx context.Context, r model.PlacesTripRequest) (*model.Itinerary, error)
	ImageSearch(ctx context.Context, filename string, image []byte, topK int) ([]model.ImageMatch, error)
	SearchPlaces(ctx context.Context, query string, limit int, from *model.LatLng) ([]model.PlaceHit, error)
}

// Locations gives read access to the stored locations.
type Locations interface {
	Search(ctx context.Context, query string) ([]model.Location, error)
	Get(ctx context.Context, id string) (*model.Location, error)
}

// Bot dispatches Telegram updates. Each chat has its own planning session.
type Bot struct {
	api        Sender
	planner    Planner
	locations  Locations
	sessions   cmap.ConcurrentMap[int64, *planner.Session]
	httpClient *http.Client
	log        zerolog.Logger
	wg         sync.WaitGroup
}

// New creates a bot that talks to Telegram through api.
func New(api Sender, p Planner, locs Locations, log zerolog.Logger) *Bot {
	return &Bot{
		api:       api,
		planner:   p,
		locations: locs,
		sessions: cmap.NewWithCustomShardingFunction[int64, *planner.Session](func(id int64) uint32 {
			return uint32(id) ^ uint32(id>>32)
		}),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "bot").Logger(),
	}
}

// Run handles updates until ctx is done or the channel is closed, then waits for
// in-flight planner calls.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, u)
		}
	}
}

// Wait blocks until background planner calls have finished.
func (b *Bot) Wait() {
	b.wg.Wait()
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	if cq := u.CallbackQuery; cq != nil {
		b.handleCallback(ctx, cq)
		return
	}
	msg := u.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, chatID, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
	case msg.Location != nil:
		b.setStart(chatID, msg.Location.Latitude, msg.Location.Longitude)
	case len(msg.Photo) > 0:
		// the last size is the largest
		b.imageSearch(ctx, chatID, msg.Photo[len(msg.Photo)-1].FileID)
	case strings.TrimSpace(msg.Text) != "":
		b.listLocations(ctx, chatID, msg.Text)
	}
}

func (b *Bot) session(chatID int64) *planner.Session {
	return b.sessions.Upsert(chatID, nil, func(exist bool, inMap, _ *planner.Session) *planner.Session {
		if exist {
			return inMap
		}
		return planner.NewSession()
	})
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, cmd, args string) {
	sess := b.session(chatID)
	switch cmd {
	case "start", "help":
		b.send(tgbotapi.NewMessage(chatID, helpText))

	case "themes":
		b.showThemes(ctx, chatID)

	case "place":
		if args == "" {
			b.reply(chatID, "Usage: /place <name>")
			return
		}
		if err := sess.SetTarget(model.ModePlaceName, args); err != nil {
			b.reply(chatID, err.Error())
			return
		}
		b.planTrip(ctx, chatID, sess)

	case "stops":
		n, err := strconv.Atoi(args)
		if err != nil {
			b.reply(chatID, "Usage: /stops <1-20>")
			return
		}
		if err := sess.SetNumStops(n); err != nil {
			b.reply(chatID, "Number of stops must be between 1 and 20.")
			return
		}
		b.reply(chatID, fmt.Sprintf("Stops set to %d.", n))

	case "distance":
		km, err := strconv.ParseFloat(args, 64)
		if err != nil {
			b.reply(chatID, "Usage: /distance <km>")
			return
		}
		if err := sess.SetMaxDistance(km); err != nil {
			b.reply(chatID, "Distance must be greater than 0.")
			return
		}
		b.reply(chatID, fmt.Sprintf("Maximum distance set to %s km.", strconv.FormatFloat(km, 'f', -1, 64)))

	case "settings":
		st := sess.Settings()
		b.reply(chatID, fmt.Sprintf("Start: %s, %s\nStops: %d\nMax distance: %s km\nState: %s",
			strconv.FormatFloat(st.Start.Lat, 'f', -1, 64), strconv.FormatFloat(st.Start.Lng, 'f', -1, 64),
			st.NumStops, strconv.FormatFloat(st.MaxDistanceKM, 'f', -1, 64), sess.State()))

	case "reset":
		sess.Reset()
		b.reply(chatID, "Cleared.")

	case "search":
		b.searchPlaces(ctx, chatID, sess, args)

	case "locations":
		b.listLocations(ctx, chatID, args)

	default:
		b.reply(chatID, "Unknown command. Type /help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("answer callback")
	}
	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	sess := b.session(chatID)
	data := cq.Data

	switch {
	case strings.HasPrefix(data, cbTheme):
		if err := sess.SetTarget(model.ModeTheme, strings.TrimPrefix(data, cbTheme)); err != nil {
			b.reply(chatID, err.Error())
			return
		}
		b.planTrip(ctx, chatID, sess)

	case strings.HasPrefix(data, cbPick):
		gen, i, ok := parsePick(strings.TrimPrefix(data, cbPick))
		if !ok {
			return
		}
		if _, err := sess.Toggle(gen, i); err != nil {
			b.reply(chatID, "That result is no longer available. Send the photo again.")
			return
		}
		edit := tgbotapi.NewEditMessageReplyMarkup(chatID, cq.Message.MessageID, candidateKeyboard(sess))
		if _, err := b.api.Request(edit); err != nil {
			b.log.Warn().Err(err).Msg("update selection keyboard")
		}

	case data == cbPlanPicked:
		req, err := sess.PlacesRequest()
		if err != nil {
			b.reply(chatID, err.Error())
			return
		}
		b.runPlan(ctx, chatID, sess, func(ctx context.Context) (*model.Itinerary, error) {
			return b.planner.PlanTripFromPlaces(ctx, req)
		})

	case strings.HasPrefix(data, cbLocation):
		b.showLocation(ctx, chatID, strings.TrimPrefix(data, cbLocation))
	}
}

func (b *Bot) setStart(chatID int64, lat, lng float64) {
	if err := b.session(chatID).SetStart(lat, lng); err != nil {
		b.reply(chatID, err.Error())
		return
	}
	b.reply(chatID, fmt.Sprintf("Start point set to %s, %s.",
		strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lng, 'f', -1, 64)))
}

func (b *Bot) showThemes(ctx context.Context, chatID int64) {
	themes, err := b.planner.Themes(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("load themes")
		b.reply(chatID, "Failed to load themes. Make sure the planner is running.")
		return
	}
	if len(themes) == 0 {
		b.reply(chatID, "No themes available.")
		return
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(themes))
	for _, t := range themes {
		label := fmt.Sprintf("%s %s - %s", t.Icon, t.Name, t.NameTH)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, cbTheme+t.ID)))
	}
	msg := tgbotapi.NewMessage(chatID, "Choose a theme:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

func (b *Bot) planTrip(ctx context.Context, chatID int64, sess *planner.Session) {
	req, err := sess.TripRequest()
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	b.runPlan(ctx, chatID, sess, func(ctx context.Context) (*model.Itinerary, error) {
		return b.planner.PlanTrip(ctx, req)
	})
}

// runPlan moves the session to loading and calls the planner in the background.
func (b *Bot) runPlan(ctx context.Context, chatID int64, sess *planner.Session, call func(context.Context) (*model.Itinerary, error)) {
	if err := sess.Begin(); err != nil {
		b.reply(chatID, "⏳ Please wait, your trip is still being planned.")
		return
	}
	b.reply(chatID, "Planning your trip...")
	start := sess.Settings().Start

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		it, err := call(ctx)
		sess.Finish(it, err)
		if err != nil {
			b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("plan trip")
			b.reply(chatID, "Error: "+userMessage(err, "Failed to plan trip"))
			return
		}
		b.sendItinerary(chatID, start, it)
	}()
}

func (b *Bot) sendItinerary(chatID int64, start model.LatLng, it *model.Itinerary) {
	summary := tgbotapi.NewMessage(chatID, planner.RenderSummary(it))
	if link := planner.DirectionsURL(planner.Path(start, it)); link != "" {
		summary.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🗺 Open route", link)),
		)
	}
	b.send(summary)
	if len(it.Route) > 0 {
		stops := tgbotapi.NewMessage(chatID, planner.RenderStops(it))
		stops.DisableWebPagePreview = true
		b.send(stops)
	}
}

func (b *Bot) imageSearch(ctx context.Context, chatID int64, fileID string) {
	link, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		b.log.Error().Err(err).Msg("resolve photo")
		b.reply(chatID, "Could not read the photo.")
		return
	}
	image, err := b.download(ctx, link)
	if err != nil {
		b.log.Error().Err(err).Msg("download photo")
		b.reply(chatID, "Could not read the photo.")
		return
	}

	matches, err := b.planner.ImageSearch(ctx, "photo.jpg", image, planner.DefaultTopK)
	if err != nil {
		b.reply(chatID, "Error: "+userMessage(err, "Failed to search for similar places"))
		return
	}
	sess := b.session(chatID)
	sess.SetCandidates(matches)

	msg := tgbotapi.NewMessage(chatID, planner.RenderMatches(matches))
	if len(matches) > 0 {
		msg.Text += "\n\nTap places to select them, then plan a trip."
		msg.ReplyMarkup = candidateKeyboard(sess)
	}
	b.send(msg)
}

func (b *Bot) download(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download photo: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
}

// candidateKeyboard shows one toggle per candidate and the plan button.
func candidateKeyboard(sess *planner.Session) tgbotapi.InlineKeyboardMarkup {
	matches, gen := sess.Candidates()
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(matches)+1)
	for i, m := range matches {
		mark := "⬜"
		if sess.IsSelected(i) {
			mark = "✅"
		}
		label := fmt.Sprintf("%s %s (%d%%)", mark, m.Name, planner.MatchPercent(m.Similarity))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d_%d", cbPick, gen, i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🚗 Plan trip (%d)", len(sess.SelectedPlaceIDs())), cbPlanPicked),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// parsePick splits "<generation>_<index>" callback data.
func parsePick(data string) (gen, i int, ok bool) {
	g, idx, found := strings.Cut(data, "_")
	if !found {
		return 0, 0, false
	}
	gen, err := strconv.Atoi(g)
	if err != nil {
		return 0, 0, false
	}
	i, err = strconv.Atoi(idx)
	if err != nil {
		return 0, 0, false
	}
	return gen, i, true
}

func (b *Bot) searchPlaces(ctx context.Context, chatID int64, sess *planner.Session, query string) {
	if query == "" {
		b.reply(chatID, "Usage: /search <name>")
		return
	}
	start := sess.Settings().Start
	hits, err := b.planner.SearchPlaces(ctx, query, searchLimit, &start)
	if err != nil {
		b.reply(chatID, "Error: "+userMessage(err, "Failed to search places"))
		return
	}
	if len(hits) == 0 {
		b.reply(chatID, "Nothing found.")
		return
	}
	var sb strings.Builder
	for i, h := range hits {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. %s (%s) ⭐ %s/5, %s km", i+1, h.Name, h.Keyword,
			strconv.FormatFloat(h.Rating, 'f', -1, 64), strconv.FormatFloat(h.DistanceKM, 'f', 1, 64))
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) listLocations(ctx context.Context, chatID int64, query string) {
	query = strings.TrimSpace(query)
	if query == "*" {
		query = ""
	}
	locs, err := b.locations.Search(ctx, query)
	if err != nil {
		b.log.Error().Err(err).Msg("search locations")
		b.reply(chatID, "Failed to load locations.")
		return
	}
	if len(locs) == 0 {
		b.reply(chatID, "No locations found")
		return
	}

	shown := locs
	if len(shown) > maxListButtons {
		shown = shown[:maxListButtons]
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(shown))
	for _, loc := range shown {
		name := []rune(loc.Name)
		if len(name) > 30 {
			name = append(name[:30], []rune("...")...)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(string(name), cbLocation+loc.ID),
		))
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Found: %d", len(locs)))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

func (b *Bot) showLocation(ctx context.Context, chatID int64, id string) {
	loc, err := b.locations.Get(ctx, id)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s\n%s · %s", loc.Name, loc.Address, loc.Keyword, loc.Types)
	if loc.Rating != nil {
		fmt.Fprintf(&sb, "\n⭐ %s/5", strconv.FormatFloat(*loc.Rating, 'f', -1, 64))
		if loc.UserRatingsTotal != nil {
			fmt.Fprintf(&sb, " (%d reviews)", *loc.UserRatingsTotal)
		}
	}
	if loc.Phone != nil {
		fmt.Fprintf(&sb, "\nPhone: %s", *loc.Phone)
	}
	if loc.ReviewSummary != nil {
		fmt.Fprintf(&sb, "\n\n%s", *loc.ReviewSummary)
	}

	buttons := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonURL("Open in maps", planner.MapURL(loc.Latitude, loc.Longitude)),
	}
	if loc.Website != nil {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL("Website", *loc.Website))
	}
	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
	b.send(msg)
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn().Err(err).Msg("send message")
	}
}

// userMessage picks the text shown to the user for a failed planner call.
func userMessage(err error, fallback string) string {
	var (
		apiErr *planner.APIError
		verrs  model.ValidationErrors
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Detail
	case errors.As(err, &verrs):
		return verrs.Error()
	}
	return fallback
}
