package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/m3rciful/roulettebot/core/chat"
	"github.com/m3rciful/roulettebot/core/logger"
	"github.com/m3rciful/roulettebot/internal/catalog"
	"github.com/m3rciful/roulettebot/internal/session"
	"github.com/m3rciful/roulettebot/internal/venue"
)

// State is the conversation state of one user.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingLocation State = "awaiting_location"
)

// Game names a roulette.
type Game string

const (
	GameFood  Game = "food"
	GameDrink Game = "drink"
)

// Route names the branch that produced a response.
type Route string

const (
	RouteFollow   Route = "follow"
	RouteCommand  Route = "command"
	RouteRoll     Route = "roll"
	RouteLocation Route = "location"
	RouteFallback Route = "fallback"
)

// VenueFinder is the lookup the machine delegates locations to.
type VenueFinder interface {
	Lookup(ctx context.Context, lat, lon float64, keyword string) venue.Result
}

// Response is the reply to one event together with what happened.
type Response struct {
	Reply chat.Reply
	Route Route
	From  State
	To    State
	// Command is the matched menu command for RouteCommand.
	Command string
	// Game and Choice are set for RouteRoll.
	Game   Game
	Choice string
	// Lookup is set for RouteLocation.
	Lookup *venue.Result
}

// Option customises a Machine.
type Option func(*Machine)

// WithRand replaces the uniform source used for roulette picks. intn must return
// a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(m *Machine) {
		if intn != nil {
			m.intn = intn
		}
	}
}

// Machine interprets events. It is safe for concurrent use; events of the same
// user are processed one at a time.
type Machine struct {
	store   session.Store
	catalog *catalog.Catalog
	venues  VenueFinder
	intn    func(n int) int
	locks   *keyLock
}

// New builds a machine over the given collaborators.
func New(store session.Store, cat *catalog.Catalog, venues VenueFinder, opts ...Option) *Machine {
	m := &Machine{
		store:   store,
		catalog: cat,
		venues:  venues,
		intn:    rand.IntN,
		locks:   newKeyLock(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ErrNilEvent is returned when Handle is given no event.
var ErrNilEvent = errors.New("conversation: nil event")

// Handle processes one event. The response is always usable; a non-nil error
// reports a session store failure that was degraded around.
func (m *Machine) Handle(ctx context.Context, ev chat.Event) (Response, error) {
	if ev == nil {
		return Response{}, ErrNilEvent
	}
	userID := ev.EventSource().UserID
	unlock := m.locks.Lock(userID)
	defer unlock()

	label, from, err := m.current(ctx, userID)
	resp := Response{From: from, To: from}

	switch e := ev.(type) {
	case chat.Follow:
		resp.Route = RouteFollow
		resp.To = StateIdle
		err = errors.Join(err, m.clear(ctx, userID))
		resp.Reply = chat.ReplyTo(e, chat.TextMessage{Text: greetingText}, menuMessage())
	case chat.Text:
		m.handleText(e, &resp)
	case chat.Postback:
		err = errors.Join(err, m.handlePostback(ctx, e, &resp))
	case chat.Location:
		err = errors.Join(err, m.handleLocation(ctx, e, label, &resp))
	default:
		resp.Route = RouteFallback
		resp.Reply = chat.ReplyTo(ev, fallbackMessage())
	}
	return resp, err
}

func (m *Machine) current(ctx context.Context, userID string) (string, State, error) {
	label, ok, err := m.store.Get(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "service.session", "session.get",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return "", StateIdle, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return "", StateIdle, nil
	}
	return label, StateAwaitingLocation, nil
}

func (m *Machine) clear(ctx context.Context, userID string) error {
	if err := m.store.Delete(ctx, userID); err != nil {
		logger.Warn(ctx, "service.session", "session.delete",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (m *Machine) handleText(e chat.Text, resp *Response) {
	cmd := strings.TrimSpace(e.Text)
	var msg chat.Message
	switch cmd {
	case CommandFood:
		msg = cardMessage(m.catalog.FoodCard(), PostbackFoodRoulette)
	case CommandDrink:
		msg = cardMessage(m.catalog.DrinkCard(), PostbackDrinkRoulette)
	case CommandList:
		msg = categoryListing(m.catalog)
	case CommandRules:
		msg = rulesListing(m.catalog)
	case CommandMenu:
		msg = menuMessage()
	default:
		resp.Route = RouteFallback
		resp.Reply = chat.ReplyTo(e, fallbackMessage())
		return
	}
	resp.Route = RouteCommand
	resp.Command = cmd
	resp.Reply = chat.ReplyTo(e, msg)
}

func (m *Machine) handlePostback(ctx context.Context, e chat.Postback, resp *Response) error {
	switch postbackAction(e.Data) {
	case actionFoodRoulette:
		c := m.catalog.PickCategory(m.intn)
		resp.Route = RouteRoll
		resp.Game = GameFood
		resp.Choice = c.Label
		resp.To = StateAwaitingLocation
		resp.Reply = chat.ReplyTo(e, foodRollMessage(c))
		if err := m.store.Set(ctx, e.UserID, c.Label); err != nil {
			logger.Warn(ctx, "service.session", "session.set",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			return fmt.Errorf("store roll: %w", err)
		}
		return nil
	case actionDrinkRoulette:
		a := m.catalog.PickAction(m.intn)
		resp.Route = RouteRoll
		resp.Game = GameDrink
		resp.Choice = a.Name
		resp.Reply = chat.ReplyTo(e, drinkRollMessage(a.Name, m.catalog.Rule(a.Name)))
		return nil
	default:
		resp.Route = RouteFallback
		resp.Reply = chat.ReplyTo(e, fallbackMessage())
		return nil
	}
}

func (m *Machine) handleLocation(ctx context.Context, e chat.Location, label string, resp *Response) error {
	keyword := m.catalog.Keyword(label)
	res := m.venues.Lookup(ctx, e.Latitude, e.Longitude, keyword)

	resp.Route = RouteLocation
	resp.Lookup = &res
	resp.To = StateIdle
	resp.Reply = chat.ReplyTo(e, chat.TextMessage{
		Text:         res.Text(),
		QuickReplies: []chat.Action{chat.PostbackAction(labelFoodAgain, PostbackFoodRoulette)},
	})
	return m.clear(ctx, e.UserID)
}

// postbackAction extracts the action from "action=..." payloads; bare values are accepted as is.
func postbackAction(data string) string {
	data = strings.TrimSpace(data)
	if !strings.Contains(data, "=") {
		return data
	}
	q, err := url.ParseQuery(data)
	if err != nil {
		return ""
	}
	return q.Get("action")
}
