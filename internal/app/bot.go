// Package app wires the conversation machine to the ambient services: structured
// logging, Prometheus metrics and the audit stream.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/roulettebot/core/chat"
	"github.com/m3rciful/roulettebot/core/logger"
	"github.com/m3rciful/roulettebot/core/metrics"
	"github.com/m3rciful/roulettebot/internal/audit"
	"github.com/m3rciful/roulettebot/internal/catalog"
	"github.com/m3rciful/roulettebot/internal/conversation"
	"github.com/m3rciful/roulettebot/internal/session"
	"github.com/m3rciful/roulettebot/internal/venue"
)

// Deps are the collaborators of a Bot. Metrics and Audit are optional.
type Deps struct {
	Store   session.Store
	Catalog *catalog.Catalog
	Venues  conversation.VenueFinder
	Metrics *metrics.Exporter
	Audit   audit.Publisher
}

// Bot is the chat.Handler shared by every channel.
type Bot struct {
	machine *conversation.Machine
	metrics *metrics.Exporter
	audit   audit.Publisher
}

var _ chat.Handler = (*Bot)(nil)

// New builds a Bot; opts are passed to the conversation machine.
func New(deps Deps, opts ...conversation.Option) *Bot {
	pub := deps.Audit
	if pub == nil {
		pub = audit.Nop{}
	}
	finder := &timedFinder{next: deps.Venues, metrics: deps.Metrics}
	return &Bot{
		machine: conversation.New(deps.Store, deps.Catalog, finder, opts...),
		metrics: deps.Metrics,
		audit:   pub,
	}
}

// HandleEvent runs the machine and records the outcome.
func (b *Bot) HandleEvent(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	if ev == nil {
		return chat.Reply{}, conversation.ErrNilEvent
	}
	channel := logger.ChannelFrom(ctx)
	start := time.Now()
	b.metrics.EventReceived(channel, string(ev.Type()))

	resp, err := b.machine.Handle(ctx, ev)
	took := time.Since(start)

	b.metrics.Handled(channel, string(resp.Route), took)
	if resp.Route == conversation.RouteRoll {
		b.metrics.Pick(string(resp.Game), resp.Choice)
	}

	rec := record(channel, ev, resp)
	b.logSummary(ctx, rec, took, err)
	if pubErr := b.audit.Publish(ctx, rec); pubErr != nil {
		logger.Warn(ctx, "audit", "audit.publish",
			slog.String("status", "fail"),
			slog.String("err", pubErr.Error()),
		)
	}
	return resp.Reply, err
}

func record(channel string, ev chat.Event, resp conversation.Response) audit.Record {
	src := ev.EventSource()
	rec := audit.Record{
		At:        time.Now().UTC(),
		Channel:   channel,
		EventID:   src.EventID,
		EventType: string(ev.Type()),
		UserID:    src.UserID,
		Route:     string(resp.Route),
		StateFrom: string(resp.From),
		StateTo:   string(resp.To),
		Game:      string(resp.Game),
		Choice:    resp.Choice,
	}
	if resp.Route == conversation.RouteCommand {
		rec.Choice = resp.Command
	}
	if resp.Lookup != nil {
		rec.Keyword = resp.Lookup.Keyword
		rec.Outcome = string(resp.Lookup.Outcome)
		rec.Results = len(resp.Lookup.Venues)
	}
	return rec
}

func (b *Bot) logSummary(ctx context.Context, rec audit.Record, took time.Duration, err error) {
	attrs := []slog.Attr{
		slog.String("event_type", rec.EventType),
		slog.String("handler", rec.Route),
		slog.String("state_from", rec.StateFrom),
		slog.String("state_to", rec.StateTo),
		slog.Duration("duration", logger.RoundMS(took)),
	}
	if rec.Game != "" {
		attrs = append(attrs, slog.String("game", rec.Game))
	}
	if rec.Choice != "" {
		attrs = append(attrs, slog.String("choice", rec.Choice))
	}
	if rec.Keyword != "" {
		attrs = append(attrs,
			slog.String("keyword", rec.Keyword),
			slog.String("outcome", rec.Outcome),
			slog.Int("results", rec.Results),
		)
	}
	if err != nil {
		attrs = append(attrs, slog.String("status", "degraded"), slog.String("err", err.Error()))
		logger.Warn(ctx, "service.conversation", "conversation.handle", attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "ok"))
	logger.Info(ctx, "service.conversation", "conversation.handle", attrs...)
}

type timedFinder struct {
	next    conversation.VenueFinder
	metrics *metrics.Exporter
}

func (f *timedFinder) Lookup(ctx context.Context, lat, lon float64, keyword string) venue.Result {
	start := time.Now()
	res := f.next.Lookup(ctx, lat, lon, keyword)
	f.metrics.Lookup(string(res.Outcome), time.Since(start))
	return res
}
