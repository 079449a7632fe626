package line

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/roulettebot/core/chat"
	"github.com/m3rciful/roulettebot/core/logger"
	"github.com/m3rciful/roulettebot/core/metrics"
)

// Channel is the channel name carried in logs, metrics and audit records.
const Channel = "line"

// Enqueuer schedules asynchronous outbound work; *sender.Dispatcher satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, action, endpoint string, run func(ctx context.Context) error) error
}

// WebhookOptions configure a Webhook.
type WebhookOptions struct {
	ChannelSecret string
	// PushFallback pushes the reply when the reply call fails.
	PushFallback bool
	// DedupeWindow is how long handled event ids are remembered; zero disables it.
	DedupeWindow time.Duration
	Metrics      *metrics.Exporter
	// Pusher runs push fallbacks; required when PushFallback is set.
	Pusher Enqueuer
}

// Webhook is the http.Handler for the LINE callback endpoint.
type Webhook struct {
	secret       string
	handler      chat.Handler
	messenger    Messenger
	pusher       Enqueuer
	pushFallback bool
	metrics      *metrics.Exporter
	seen         *seenEvents
}

// NewWebhook binds handler and messenger to the channel secret.
func NewWebhook(handler chat.Handler, messenger Messenger, opts WebhookOptions) *Webhook {
	return &Webhook{
		secret:       opts.ChannelSecret,
		handler:      handler,
		messenger:    messenger,
		pusher:       opts.Pusher,
		pushFallback: opts.PushFallback && opts.Pusher != nil,
		metrics:      opts.Metrics,
		seen:         newSeenEvents(opts.DedupeWindow),
	}
}

func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cb, err := webhook.ParseRequest(h.secret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.metrics.InvalidSignature(Channel)
			logger.Warn(ctx, "line", "line.webhook",
				slog.String("status", "fail"),
				slog.String("err_code", "invalid_signature"),
			)
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		logger.Warn(ctx, "line", "line.webhook",
			slog.String("status", "fail"),
			slog.String("err_code", "bad_request"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var g errgroup.Group
	for _, events := range h.byUser(ctx, cb.Events) {
		g.Go(func() error {
			for _, ev := range events {
				h.dispatch(ctx, ev)
			}
			return nil
		})
	}
	_ = g.Wait()

	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// byUser translates a delivery into per-user event lists, keeping delivery order
// within each list. Events without a user id get a list of their own.
func (h *Webhook) byUser(ctx context.Context, in []webhook.EventInterface) [][]chat.Event {
	var groups [][]chat.Event
	index := make(map[string]int)
	for i, e := range in {
		ev, ok := translate(e)
		if !ok {
			logger.Debug(ctx, "line", "line.event",
				slog.String("status", "skip"),
				slog.String("event_type", e.GetType()),
			)
			continue
		}
		key := ev.EventSource().UserID
		if key == "" {
			key = "#" + strconv.Itoa(i)
		}
		n, ok := index[key]
		if !ok {
			n = len(groups)
			index[key] = n
			groups = append(groups, nil)
		}
		groups[n] = append(groups[n], ev)
	}
	return groups
}

func (h *Webhook) dispatch(ctx context.Context, ev chat.Event) {
	src := ev.EventSource()
	ctx = logger.WithEventMeta(ctx, Channel, src.EventID, src.UserID)

	if h.seen.Seen(src.EventID) {
		h.metrics.DuplicateEvent(Channel)
		logger.Info(ctx, "line", "line.event",
			slog.String("status", "duplicate"),
			slog.String("event_type", string(ev.Type())),
			slog.Bool("redelivery", src.Redelivery),
		)
		return
	}

	reply, err := h.handler.HandleEvent(ctx, ev)
	if err != nil {
		logger.Debug(ctx, "line", "line.event",
			slog.String("status", "degraded"),
			slog.String("err", err.Error()),
		)
	}
	h.seen.Mark(src.EventID)
	h.deliver(ctx, reply)
}

func (h *Webhook) deliver(ctx context.Context, reply chat.Reply) {
	if reply.Empty() {
		return
	}
	msgs, err := Render(reply.Messages)
	if err != nil {
		logger.Error(ctx, "line", "line.render",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	if len(msgs) > MaxMessagesPerCall {
		msgs = msgs[:MaxMessagesPerCall]
	}

	start := time.Now()
	if reply.ReplyToken != "" {
		err = h.messenger.Reply(ctx, reply.ReplyToken, msgs)
		if err == nil {
			h.metrics.Reply(Channel, "ok")
			logger.Debug(ctx, "line", "line.reply",
				slog.String("status", "ok"),
				slog.Int("messages", len(msgs)),
				slog.Duration("duration", logger.Took(start)),
			)
			return
		}
		h.metrics.Reply(Channel, "fail")
		logger.Warn(ctx, "line", "line.reply",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.Duration("duration", logger.Took(start)),
		)
	}

	if !h.pushFallback || reply.UserID == "" {
		return
	}
	retryKey := NewRetryKey()
	to := reply.UserID
	enqErr := h.pusher.Enqueue(ctx, "push", Channel, func(ctx context.Context) error {
		return h.messenger.Push(ctx, to, msgs, retryKey)
	})
	if enqErr != nil {
		logger.Error(ctx, "line", "line.push",
			slog.String("status", "fail"),
			slog.String("err", enqErr.Error()),
		)
		return
	}
	h.metrics.Reply(Channel, "push")
	logger.Info(ctx, "line", "line.push",
		slog.String("status", "queued"),
		slog.Int("messages", len(msgs)),
	)
}

// translate maps supported webhook events onto chat events.
func translate(e webhook.EventInterface) (chat.Event, bool) {
	switch ev := e.(type) {
	case webhook.FollowEvent:
		return chat.Follow{Source: source(ev.Source, ev.ReplyToken, ev.WebhookEventId, ev.DeliveryContext)}, true
	case webhook.PostbackEvent:
		data := ""
		if ev.Postback != nil {
			data = ev.Postback.Data
		}
		return chat.Postback{Source: source(ev.Source, ev.ReplyToken, ev.WebhookEventId, ev.DeliveryContext), Data: data}, true
	case webhook.MessageEvent:
		src := source(ev.Source, ev.ReplyToken, ev.WebhookEventId, ev.DeliveryContext)
		switch m := ev.Message.(type) {
		case webhook.TextMessageContent:
			return chat.Text{Source: src, Text: m.Text}, true
		case webhook.LocationMessageContent:
			return chat.Location{Source: src, Latitude: m.Latitude, Longitude: m.Longitude}, true
		}
	}
	return nil, false
}

func source(s webhook.SourceInterface, replyToken, eventID string, dc *webhook.DeliveryContext) chat.Source {
	out := chat.Source{ReplyToken: replyToken, EventID: eventID}
	if dc != nil {
		out.Redelivery = dc.IsRedelivery
	}
	switch src := s.(type) {
	case webhook.UserSource:
		out.UserID = src.UserId
	case webhook.GroupSource:
		out.UserID = src.UserId
	case webhook.RoomSource:
		out.UserID = src.UserId
	}
	return out
}
