package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type ctxKey int

const (
	keyLogger ctxKey = iota
	keyRID
	keyChannel
	keyEventID
	keyUserID
	keyHandler
)

// ridAlphabet keeps generated request ids free of ':' so CompactRID leaves them alone.
const ridAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// contextFields lists the request-scoped values copied into every record, in log key order.
var contextFields = []struct {
	field string
	key   ctxKey
}{
	{"rid", keyRID},
	{"channel", keyChannel},
	{"event_id", keyEventID},
	{"user_id", keyUserID},
	{"handler", keyHandler},
}

func withString(ctx context.Context, key ctxKey, val string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if val == "" {
		return ctx
	}
	return context.WithValue(ctx, key, val)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

// WithLogger stores log in ctx so downstream layers log with the same attributes.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, keyLogger, log)
}

// FromContext returns the logger stored by WithLogger, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(keyLogger).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return L
}

// WithRID attaches a request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withString(ctx, keyRID, rid)
}

// RIDFrom returns the correlation id, if any.
func RIDFrom(ctx context.Context) string { return stringValue(ctx, keyRID) }

// WithEventMeta attaches the inbound event identifiers.
// channel names the transport ("line", "telegram"); userID is the session key of the sender.
func WithEventMeta(ctx context.Context, channel, eventID, userID string) context.Context {
	ctx = withString(ctx, keyChannel, channel)
	ctx = withString(ctx, keyEventID, eventID)
	return withString(ctx, keyUserID, userID)
}

// WithHandler records which handler is processing the event.
func WithHandler(ctx context.Context, handler string) context.Context {
	return withString(ctx, keyHandler, handler)
}

// HandlerFrom returns the handler name, if any.
func HandlerFrom(ctx context.Context) string { return stringValue(ctx, keyHandler) }

// UserIDFrom returns the sender id, if any.
func UserIDFrom(ctx context.Context) string { return stringValue(ctx, keyUserID) }

// EventIDFrom returns the inbound event id, if any.
func EventIDFrom(ctx context.Context) string { return stringValue(ctx, keyEventID) }

// ChannelFrom returns the transport name, if any.
func ChannelFrom(ctx context.Context) string { return stringValue(ctx, keyChannel) }

// Sanitize drops control and format runes from s, keeping tabs and newlines.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit sanitizes s and cuts it to at most max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(Sanitize(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max])
}

// BuildRID formats a Telegram correlation id as updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// NewRID returns a short random correlation id for webhook requests.
func NewRID() string {
	id, err := gonanoid.Generate(ridAlphabet, 12)
	if err != nil {
		return ""
	}
	return id
}

// CompactRID rewrites a numeric "a:b:c" id as dot-separated base36 segments.
// Anything else is returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
