package logger

import "strings"

// Level names as they appear in the "level" field.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

func levelName(level string) string {
	switch strings.ToLower(level) {
	case "":
		return LevelInfo
	case "warning":
		return LevelWarn
	}
	return strings.ToUpper(level)
}

// enum is a closed vocabulary for a log field.
type enum map[string]struct{}

func newEnum(values ...string) enum {
	e := make(enum, len(values))
	for _, v := range values {
		e[v] = struct{}{}
	}
	return e
}

// canon lower-cases v and reports whether it belongs to the vocabulary.
func (e enum) canon(v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	_, ok := e[v]
	return v, ok
}

var (
	statusValues  = newEnum("ok", "error", "fail", "skip", "retry", "rate_limited", "cancelled", "duplicate", "ignored")
	cacheValues   = newEnum("hit", "miss", "refresh")
	outcomeValues = newEnum("ok", "fail", "empty", "fallback", "cancelled", "rate_limited", "expired")
)

// strictFields drop values outside their vocabulary; status keeps them lower-cased.
var strictFields = map[string]enum{
	"cache":   cacheValues,
	"outcome": outcomeValues,
}

// defaultKeyOrder puts correlation data first, then the conversation, then transport detail.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full",
	"channel", "event_id", "event_type", "user_id", "chat_id", "handler",
	"ts_unix_nano",
	"operation", "state_from", "state_to", "game", "choice", "keyword", "outcome",
	"duration_ms", "messages", "count", "results", "cache", "payload",
	"lang", "username", "mode", "listen", "public_url", "http_code",
	"backend", "db", "host", "port", "topic",
	"err", "err_code", "cause", "retryable", "attempts", "backoff_ms",
	"rate_limited", "redelivery", "duplicate",
}
