package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/roulettebot/core/logger"
	tghelpers "github.com/m3rciful/roulettebot/core/telegram/helpers"
	"github.com/m3rciful/roulettebot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// updateKindOf names the update for the receipt log line.
func updateKindOf(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "postback"
	case upd.Message == nil:
		return "other"
	case upd.Message.Location != nil:
		return "location"
	case len(upd.Message.Text) > 0 && upd.Message.Text[0] == '/':
		return "command"
	}
	return "text"
}

// LoggerMiddleware stores the correlation id and start time on the context and
// writes a sampled debug line describing what arrived.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		if ch := c.Chat(); ch != nil {
			chatID = ch.ID
		}
		if u := c.Sender(); u != nil {
			userID = u.ID
		}
		c.Set("rid", logger.BuildRID(upd.ID, chatID, userID))
		c.Set("update_start", time.Now())
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebugFor("update.received") {
			kind := updateKindOf(upd)
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("event_type", kind),
			}
			if u := c.Sender(); u != nil && u.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", u.LanguageCode))
			}
			switch kind {
			case "postback":
				_, payload := keyboard.SplitCallback(upd.Callback)
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
			case "text", "command":
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(upd.Message.Text, 256)))
			}
			logger.LogEvent(ctx, nil, slog.LevelDebug, "update.received", attrs...)
		}
		return next(c)
	}
}
