package router

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/m3rciful/roulettebot/core/chat"
	"github.com/m3rciful/roulettebot/core/logger"
	tghelpers "github.com/m3rciful/roulettebot/core/telegram/helpers"
	"github.com/m3rciful/roulettebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// logSummary writes the one info line each handled update produces.
func logSummary(c tele.Context, ev chat.Event, reply chat.Reply, start time.Time, err error) {
	name := "on_" + string(ev.Type())
	ctx := tghelpers.WithHandler(c, name)
	sent, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("event_type", string(ev.Type())),
		slog.Int("messages", len(reply.Messages)),
		slog.Int("count", sent),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, nil, slog.LevelInfo, "handler.handled", attrs...)
}

// errorCode condenses an error into a stable upper-case code for dashboards.
func errorCode(err error) string {
	var api *tele.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, tele.ErrBlockedByUser):
		return "TG_BLOCKED"
	case errors.As(err, &api) && api.Code != 0:
		return "TG_" + strconv.Itoa(api.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	}
	return "SEND_FAILED"
}
