// Package helpers carries per-update state between Telegram middlewares, the
// router and the outbound dispatcher.
package helpers

import (
	"context"
	"strconv"

	"github.com/m3rciful/roulettebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	// Channel tags Telegram events in logs, metrics and audit records.
	Channel = "telegram"
	// UserPrefix keeps Telegram session keys apart from LINE user ids.
	UserPrefix = "tg:"

	ctxKey = "request_ctx"
)

// UserID returns the session key of the update sender, or "" for anonymous updates.
func UserID(c tele.Context) string {
	if u := c.Sender(); u != nil {
		return UserPrefix + strconv.FormatInt(u.ID, 10)
	}
	return ""
}

// BuildContext returns the request context of the update, creating it on first
// use. It carries the rid set by the logging middleware (or one derived from the
// update), the channel, update id and sender session key, and the "tg" logger.
func BuildContext(c tele.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(ctxKey).(context.Context); ok {
		return ctx
	}
	upd := c.Update()
	rid, _ := c.Get("rid").(string)
	if rid == "" {
		var chatID, userID int64
		if ch := c.Chat(); ch != nil {
			chatID = ch.ID
		}
		if u := c.Sender(); u != nil {
			userID = u.ID
		}
		rid = logger.BuildRID(upd.ID, chatID, userID)
	}
	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithEventMeta(ctx, Channel, strconv.Itoa(upd.ID), UserID(c))
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	c.Set(ctxKey, ctx)
	return ctx
}

// WithHandler tags the request context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" && c != nil {
		ctx = logger.WithHandler(ctx, handler)
		c.Set(ctxKey, ctx)
	}
	return ctx
}
