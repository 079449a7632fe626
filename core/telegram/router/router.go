// Package router turns Telegram updates into chat events and sends the replies back.
package router

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/roulettebot/core/chat"
	"github.com/m3rciful/roulettebot/core/logger"
	"github.com/m3rciful/roulettebot/core/telegram"
	tghelpers "github.com/m3rciful/roulettebot/core/telegram/helpers"
	"github.com/m3rciful/roulettebot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

type router struct {
	handler chat.Handler
	reg     *telegram.Registry
}

// Routes binds every command in reg plus text, location and button updates to h.
func Routes(h chat.Handler, reg *telegram.Registry) []telegram.Route {
	if reg == nil {
		reg = telegram.NewRegistry()
	}
	r := &router{handler: h, reg: reg}

	routes := []telegram.Route{
		{Endpoint: telegram.StartCommand, Handler: r.handle},
		{Endpoint: tele.OnText, Handler: r.handle},
		{Endpoint: tele.OnLocation, Handler: r.handle},
		{Endpoint: keyboard.PostbackButton(), Handler: r.handle},
		{Endpoint: tele.OnCallback, Handler: r.handle},
	}
	for name, cmd := range reg.Commands() {
		if name == telegram.StartCommand {
			continue
		}
		routes = append(routes, telegram.Route{Endpoint: name, Handler: r.handle})
		for _, alias := range cmd.Aliases {
			if !strings.HasPrefix(alias, "/") {
				alias = "/" + alias
			}
			routes = append(routes, telegram.Route{Endpoint: alias, Handler: r.handle})
		}
	}
	return routes
}

func (r *router) handle(c tele.Context) error {
	start := time.Now()
	ev, ok := translate(c.Update(), r.reg)
	if !ok {
		logger.Debug(tghelpers.BuildContext(c), "tg", "tg.update",
			slog.String("status", "skip"),
		)
		return nil
	}
	if c.Callback() != nil {
		_ = tghelpers.Respond(c)
	}

	ctx := tghelpers.BuildContext(c)
	reply, herr := r.handler.HandleEvent(ctx, ev)
	if herr != nil {
		logger.Debug(ctx, "tg", "tg.event",
			slog.String("status", "degraded"),
			slog.String("err", herr.Error()),
		)
	}
	err := deliver(c, reply)
	logSummary(c, ev, reply, start, err)
	return err
}

// deliver sends the reply messages in order as a single job; a retried job
// resumes after the last message that went out.
func deliver(c tele.Context, reply chat.Reply) error {
	if reply.Empty() {
		return nil
	}
	outs := make([]outgoing, 0, len(reply.Messages))
	for _, m := range reply.Messages {
		o, err := Render(m)
		if err != nil {
			return err
		}
		outs = append(outs, o)
	}

	sent := 0
	return tghelpers.Dispatch(c, "reply", outs[0].endpoint(), func(context.Context) error {
		for ; sent < len(outs); sent++ {
			if err := c.Send(outs[sent].What, outs[sent].opts()...); err != nil {
				return err
			}
		}
		return nil
	})
}

// translate maps an update onto a chat event. Slash commands resolve through reg.
func translate(upd tele.Update, reg *telegram.Registry) (chat.Event, bool) {
	switch {
	case upd.Callback != nil:
		src, ok := source(upd, upd.Callback.Sender, upd.Callback.Message)
		if !ok {
			return nil, false
		}
		unique, payload := keyboard.SplitCallback(upd.Callback)
		data := upd.Callback.Data
		if unique == keyboard.PostbackUnique {
			data = payload
		}
		return chat.Postback{Source: src, Data: data}, true

	case upd.Message != nil:
		msg := upd.Message
		src, ok := source(upd, msg.Sender, msg)
		if !ok {
			return nil, false
		}
		if msg.Location != nil {
			return chat.Location{
				Source:    src,
				Latitude:  float64(msg.Location.Lat),
				Longitude: float64(msg.Location.Lng),
			}, true
		}
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return nil, false
		}
		if strings.HasPrefix(text, "/") {
			name, cmd, found := reg.LookupCommand(text)
			switch {
			case found && name == telegram.StartCommand:
				return chat.Follow{Source: src}, true
			case found && cmd.Text != "":
				text = cmd.Text
			case !found && isStart(text):
				return chat.Follow{Source: src}, true
			}
		}
		return chat.Text{Source: src, Text: text}, true
	}
	return nil, false
}

func isStart(text string) bool {
	if i := strings.IndexAny(text, " @"); i > 0 {
		text = text[:i]
	}
	return text == telegram.StartCommand
}

// source fills user, reply and event ids. ReplyToken carries the chat id.
func source(upd tele.Update, sender *tele.User, msg *tele.Message) (chat.Source, bool) {
	if sender == nil {
		return chat.Source{}, false
	}
	chatID := sender.ID
	if msg != nil && msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	return chat.Source{
		UserID:     tghelpers.UserPrefix + strconv.FormatInt(sender.ID, 10),
		ReplyToken: strconv.FormatInt(chatID, 10),
		EventID:    strconv.Itoa(upd.ID),
	}, true
}
