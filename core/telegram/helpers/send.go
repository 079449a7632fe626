package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/roulettebot/core/logger"
	"github.com/m3rciful/roulettebot/core/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// Dispatch runs a send on the dispatcher, or inline when none is set or its queue
// cannot take the job.
func Dispatch(c tele.Context, action, endpoint string, run func(ctx context.Context) error) error {
	ctx := BuildContext(c)
	disp := currentDispatcher()
	if disp == nil {
		return run(ctx)
	}

	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run(ctx)
		}
		return err
	}
	return nil
}

// Send delivers what (text, *tele.Photo, ...) to the chat of the current update.
// Delivery happens on the dispatcher when one is set, synchronously otherwise.
func Send(c tele.Context, action string, what any, opts ...any) error {
	endpoint := "sendMessage"
	if _, ok := what.(*tele.Photo); ok {
		endpoint = "sendPhoto"
	}
	return Dispatch(c, action, endpoint, func(context.Context) error {
		return c.Send(what, opts...)
	})
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	if len(markup) > 0 && markup[0] != nil {
		return Send(c, "send.text", text, markup[0])
	}
	return Send(c, "send.text", text)
}

// Respond acknowledges a callback query so the client stops its spinner.
func Respond(c tele.Context) error {
	if c == nil || c.Callback() == nil {
		return nil
	}
	return Dispatch(c, "callback.respond", "answerCallbackQuery", func(context.Context) error {
		return c.Respond()
	})
}
