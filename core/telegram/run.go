package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/roulettebot/core/config"
	"github.com/m3rciful/roulettebot/core/httpclient"
	"github.com/m3rciful/roulettebot/core/logger"
	"github.com/m3rciful/roulettebot/core/sender"
	tghelpers "github.com/m3rciful/roulettebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware applied with bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to any endpoint tele.Bot.Handle accepts.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions wires the Telegram channel.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Dispatcher delivers outbound messages. When nil one is built from
	// Config.Sender and closed when RunTelegram returns.
	Dispatcher *sender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	// KeepWebhook skips removing a stale webhook before long polling.
	KeepWebhook bool
}

// RunTelegram serves Telegram updates until ctx is cancelled.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config")
	}
	cfg := opts.Config
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	started := time.Now()
	poller := BuildPoller(cfg.Telegram, cfg.Webhook)
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: httpclient.New(httpclient.Options{Retries: 3}),
		OnError: func(err error, c tele.Context) {
			logger.Error(tghelpers.BuildContext(c), "tg", "tg.error", slog.String("err", err.Error()))
		},
	})
	if err != nil {
		return fmt.Errorf("telegram: create bot: %w", err)
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = sender.NewDispatcher(sender.Options{
			QueueSize:    cfg.Sender.QueueSize,
			Workers:      cfg.Sender.Workers,
			MaxRetries:   cfg.Sender.MaxRetries,
			RetryBackoff: time.Duration(cfg.Sender.RetryBackoffMS) * time.Millisecond,
		})
		defer dispatcher.Close()
	}
	tghelpers.SetDispatcher(dispatcher)
	defer tghelpers.SetDispatcher(nil)

	logMode(ctx, poller, logger.Took(started))
	if _, polling := poller.(*tele.LongPoller); polling && !opts.KeepWebhook {
		// A webhook left from an earlier deployment makes getUpdates fail with 409.
		err := bot.RemoveWebhook()
		logger.Info(ctx, "tg", "webhook.remove", slog.String("status", logger.Status(err)), errAttr(err))
	}

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	SetupCommands(bot, opts.Registry)

	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
	case <-done:
	}
	logger.Info(ctx, "tg", "stopped", slog.String("status", "ok"))
	return nil
}

func logMode(ctx context.Context, p tele.Poller, took time.Duration) {
	switch p := p.(type) {
	case *tele.Webhook:
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", took),
		)
	case *tele.LongPoller:
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", coreconfig.RunModeLongpoll),
			slog.Duration("timeout", p.Timeout),
			slog.Duration("duration", took),
		)
	}
}

func errAttr(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("err", err.Error())
}
