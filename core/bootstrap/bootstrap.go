// Package bootstrap turns a loaded configuration into a ready-to-run application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/roulettebot/core/config"
	coredatabase "github.com/m3rciful/roulettebot/core/database"
	"github.com/m3rciful/roulettebot/core/httpclient"
	"github.com/m3rciful/roulettebot/core/line"
	"github.com/m3rciful/roulettebot/core/logger"
	"github.com/m3rciful/roulettebot/core/metrics"
	"github.com/m3rciful/roulettebot/core/sender"
	coretelegram "github.com/m3rciful/roulettebot/core/telegram"
	tgrouter "github.com/m3rciful/roulettebot/core/telegram/router"
	"github.com/m3rciful/roulettebot/internal/app"
	"github.com/m3rciful/roulettebot/internal/audit"
	"github.com/m3rciful/roulettebot/internal/catalog"
	"github.com/m3rciful/roulettebot/internal/session"
	"github.com/m3rciful/roulettebot/internal/venue"
)

// Options control the bootstrap pipeline. Nil hooks take the production defaults.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error

	// Provider replaces the Google Places provider.
	Provider venue.Provider
	// Messenger replaces the LINE Messaging API client.
	Messenger line.Messenger
}

// App holds everything the runner starts and stops.
type App struct {
	Config     *coreconfig.Config
	Bot        *app.Bot
	Server     *line.Server
	Dispatcher *sender.Dispatcher
	Metrics    *metrics.Exporter

	// Purger is set when expired sessions must be removed periodically.
	Purger     session.Purger
	PurgeEvery time.Duration
	Telegram   *coretelegram.RunOptions
	closers    []func() error
}

// Close releases the dispatcher, the audit stream and the session backend, in
// reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run initializes the logger and wires every component declared by the config.
func Run(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	a := &App{Config: cfg}
	fail := func(err error) (*App, error) {
		_ = a.Close()
		return nil, err
	}

	store, err := buildStore(ctx, a, opts)
	if err != nil {
		return fail(fmt.Errorf("bootstrap: session store: %w", err))
	}

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return fail(fmt.Errorf("bootstrap: catalog: %w", err))
	}

	provider := opts.Provider
	if provider == nil {
		provider, err = venue.NewGoogleProvider(cfg.Places.APIKey, httpclient.New(httpclient.Options{
			Timeout: time.Duration(cfg.Places.TimeoutMS) * time.Millisecond,
		}))
		if err != nil {
			return fail(fmt.Errorf("bootstrap: places provider: %w", err))
		}
	}
	venues := venue.NewAdapter(provider, venue.Options{
		RadiusM:  cfg.Places.RadiusM,
		Language: cfg.Places.Language,
		OpenNow:  cfg.Places.OpenNow,
		Limit:    cfg.Places.MaxResults,
		Timeout:  time.Duration(cfg.Places.TimeoutMS) * time.Millisecond,
	})

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.NewExporter()
	}

	pub, err := buildAudit(cfg.Audit)
	if err != nil {
		return fail(fmt.Errorf("bootstrap: audit: %w", err))
	}
	a.closers = append(a.closers, pub.Close)

	a.Bot = app.New(app.Deps{
		Store:   store,
		Catalog: cat,
		Venues:  venues,
		Metrics: a.Metrics,
		Audit:   pub,
	})

	a.Dispatcher = sender.NewDispatcher(sender.Options{
		QueueSize:    cfg.Sender.QueueSize,
		Workers:      cfg.Sender.Workers,
		MaxRetries:   cfg.Sender.MaxRetries,
		RetryBackoff: time.Duration(cfg.Sender.RetryBackoffMS) * time.Millisecond,
	})
	a.closers = append(a.closers, func() error { a.Dispatcher.Close(); return nil })

	messenger := opts.Messenger
	if messenger == nil {
		messenger, err = line.NewClient(cfg.Line.ChannelToken, httpclient.New(httpclient.Options{
			Timeout: 10 * time.Second,
			Retries: 1,
		}))
		if err != nil {
			return fail(fmt.Errorf("bootstrap: line client: %w", err))
		}
	}
	hook := line.NewWebhook(a.Bot, messenger, line.WebhookOptions{
		ChannelSecret: cfg.Line.ChannelSecret,
		PushFallback:  cfg.Line.PushFallback,
		DedupeWindow:  time.Duration(cfg.Line.DedupeWindowSeconds) * time.Second,
		Metrics:       a.Metrics,
		Pusher:        a.Dispatcher,
	})
	serverOpts := line.ServerOptions{
		Addr:            net.JoinHostPort(cfg.Server.Listen, strconv.Itoa(cfg.Server.Port)),
		CallbackPath:    cfg.Line.CallbackPath,
		Webhook:         hook,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second,
	}
	if a.Metrics != nil {
		serverOpts.Metrics = a.Metrics.Handler()
		serverOpts.MetricsPath = cfg.Metrics.Path
	}
	a.Server = line.NewServer(serverOpts)

	if cfg.TelegramEnabled() {
		reg := TelegramCommands()
		a.Telegram = &coretelegram.RunOptions{
			Config:      cfg,
			Registry:    reg,
			Dispatcher:  a.Dispatcher,
			Middlewares: coretelegram.DefaultMiddlewares(cfg, nil),
			Routes:      tgrouter.Routes(a.Bot, reg),
		}
	}

	logger.Info(ctx, "app", "bootstrap",
		slog.String("status", "ok"),
		slog.String("session_backend", cfg.Session.Backend),
		slog.Int("categories", len(cat.Categories())),
		slog.Int("actions", len(cat.Actions())),
		slog.Bool("metrics", a.Metrics != nil),
		slog.Bool("audit", len(cfg.Audit.Brokers) > 0),
		slog.Bool("telegram", a.Telegram != nil),
	)
	return a, nil
}

func loadCatalog(cfg coreconfig.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Path == "" {
		return catalog.Default()
	}
	return catalog.Load(cfg.Path)
}

func buildAudit(cfg coreconfig.AuditConfig) (audit.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return audit.Nop{}, nil
	}
	return audit.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}
