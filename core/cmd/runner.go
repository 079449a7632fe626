// Package cmd loads the configuration, bootstraps the application and runs every
// channel until a termination signal arrives.
package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/roulettebot/core/bootstrap"
	coreconfig "github.com/m3rciful/roulettebot/core/config"
	"github.com/m3rciful/roulettebot/core/logger"
	coretelegram "github.com/m3rciful/roulettebot/core/telegram"
	"github.com/m3rciful/roulettebot/internal/session"
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// Options describe how to load configuration, bootstrap the app, and run it.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg *coreconfig.Config) (*bootstrap.App, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error

	// Signals cancel the run; defaults to SIGINT and SIGTERM.
	Signals []os.Signal
}

// Run loads configuration, bootstraps the app and serves until a signal arrives or
// a component fails.
func Run(opts Options) error {
	if opts.LoadConfig == nil {
		opts.LoadConfig = func(path string) (ConfigCarrier, error) {
			return coreconfig.Load(path, true)
		}
	}
	if opts.Bootstrap == nil {
		opts.Bootstrap = func(ctx context.Context, cfg *coreconfig.Config) (*bootstrap.App, error) {
			return bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
		}
	}

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}

	log.Printf("loading config: %s", cfgPath)
	carrier, err := opts.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	cfg := carrier.CoreConfig()
	if cfg == nil {
		return fmt.Errorf("cmd: loaded config is missing core configuration")
	}

	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := signal.NotifyContext(context.Background(), signals...)
	defer cancel()

	startedAt := time.Now()
	application, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	runTelegram := opts.RunTelegram
	if runTelegram == nil {
		runTelegram = coretelegram.RunTelegram
	}

	logger.Info(ctx, "app", "ready",
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	runErr := serve(ctx, application, runTelegram)

	logger.Info(context.Background(), "app", "shutdown", slog.String("status", logger.Status(runErr)))
	if err := application.Close(); err != nil {
		logger.Warn(context.Background(), "app", "close", slog.String("err", err.Error()))
	}
	return runErr
}

// serve runs the HTTP server, the optional Telegram bot and the session janitor;
// the first failure stops the others.
func serve(ctx context.Context, a *bootstrap.App, runTelegram func(context.Context, coretelegram.RunOptions) error) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Run(ctx)
	})
	if a.Telegram != nil {
		tg := *a.Telegram
		g.Go(func() error {
			return runTelegram(ctx, tg)
		})
	}
	if a.Purger != nil {
		g.Go(func() error {
			session.RunJanitor(ctx, a.Purger, a.PurgeEvery)
			return nil
		})
	}
	return g.Wait()
}
