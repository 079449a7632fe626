package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/m3rciful/roulettebot/core/bootstrap"
	coreconfig "github.com/m3rciful/roulettebot/core/config"
	"github.com/m3rciful/roulettebot/core/line"
	coretelegram "github.com/m3rciful/roulettebot/core/telegram"
	"github.com/m3rciful/roulettebot/internal/venue"
)

type nopMessenger struct{}

func (nopMessenger) Reply(context.Context, string, []messaging_api.MessageInterface) error {
	return nil
}

func (nopMessenger) Push(context.Context, string, []messaging_api.MessageInterface, string) error {
	return nil
}

func testConfig(t *testing.T) *coreconfig.Config {
	t.Helper()
	cfg := &coreconfig.Config{
		Line:     coreconfig.LineConfig{ChannelToken: "token", ChannelSecret: "secret"},
		Places:   coreconfig.PlacesConfig{APIKey: "key"},
		Telegram: coreconfig.TelegramConfig{Token: "1:abc"},
	}
	if err := coreconfig.Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return cfg
}

func TestRunStopsOnSignal(t *testing.T) {
	cfg := testConfig(t)
	booted := make(chan struct{})
	tgStarted := make(chan struct{})
	loggerClosed := false

	opts := Options{
		ConfigEnvVar: "ROULETTEBOT_TEST_CONFIG",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return cfg, nil
		},
		Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (*bootstrap.App, error) {
			a, err := bootstrap.Run(ctx, bootstrap.Options{
				Config:     cfg,
				LoggerInit: func(*coreconfig.Config) error { return nil },
				Provider: venue.ProviderFunc(func(context.Context, venue.Query) ([]venue.Venue, error) {
					return nil, nil
				}),
				Messenger: nopMessenger{},
			})
			if err != nil {
				return nil, err
			}
			a.Server = line.NewServer(line.ServerOptions{Addr: "127.0.0.1:0", Webhook: http.NotFoundHandler()})
			close(booted)
			return a, nil
		},
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if opts.Registry == nil || len(opts.Routes) == 0 {
				return errors.New("telegram options not wired")
			}
			close(tgStarted)
			<-ctx.Done()
			return nil
		},
		ShutdownLogger: func() error { loggerClosed = true; return nil },
		Signals:        []os.Signal{syscall.SIGUSR2},
	}

	done := make(chan error, 1)
	go func() { done <- Run(opts) }()

	select {
	case <-tgStarted:
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("telegram channel never started")
	}
	<-booted
	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR2); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after the signal")
	}
	if !loggerClosed {
		t.Fatal("logger was not shut down")
	}
}

func TestRunPropagatesChannelFailure(t *testing.T) {
	cfg := testConfig(t)
	want := errors.New("telegram down")
	err := Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return cfg, nil },
		Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (*bootstrap.App, error) {
			a, err := bootstrap.Run(ctx, bootstrap.Options{
				Config:     cfg,
				LoggerInit: func(*coreconfig.Config) error { return nil },
				Provider: venue.ProviderFunc(func(context.Context, venue.Query) ([]venue.Venue, error) {
					return nil, nil
				}),
				Messenger: nopMessenger{},
			})
			if err != nil {
				return nil, err
			}
			a.Server = line.NewServer(line.ServerOptions{Addr: "127.0.0.1:0", Webhook: http.NotFoundHandler()})
			return a, nil
		},
		RunTelegram:    func(context.Context, coretelegram.RunOptions) error { return want },
		ShutdownLogger: func() error { return nil },
		Signals:        []os.Signal{syscall.SIGUSR2},
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestRunLoadError(t *testing.T) {
	err := Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) { return nil, errors.New("bad yaml") },
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
