package telegram

import (
	"slices"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/roulettebot/core/config"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(
		coreconfig.TelegramConfig{RunMode: " Webhook "},
		coreconfig.WebhookConfig{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/tg"},
	)
	wh, ok := p.(*tele.Webhook)
	if !ok {
		t.Fatalf("webhook mode built %T", p)
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://bot.example.com/tg" {
		t.Fatalf("webhook = %+v", wh)
	}
	if !slices.Equal(wh.AllowedUpdates, AllowedUpdates) {
		t.Fatalf("allowed updates = %v", wh.AllowedUpdates)
	}
}

func TestBuildPollerLongPoll(t *testing.T) {
	lp, ok := BuildPoller(coreconfig.TelegramConfig{RunMode: "longpoll"}, coreconfig.WebhookConfig{}).(*tele.LongPoller)
	if !ok || lp.Timeout != 10*time.Second {
		t.Fatalf("long poller = %#v", lp)
	}
	if !slices.Equal(lp.AllowedUpdates, AllowedUpdates) {
		t.Fatalf("allowed updates = %v", lp.AllowedUpdates)
	}

	lp = BuildPoller(coreconfig.TelegramConfig{LongPollTimeoutSeconds: 25}, coreconfig.WebhookConfig{}).(*tele.LongPoller)
	if lp.Timeout != 25*time.Second {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
}
