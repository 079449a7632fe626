package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/roulettebot/core/config"

	tele "gopkg.in/telebot.v4"
)

// AllowedUpdates are the update kinds the conversation router understands.
// Edits, channel posts and inline queries are never delivered.
var AllowedUpdates = []string{"message", "callback_query"}

// BuildPoller picks the update source from the Telegram section of the config.
// Anything other than webhook mode long-polls, 10s per request unless configured.
func BuildPoller(tg coreconfig.TelegramConfig, wh coreconfig.WebhookConfig) tele.Poller {
	if strings.EqualFold(strings.TrimSpace(tg.RunMode), coreconfig.RunModeWebhook) {
		return &tele.Webhook{
			Listen:         net.JoinHostPort(wh.Listen, strconv.Itoa(wh.Port)),
			AllowedUpdates: AllowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: wh.URL},
		}
	}
	timeout := 10 * time.Second
	if tg.LongPollTimeoutSeconds > 0 {
		timeout = time.Duration(tg.LongPollTimeoutSeconds) * time.Second
	}
	return &tele.LongPoller{Timeout: timeout, AllowedUpdates: AllowedUpdates}
}
