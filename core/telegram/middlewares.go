package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/roulettebot/core/config"
	tghelpers "github.com/m3rciful/roulettebot/core/telegram/helpers"
	"github.com/m3rciful/roulettebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// RateLimitedText is sent to users who write faster than rate_limit.interval_ms allows.
const RateLimitedText = "慢一點喔～請稍等一下再試 🙏"

// DefaultMiddlewares builds the shared middleware chain: recover, optional rate
// limit, receipt logging and message counters. A nil onLimited answers with
// RateLimitedText.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error) []Middleware {
	if onLimited == nil {
		onLimited = func(c tele.Context) error {
			return tghelpers.SendText(c, RateLimitedText)
		}
	}
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			opts := middleware.RateLimitOptions{
				Interval:  interval,
				Exclude:   ex,
				OnLimited: onLimited,
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use:  middleware.RateLimitMiddleware(opts),
			})
		}
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "counters", Use: middleware.MessageCountersMiddleware},
	)

	return mws
}
