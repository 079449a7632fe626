package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/roulettebot/core/logger"
)

// Purger is implemented by backends that need explicit removal of expired entries.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RunJanitor purges expired entries every interval until ctx is done.
func RunJanitor(ctx context.Context, p Purger, every time.Duration) {
	if p == nil || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "service.session", "session.purge",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "service.session", "session.purge",
					slog.String("status", "ok"),
					slog.Int64("count", n),
					slog.Duration("duration", logger.Took(start)),
				)
			}
		}
	}
}
