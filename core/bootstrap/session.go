package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/roulettebot/core/config"
	coredatabase "github.com/m3rciful/roulettebot/core/database"
	"github.com/m3rciful/roulettebot/internal/session"
)

// purgeEvery bounds how long an expired row may linger in memory or postgres.
const purgeEvery = time.Minute

// buildStore opens the configured session backend and registers its closer on a.
func buildStore(ctx context.Context, a *App, opts Options) (session.Store, error) {
	cfg := a.Config
	sopts := session.Options{TTL: time.Duration(cfg.Session.TTLSeconds) * time.Second}

	switch cfg.Session.Backend {
	case coreconfig.SessionRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return session.NewRedisStore(client, cfg.Session.Redis.KeyPrefix, sopts), nil

	case coreconfig.SessionPostgres:
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(ctx, cfg.Database); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		db, err := connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		store := session.NewPostgresStore(db, sopts)
		if sopts.TTL > 0 {
			a.Purger, a.PurgeEvery = store, purgeEvery
		}
		return store, nil

	default:
		store := session.NewMemoryStore(sopts)
		if sopts.TTL > 0 {
			a.Purger, a.PurgeEvery = store, purgeEvery
		}
		return store, nil
	}
}
