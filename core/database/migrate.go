package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/roulettebot/core/logger"
	"github.com/m3rciful/roulettebot/migrations"
)

const readyWait = 30 * time.Second

// RunMigrations brings the session schema up to date. Migrations come from
// cfg.MigrationsDir when set (relative paths resolve against the working
// directory) and from the copy compiled into the binary otherwise.
func RunMigrations(ctx context.Context, cfg Config) error {
	if err := WaitForPostgres(ctx, cfg, readyWait); err != nil {
		logger.Error(ctx, "db.migrate", "db.migrate",
			slog.String("status", "fail"),
			slog.String("cause", "not_ready"),
			slog.String("err", err.Error()),
		)
		return err
	}

	src, origin, err := migrationSource(cfg.MigrationsDir)
	if err != nil {
		return err
	}
	files := upFiles(src)
	logger.Debug(ctx, "db.migrate", "resolve", filesAttrs(origin, files)...)

	driver, err := iofs.New(src, ".")
	if err != nil {
		return fmt.Errorf("read migrations from %s: %w", origin, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", driver, MigrateURL(cfg))
	if err != nil {
		logger.Error(ctx, "db.migrate", "db.migrate",
			slog.String("status", "fail"),
			slog.String("cause", "init"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logSummary(ctx, from, from, 0, logger.Took(start))
		return nil
	case err != nil:
		logger.Error(ctx, "db.migrate", "apply",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}

	to, _, _ := m.Version()
	applied := selectApplied(files, uint64(from), uint64(to))
	if len(applied) > 0 {
		logger.Debug(ctx, "db.migrate", "apply", filesAttrs("", applied)...)
	}
	logSummary(ctx, from, to, len(applied), logger.Took(start))
	return nil
}

// migrationSource returns the file system to migrate from and a name for logs.
func migrationSource(dir string) (fs.FS, string, error) {
	if strings.TrimSpace(dir) == "" {
		return migrations.FS, "embedded", nil
	}
	abs, err := resolveDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	return os.DirFS(abs), abs, nil
}

func resolveDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	return filepath.Abs(dir)
}

// upFiles lists the *.up.sql names in src in lexical, hence version, order.
func upFiles(src fs.FS) []string {
	names, err := fs.Glob(src, "*.up.sql")
	if err != nil {
		return nil
	}
	return names
}

// selectApplied returns the files whose version lies in (from, to].
func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		prefix, _, _ := strings.Cut(f, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err == nil && v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}

func filesAttrs(origin string, files []string) []slog.Attr {
	attrs := []slog.Attr{slog.Int("count", len(files))}
	if origin != "" {
		attrs = append(attrs, slog.String("path", origin))
	}
	if preview, more := logger.SummarizeStrings(files, 6); preview != "" {
		attrs = append(attrs, slog.String("files", preview), slog.Bool("truncated", more))
	}
	return attrs
}

func logSummary(ctx context.Context, from, to uint, n int, took time.Duration) {
	logger.Info(ctx, "db.migrate", "summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("count", n),
		slog.Duration("duration", took),
	)
}
