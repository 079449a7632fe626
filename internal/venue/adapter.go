package venue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/roulettebot/core/logger"
)

const (
	DefaultRadiusM  = 1000
	DefaultLimit    = 5
	DefaultLanguage = "zh-TW"
	DefaultTimeout  = 5 * time.Second
)

// Options configure every lookup made by an Adapter.
type Options struct {
	RadiusM  int
	Language string
	OpenNow  bool
	// Limit bounds how many venues are rendered.
	Limit   int
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.RadiusM <= 0 {
		o.RadiusM = DefaultRadiusM
	}
	if strings.TrimSpace(o.Language) == "" {
		o.Language = DefaultLanguage
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Adapter calls a Provider once per lookup and classifies the answer.
type Adapter struct {
	provider Provider
	opts     Options
}

// NewAdapter wraps provider with the given options; zero fields take defaults.
func NewAdapter(provider Provider, opts Options) *Adapter {
	return &Adapter{provider: provider, opts: opts.withDefaults()}
}

// Lookup searches around the coordinate. It never returns an error: provider
// failures, panics included, are reported through Result.Err.
func (a *Adapter) Lookup(ctx context.Context, lat, lon float64, keyword string) (res Result) {
	res = Result{Keyword: keyword, RadiusM: a.opts.RadiusM}
	if a.provider == nil {
		res.Outcome = OutcomeFailed
		res.Err = &ProviderError{Keyword: keyword, Err: ErrNoProvider}
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeFailed
			res.Venues = nil
			res.Err = &ProviderError{Keyword: keyword, Err: fmt.Errorf("panic: %v", r)}
		}
		a.log(ctx, res, time.Since(start))
	}()

	venues, err := a.provider.Search(ctx, Query{
		Latitude:  lat,
		Longitude: lon,
		Keyword:   keyword,
		RadiusM:   a.opts.RadiusM,
		Language:  a.opts.Language,
		OpenNow:   a.opts.OpenNow,
	})
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = &ProviderError{
			Keyword: keyword,
			Timeout: errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:     err,
		}
		return res
	}
	if len(venues) == 0 {
		res.Outcome = OutcomeEmpty
		return res
	}
	if len(venues) > a.opts.Limit {
		venues = venues[:a.opts.Limit]
	}
	res.Outcome = OutcomeFound
	res.Venues = append([]Venue(nil), venues...)
	return res
}

func (a *Adapter) log(ctx context.Context, res Result, took time.Duration) {
	attrs := []slog.Attr{
		slog.String("keyword", res.Keyword),
		slog.String("outcome", string(res.Outcome)),
		slog.Int("results", len(res.Venues)),
		slog.Duration("duration", logger.RoundMS(took)),
	}
	if res.Err != nil {
		attrs = append(attrs, slog.String("err", res.Err.Error()), slog.Bool("timeout", res.Err.Timeout))
		logger.Warn(ctx, "service.venue", "venue.lookup", attrs...)
		return
	}
	logger.Debug(ctx, "service.venue", "venue.lookup", attrs...)
}
