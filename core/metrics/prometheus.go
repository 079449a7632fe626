// Package metrics exposes the bot's Prometheus collectors on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Namespace = "roulettebot"

	ChannelLabel = "channel"
	TypeLabel    = "type"
	RouteLabel   = "route"
	OutcomeLabel = "outcome"
	GameLabel    = "game"
	ChoiceLabel  = "choice"
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// Exporter owns the registry and every collector. A nil *Exporter is a valid no-op.
type Exporter struct {
	reg *prometheus.Registry

	invalidSignatures *prometheus.CounterVec
	eventsReceived    *prometheus.CounterVec
	duplicateEvents   *prometheus.CounterVec
	repliesSent       *prometheus.CounterVec
	picks             *prometheus.CounterVec
	lookups           *prometheus.CounterVec
	lookupDuration    *prometheus.HistogramVec
	handleDuration    *prometheus.HistogramVec
}

// NewExporter registers all collectors plus the Go and process collectors.
func NewExporter() *Exporter {
	e := &Exporter{reg: prometheus.NewRegistry()}

	e.invalidSignatures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "invalid_signatures_total",
		Help:      "Number of webhook deliveries rejected by signature check",
	}, []string{ChannelLabel})
	e.eventsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "events_received_total",
		Help:      "Number of inbound events by channel and type",
	}, []string{ChannelLabel, TypeLabel})
	e.duplicateEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "duplicate_events_total",
		Help:      "Number of redelivered events skipped",
	}, []string{ChannelLabel})
	e.repliesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "replies_total",
		Help:      "Number of replies by delivery outcome",
	}, []string{ChannelLabel, OutcomeLabel})
	e.picks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "roulette_picks_total",
		Help:      "Number of roulette picks by game and choice",
	}, []string{GameLabel, ChoiceLabel})
	e.lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "venue_lookups_total",
		Help:      "Number of venue lookups by outcome",
	}, []string{OutcomeLabel})
	e.lookupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "venue_lookup_duration_seconds",
		Help:      "Bucketed histogram of venue lookup latencies",
		Buckets:   durationBuckets,
	}, []string{OutcomeLabel})
	e.handleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "event_handle_duration_seconds",
		Help:      "Bucketed histogram of event handling latencies",
		Buckets:   durationBuckets,
	}, []string{ChannelLabel, RouteLabel})

	e.reg.MustRegister(
		e.invalidSignatures,
		e.eventsReceived,
		e.duplicateEvents,
		e.repliesSent,
		e.picks,
		e.lookups,
		e.lookupDuration,
		e.handleDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return e
}

// Registry exposes the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	if e == nil {
		return nil
	}
	return e.reg
}

// Handler serves the exposition format.
func (e *Exporter) Handler() http.Handler {
	if e == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{Registry: e.reg})
}

func (e *Exporter) InvalidSignature(channel string) {
	if e == nil {
		return
	}
	e.invalidSignatures.WithLabelValues(channel).Inc()
}

func (e *Exporter) EventReceived(channel, eventType string) {
	if e == nil {
		return
	}
	e.eventsReceived.WithLabelValues(channel, eventType).Inc()
}

func (e *Exporter) DuplicateEvent(channel string) {
	if e == nil {
		return
	}
	e.duplicateEvents.WithLabelValues(channel).Inc()
}

// Reply counts a delivery; outcome is one of ok, fail, push.
func (e *Exporter) Reply(channel, outcome string) {
	if e == nil {
		return
	}
	e.repliesSent.WithLabelValues(channel, outcome).Inc()
}

func (e *Exporter) Pick(game, choice string) {
	if e == nil {
		return
	}
	e.picks.WithLabelValues(game, choice).Inc()
}

func (e *Exporter) Lookup(outcome string, d time.Duration) {
	if e == nil {
		return
	}
	e.lookups.WithLabelValues(outcome).Inc()
	e.lookupDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (e *Exporter) Handled(channel, route string, d time.Duration) {
	if e == nil {
		return
	}
	e.handleDuration.WithLabelValues(channel, route).Observe(d.Seconds())
}
