package line

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/m3rciful/roulettebot/core/logger"
)

// ServerOptions describe the public HTTP surface.
type ServerOptions struct {
	Addr         string
	CallbackPath string
	Webhook      http.Handler
	// Metrics is mounted on MetricsPath when non-nil.
	Metrics         http.Handler
	MetricsPath     string
	ShutdownTimeout time.Duration
}

// Server serves the webhook, liveness and metrics endpoints.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

// NewServer builds the server; call Run to start it.
func NewServer(opts ServerOptions) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewMux(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// NewMux registers the routes wrapped in recovery and request logging.
func NewMux(opts ServerOptions) http.Handler {
	callback := opts.CallbackPath
	if callback == "" {
		callback = "/callback"
	}
	mux := http.NewServeMux()
	mux.Handle("POST "+callback, opts.Webhook)
	mux.HandleFunc("GET /{$}", ok)
	mux.HandleFunc("GET /healthz", ok)
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, opts.Metrics)
	}
	return withRecover(withRequestLog(mux))
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK")
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http", "http.listen", slog.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "http", "http.shutdown",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		_ = s.srv.Close()
		return err
	}
	logger.Info(ctx, "http", "http.shutdown", slog.String("status", "ok"))
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logger.WithRID(r.Context(), logger.NewRID())
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		if r.URL.Path == "/healthz" || strings.HasPrefix(r.URL.Path, "/metrics") {
			return
		}
		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", rec.status),
			slog.Duration("duration", logger.Took(start)),
		}
		if rec.status >= http.StatusBadRequest {
			logger.Warn(ctx, "http", "http.request", append(attrs, slog.String("status", "fail"))...)
			return
		}
		logger.Debug(ctx, "http", "http.request", append(attrs, slog.String("status", "ok"))...)
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error(r.Context(), "http", "http.panic",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
