// Package netutil holds the retry policy shared by the HTTP client and the outbound dispatcher.
package netutil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Transient reports whether err is a network failure worth another attempt:
// a timeout anywhere in the chain or a dial that never connected.
// Errors above the transport (TLS, bad requests, cancellation) are final.
func Transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial"
}

// RetryableStatus reports whether an upstream HTTP status is worth retrying.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Backoff sleeps base*attempt, returning early with ctx's error when it ends first.
func Backoff(ctx context.Context, base time.Duration, attempt int) error {
	t := time.NewTimer(base * time.Duration(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
