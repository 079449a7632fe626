package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/m3rciful/roulettebot/core/netutil"
)

// StatusError is implemented by platform API errors that carry an HTTP status.
type StatusError interface {
	error
	HTTPStatus() int
}

// secrets match credentials that end up inside transport error strings.
var secrets = []*regexp.Regexp{
	regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`),
	regexp.MustCompile(`key=[A-Za-z0-9_-]+`),
}

type failure struct {
	kind   string
	status int
	retry  bool
}

// classify buckets err for logs and decides whether another attempt may help.
func classify(err error) failure {
	status := statusOf(err)
	f := failure{
		kind:   "unknown",
		status: status,
		retry:  netutil.Transient(err) || netutil.RetryableStatus(status),
	}
	var (
		dns   *net.DNSError
		op    *net.OpError
		nerr  net.Error
		alert tls.AlertError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &nerr) && nerr.Timeout():
		f.kind = "timeout"
	case errors.As(err, &dns):
		f.kind = "dns"
	case errors.As(err, &op) && op.Op == "dial":
		f.kind = "dial"
	case errors.As(err, &alert):
		f.kind = "tls"
	case status == 429:
		f.kind = "rate_limited"
	case status >= 500:
		f.kind = "http_5xx"
	case status >= 400:
		f.kind = "http_4xx"
	}
	return f
}

// statusOf reads the status from a StatusError, or from the "(NNN)" suffix
// Telegram client errors end with.
func statusOf(err error) int {
	if err == nil {
		return 0
	}
	var se StatusError
	if errors.As(err, &se) {
		return se.HTTPStatus()
	}
	msg := strings.TrimSpace(err.Error())
	if !strings.HasSuffix(msg, ")") {
		return 0
	}
	open := strings.LastIndexByte(msg, '(')
	if open < 0 {
		return 0
	}
	code, convErr := strconv.Atoi(msg[open+1 : len(msg)-1])
	if convErr != nil {
		return 0
	}
	return code
}

// redact strips bot tokens, bearer credentials and API keys from err's text.
func redact(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, re := range secrets {
		msg = re.ReplaceAllString(msg, "<redacted>")
	}
	return msg
}
