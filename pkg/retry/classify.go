package retry

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/quaylabs/marketscout/pkg/backend"
)

// kindTable maps failure-message substrings to kinds. Checked in order so
// that specific categories (quota) win over generic ones (server error).
var kindTable = []struct {
	kind    Kind
	markers []string
}{
	{Overloaded, []string{"overloaded", "503", "service unavailable"}},
	{QuotaExhausted, []string{"quota", "resource exhausted", "limit exceeded"}},
	{RateLimited, []string{"rate limit", "rate_limit_exceeded", "429", "too many requests"}},
	{Timeout, []string{"timeout", "deadline exceeded", "timed out"}},
	{TransientOther, []string{"temporarily unavailable", "server error", "internal error", "500", "502", "504"}},
}

// ClassifyMessage maps a raw failure message to a Kind by case-insensitive
// substring match. Pure function; unmatched messages are Fatal so that only
// failures we recognize get retried.
func ClassifyMessage(message string) Kind {
	lower := strings.ToLower(message)
	for _, entry := range kindTable {
		for _, marker := range entry.markers {
			if strings.Contains(lower, marker) {
				return entry.kind
			}
		}
	}
	return Fatal
}

// Classify maps an error to a Kind. Structured information (context deadlines,
// backend status codes, net timeouts) is consulted before falling back to the
// message table.
func Classify(err error) Kind {
	if err == nil {
		return Fatal
	}
	if errors.Is(err, ErrDeadline) || errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	if errors.Is(err, context.Canceled) {
		return Fatal
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout
	}
	var backendErr *backend.Error
	if errors.As(err, &backendErr) {
		switch {
		case backendErr.Status == 503:
			return Overloaded
		case backendErr.Status == 429:
			return RateLimited
		case backendErr.Status >= 500 && backendErr.Status <= 599:
			return TransientOther
		}
		if backendErr.Temporary {
			return TransientOther
		}
	}
	return ClassifyMessage(err.Error())
}
