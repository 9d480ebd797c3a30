// Package retry contains the resilience layer for remote calls: failure
// classification, backoff computation, deadline-bounded execution and the
// retrying caller every remote call site goes through.
package retry

// Kind classifies a remote failure for retry and escalation decisions.
type Kind string

const (
	// Overloaded means the service reported it cannot take more load (503).
	Overloaded Kind = "overloaded"
	// RateLimited means the caller exceeded a request-rate limit (429).
	RateLimited Kind = "rate_limited"
	// QuotaExhausted means a usage quota ran out and needs time to refresh.
	QuotaExhausted Kind = "quota_exhausted"
	// Timeout means the call exceeded its deadline.
	Timeout Kind = "timeout"
	// TransientOther covers retryable server-side failures with no better match.
	TransientOther Kind = "transient_other"
	// Fatal means retrying the same call cannot help.
	Fatal Kind = "fatal"
)

// Retryable reports whether a call that failed with this kind may be retried.
func (k Kind) Retryable() bool {
	return k != Fatal
}

func (k Kind) String() string {
	return string(k)
}
