package llm

import "time"

// RetryConfig bounds how hard the client pushes a single endpoint
// before falling back. Field-decision calls are short, so backoff
// starts low and is capped well under a form's navigation timeout.
type RetryConfig struct {
	// MaxAttempts is the attempt budget per endpoint.
	MaxAttempts int

	// BackoffBase is the delay before the first retry.
	BackoffBase time.Duration

	// BackoffMultiplier grows the delay on each further retry.
	BackoffMultiplier float64

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the retry budget used for decision calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}
