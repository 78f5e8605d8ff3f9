package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Policy retries transient failures with exponential backoff. Whether an
// error is retryable is decided by the Retryable predicate; anything else
// fails immediately.
type Policy struct {
	Attempts  int
	Backoff   time.Duration
	Retryable func(error) bool
	Log       *zap.Logger
}

// Default matches every non-nil error. Callers dealing with mixed error
// domains should supply their own predicate.
func NewPolicy(attempts int, backoff time.Duration, log *zap.Logger) Policy {
	return Policy{
		Attempts:  attempts,
		Backoff:   backoff,
		Retryable: func(err error) bool { return err != nil },
		Log:       log,
	}
}

func (p Policy) WithRetryable(fn func(error) bool) Policy {
	p.Retryable = fn
	return p
}

// Do runs fn up to Attempts+1 times, sleeping Backoff*2^attempt between
// tries. The context is checked before each retry; cancellation wins.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts < 0 {
		attempts = 0
	}

	var last error
	for attempt := 0; attempt <= attempts; attempt++ {
		last = fn()
		if last == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(last) {
			return last
		}
		if attempt == attempts {
			break
		}

		wait := p.Backoff * (1 << attempt)
		if p.Log != nil {
			p.Log.Warn("retrying after error",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", attempts),
				zap.Duration("wait", wait),
				zap.Error(last),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return last
}
