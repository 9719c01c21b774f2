package transfer

import (
	"time"

	"github.com/mbarrette/sentrypi/internal/debug"
)

// Outcome is the structured result of a bounded-retry delivery.
// Callers inspect it instead of relying on control-flow interruption;
// Err carries the last attempt's error when the budget is exhausted.
type Outcome struct {
	Attempts int
	Err      error
}

// OK reports whether the delivery eventually succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Policy bounds the retry behaviour: up to MaxAttempts attempts with a
// fixed Delay between them. Application-reported failures and
// transport-level failures are retried identically; there is no
// differentiated backoff and no circuit breaking. The caller blocks
// for up to (MaxAttempts-1)*Delay in the worst case, with no
// cancellation honored mid-retry.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration

	// Sleep is injectable for tests.
	Sleep func(time.Duration)
}

// DefaultPolicy matches the delivery budget used across the app.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 2 * time.Second}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Delay <= 0 {
		p.Delay = 2 * time.Second
	}
	if p.Sleep == nil {
		p.Sleep = time.Sleep
	}
	return p
}

// Do applies fn under the policy and returns its result together with
// the outcome. On exhaustion the zero T is returned and Outcome.Err
// holds the last error.
func Do[T any](p Policy, op string, fn func() (T, error)) (T, Outcome) {
	p = p.normalized()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := fn()
		debug.Attempt(op, attempt, p.MaxAttempts, err)
		if err == nil {
			return result, Outcome{Attempts: attempt}
		}

		lastErr = err
		if attempt < p.MaxAttempts {
			p.Sleep(p.Delay)
		}
	}

	return zero, Outcome{Attempts: p.MaxAttempts, Err: lastErr}
}

// Run is Do for deliveries without a result value.
func Run(p Policy, op string, fn func() error) Outcome {
	_, outcome := Do(p, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return outcome
}
