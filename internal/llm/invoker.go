package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultAttempts is the total number of provider calls per invocation.
const DefaultAttempts = 3

const (
	minDelayUnits = 2
	maxDelayUnits = 10
)

// ErrProvider matches every ProviderError via errors.Is.
var ErrProvider = errors.New("text generation provider failed")

// ProviderError reports that every attempt failed. Err is the last failure,
// or the context error when the wait between attempts was cancelled.
type ProviderError struct {
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// Invoker calls a Provider with bounded retry and exponential backoff. Every
// failure is treated as retryable.
type Invoker struct {
	Provider Provider
	// Attempts defaults to DefaultAttempts when zero.
	Attempts int
	// Unit is the backoff time unit. Defaults to one second.
	Unit time.Duration
	// Sleep waits for d or until ctx is done. Tests inject a recorder.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Backoff returns the wait before the given attempt (attempt >= 2):
// 2^(attempt-1) units clamped to [2, 10] units.
func Backoff(attempt int, unit time.Duration) time.Duration {
	if attempt < 2 {
		return 0
	}
	units := maxDelayUnits
	if exp := attempt - 1; exp < 4 {
		units = 1 << exp
	}
	if units < minDelayUnits {
		units = minDelayUnits
	}
	if units > maxDelayUnits {
		units = maxDelayUnits
	}
	return time.Duration(units) * unit
}

// Invoke returns the first successful completion for prompt.
func (iv *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	if iv == nil || iv.Provider == nil {
		return "", &ProviderError{Err: errors.New("provider not configured")}
	}
	attempts := iv.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	unit := iv.Unit
	if unit <= 0 {
		unit = time.Second
	}
	sleep := iv.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for k := 1; k <= attempts; k++ {
		if k > 1 {
			d := Backoff(k, unit)
			log.Debug().Int("attempt", k).Dur("delay", d).Msg("retrying provider")
			if err := sleep(ctx, d); err != nil {
				return "", &ProviderError{Attempts: k - 1, Err: err}
			}
		}
		if err := ctx.Err(); err != nil {
			return "", &ProviderError{Attempts: k - 1, Err: err}
		}
		out, err := iv.Provider.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", k).Int("of", attempts).Msg("provider call failed")
	}
	return "", &ProviderError{Attempts: attempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
