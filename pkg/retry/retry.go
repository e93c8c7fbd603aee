package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Common errors
var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// InitialInterval is the wait before the first retry (default: 1s)
	InitialInterval time.Duration
	// MaxInterval caps the wait between attempts (default: 30s)
	MaxInterval time.Duration
	// Multiplier grows the wait after each retry (default: 2.0)
	Multiplier float64
	// JitterFactor spreads the wait by ±factor, clamped to [0, 1]
	JitterFactor float64
	// OnRetry is called before each wait, with the attempt that just failed
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultConfig returns default retry configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError marks an error that retrying cannot fix
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Do stops immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was wrapped with Permanent
func IsPermanent(err error) bool {
	var perm *PermanentError
	return errors.As(err, &perm)
}

// Result describes how a retried operation ended
type Result struct {
	// Err is nil on success, otherwise ErrMaxRetriesExceeded,
	// ErrContextCanceled or the unwrapped permanent error
	Err error
	// Attempts counts every call to the operation
	Attempts int
	// LastError is the error returned by the final attempt
	LastError error
	// TotalDuration includes the waits
	TotalDuration time.Duration
}

// Retrier runs operations with exponential backoff
type Retrier struct {
	config Config
}

// New creates a Retrier. Zero intervals and multiplier fall back to the
// defaults; the caller's config is not modified.
func New(config *Config) *Retrier {
	c := DefaultConfig()
	if config != nil {
		c.MaxRetries = config.MaxRetries
		c.JitterFactor = config.JitterFactor
		c.OnRetry = config.OnRetry
		if config.InitialInterval > 0 {
			c.InitialInterval = config.InitialInterval
		}
		if config.MaxInterval > 0 {
			c.MaxInterval = config.MaxInterval
		}
		if config.Multiplier > 0 {
			c.Multiplier = config.Multiplier
		}
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	c.JitterFactor = math.Max(0, math.Min(1, c.JitterFactor))

	return &Retrier{config: *c}
}

// Do calls op until it succeeds, returns a permanent error, exhausts
// MaxRetries or ctx is done
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	start := time.Now()
	result := &Result{}

	finish := func(err error) *Result {
		result.Err = err
		result.TotalDuration = time.Since(start)
		return result
	}

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return finish(ErrContextCanceled)
		}

		result.Attempts = attempt + 1
		err := op(ctx)
		if err == nil {
			return finish(nil)
		}
		result.LastError = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			result.LastError = perm.Err
			return finish(perm.Err)
		}
		if attempt >= r.config.MaxRetries {
			return finish(ErrMaxRetriesExceeded)
		}

		wait := r.Backoff(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return finish(ErrContextCanceled)
		case <-timer.C:
		}
	}
}

// Backoff returns the wait after the given zero-based attempt:
// InitialInterval * Multiplier^attempt, jittered and capped at MaxInterval
func (r *Retrier) Backoff(attempt int) time.Duration {
	interval := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))

	if r.config.JitterFactor > 0 {
		jitter := interval * r.config.JitterFactor
		interval += (rand.Float64()*2 - 1) * jitter
	}
	if interval > float64(r.config.MaxInterval) {
		interval = float64(r.config.MaxInterval)
	}
	if interval <= 0 {
		interval = float64(r.config.InitialInterval)
	}
	return time.Duration(interval)
}

// Do is a convenience wrapper around New(config).Do
func Do(ctx context.Context, config *Config, op Operation) *Result {
	return New(config).Do(ctx, op)
}
