package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	r := New(&Config{MaxRetries: 2, JitterFactor: 3})

	assert.Equal(t, 2, r.config.MaxRetries)
	assert.Equal(t, time.Second, r.config.InitialInterval)
	assert.Equal(t, 30*time.Second, r.config.MaxInterval)
	assert.Equal(t, 2.0, r.config.Multiplier)
	assert.Equal(t, 1.0, r.config.JitterFactor)

	r = New(nil)
	assert.Equal(t, 5, r.config.MaxRetries)
}

func TestNew_DoesNotMutateCaller(t *testing.T) {
	cfg := &Config{MaxRetries: 1}
	New(cfg)
	assert.Zero(t, cfg.InitialInterval)
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, result.Attempts)
	assert.NoError(t, result.LastError)
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		retried = append(retried, attempt)
		assert.Positive(t, wait)
	}

	result := Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("broker timeout")
		}
		return nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_MaxRetriesExceeded(t *testing.T) {
	boom := errors.New("broker down")
	result := Do(context.Background(), fastConfig(2), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, result.Err, ErrMaxRetriesExceeded)
	assert.ErrorIs(t, result.LastError, boom)
	assert.Equal(t, 3, result.Attempts)
}

func TestDo_ZeroRetriesIsSingleAttempt(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastConfig(0), func(ctx context.Context) error {
		calls++
		return errors.New("nope")
	})

	assert.ErrorIs(t, result.Err, ErrMaxRetriesExceeded)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentErrorStops(t *testing.T) {
	invalid := errors.New("invalid payload")
	calls := 0
	result := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		calls++
		return Permanent(invalid)
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, invalid, result.Err)
	assert.Equal(t, invalid, result.LastError)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 10, InitialInterval: time.Hour}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	result := Do(ctx, cfg, func(ctx context.Context) error {
		calls++
		return errors.New("retry me")
	})

	assert.ErrorIs(t, result.Err, ErrContextCanceled)
	assert.Equal(t, 1, calls)
	assert.Error(t, result.LastError)
}

func TestDo_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Do(ctx, fastConfig(3), func(ctx context.Context) error {
		t.Fatal("operation must not run")
		return nil
	})
	assert.ErrorIs(t, result.Err, ErrContextCanceled)
	assert.Zero(t, result.Attempts)
}

func TestBackoff(t *testing.T) {
	r := New(&Config{InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second, Multiplier: 2})

	assert.Equal(t, 100*time.Millisecond, r.Backoff(0))
	assert.Equal(t, 200*time.Millisecond, r.Backoff(1))
	assert.Equal(t, 400*time.Millisecond, r.Backoff(2))
	assert.Equal(t, time.Second, r.Backoff(10))
}

func TestBackoff_Jitter(t *testing.T) {
	r := New(&Config{InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second, Multiplier: 2, JitterFactor: 0.5})

	for i := 0; i < 50; i++ {
		wait := r.Backoff(0)
		assert.GreaterOrEqual(t, wait, 50*time.Millisecond)
		assert.LessOrEqual(t, wait, 150*time.Millisecond)
	}
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(Permanent(errors.New("x"))))
	assert.False(t, IsPermanent(errors.New("x")))
	assert.Nil(t, Permanent(nil))
}
