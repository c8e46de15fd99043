package utils

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeySetNoDuplicates(t *testing.T) {
	s := NewKeySet()

	assert.True(t, s.Add("berlin"))
	assert.False(t, s.Add("berlin"))
	assert.True(t, s.Contains("berlin"))
	assert.Equal(t, 1, s.Size())
}

func TestKeySetConcurrency(t *testing.T) {
	s := NewKeySet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		_ = pool.Submit(context.Background(), func(context.Context) {
			if s.Add("glasgow") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	assert.Equal(t, int64(1), added)
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 50
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		_ = pool.Submit(context.Background(), func(context.Context) {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	require.Len(t, timestamps, 3)
	// jobs record their timestamp just after the limiter releases them
	want := time.Duration(rateLimitMs)*time.Millisecond - 5*time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < want {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, want)
		}
	}
}

func TestWorkerPoolSubmitHonoursCancellation(t *testing.T) {
	pool := NewWorkerPool(1, 10_000)
	ctx, cancel := context.WithCancel(context.Background())
	var ran int64
	job := func(context.Context) { atomic.AddInt64(&ran, 1) }

	require.NoError(t, pool.Submit(ctx, job))
	// accepted once the first job frees the worker, then held by the limiter
	require.NoError(t, pool.Submit(ctx, job))
	cancel()
	pool.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&ran), "rate-limited job is dropped on cancel")
	assert.ErrorIs(t, pool.Submit(ctx, job), context.Canceled)
	pool.Wait()
	assert.Equal(t, int64(1), atomic.LoadInt64(&ran))
}

func TestRetryStopsOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewLoggerTo(&buf, &buf, LevelDebug)}

	calls := 0
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, buf.String(), "attempt 1/3")
}

func TestRetryGivesUp(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
	sentinel := errors.New("down")
	err := r.Do(context.Background(), "op", func(context.Context) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour}
	err := r.Do(ctx, "op", func(context.Context) error { return errors.New("x") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoggerLevelsAndPrefix(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut, LevelInfo).With("slider")

	l.Debug("hidden")
	l.Info("loaded %d samples", 3)
	l.Error("boom")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[slider] loaded 3 samples")
	assert.True(t, strings.Contains(errOut.String(), "[slider] boom"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
}
