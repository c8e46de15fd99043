package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool runs jobs on a bounded number of goroutines, spacing job starts
// by at least the rate limit.
type WorkerPool struct {
	rateLimit time.Duration
	semaphore chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	lastStart time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		rateLimit: time.Duration(rateLimitMs) * time.Millisecond,
		semaphore: make(chan struct{}, maxWorkers),
	}
}

// Submit blocks until a worker is free, then runs job on it. It returns
// ctx.Err() without scheduling job once ctx is done. A job still waiting on
// the rate limit when ctx ends is dropped.
func (wp *WorkerPool) Submit(ctx context.Context, job func(ctx context.Context)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if wp.throttle(ctx) != nil {
			return
		}
		job(ctx)
	}()
	return nil
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) throttle(ctx context.Context) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wait := wp.rateLimit - time.Since(wp.lastStart); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	wp.lastStart = time.Now()
	return nil
}

// KeySet is a thread-safe set of strings, used to skip cities or URLs that
// were already handled.
type KeySet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[string]struct{})}
}

// Add reports whether key was newly added.
func (s *KeySet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

func (s *KeySet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[key]
	return exists
}

func (s *KeySet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
