// Package memo turns "compute term n from all previous terms" functions into
// cached, monotonically extending sequences.
package memo

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNegativeIndex is returned when a term below zero is requested.
var ErrNegativeIndex = errors.New("memo: negative index")

// StepFunc computes term n. prev holds exactly terms 0..n-1 and must not be
// modified or retained.
type StepFunc[T any] func(n int, prev []T) T

// Sequence is an append-only cache in front of a StepFunc. It is safe for
// concurrent use: one caller extends the cache at a time, while lookups of
// already cached terms only take a read lock.
type Sequence[T any] struct {
	step StepFunc[T]

	extend sync.Mutex // serializes writers

	mu    sync.RWMutex
	cache []T
}

// New returns a sequence whose first terms are seeds.
func New[T any](seeds []T, step StepFunc[T]) *Sequence[T] {
	cache := make([]T, len(seeds))
	copy(cache, seeds)
	return &Sequence[T]{step: step, cache: cache}
}

// Term returns term n, computing and caching every missing term up to n.
func (s *Sequence[T]) Term(n int) (T, error) {
	if n < 0 {
		var zero T
		return zero, fmt.Errorf("%w: %d", ErrNegativeIndex, n)
	}
	if v, ok := s.cached(n); ok {
		return v, nil
	}

	s.extend.Lock()
	defer s.extend.Unlock()

	// Another writer may have got there first.
	s.mu.RLock()
	local := s.cache
	s.mu.RUnlock()
	if n < len(local) {
		return local[n], nil
	}

	// Elements below len(s.cache) are never written again, so readers of
	// the published slice are unaffected by appends to local.
	for k := len(local); k <= n; k++ {
		local = append(local, s.step(k, local[:k:k]))
	}

	s.mu.Lock()
	s.cache = local
	s.mu.Unlock()
	return local[n], nil
}

func (s *Sequence[T]) cached(n int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < len(s.cache) {
		return s.cache[n], true
	}
	var zero T
	return zero, false
}

// Len reports how many terms are cached, seeds included.
func (s *Sequence[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
