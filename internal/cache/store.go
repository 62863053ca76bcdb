// Package cache holds lazily created instances keyed by a comparable key.
package cache

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Store is a thread-safe instance cache. Concurrent GetOrCreate calls for the
// same key share a single create call.
type Store[K comparable] struct {
	mu        sync.RWMutex
	instances map[K]any

	// gen changes on Clear so in-flight creations never repopulate a cleared store.
	gen   uint64
	group singleflight.Group
}

// New creates an empty Store.
func New[K comparable]() *Store[K] {
	return &Store[K]{
		instances: make(map[K]any),
	}
}

// Get retrieves an instance from the cache.
func (s *Store[K]) Get(key K) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	instance, ok := s.instances[key]
	return instance, ok
}

// GetOrCreate returns the cached instance for key, calling create at most once
// to fill it. created reports whether this caller ran create. Errors from
// create are returned as-is and nothing is cached.
func (s *Store[K]) GetOrCreate(key K, create func() (any, error)) (instance any, created bool, err error) {
	s.mu.RLock()
	if instance, ok := s.instances[key]; ok {
		s.mu.RUnlock()
		return instance, false, nil
	}
	gen := s.gen
	s.mu.RUnlock()

	instance, err, _ = s.group.Do(fmt.Sprintf("%d:%#v", gen, key), func() (any, error) {
		// A flight for this key may have finished between the miss above and now.
		if v, ok := s.Get(key); ok {
			return v, nil
		}

		created = true
		v, err := create()
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.gen == gen {
			s.instances[key] = v
		}
		s.mu.Unlock()

		return v, nil
	})
	if err != nil {
		return nil, created, err
	}

	return instance, created, nil
}

// Delete removes an instance from the cache.
func (s *Store[K]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.instances, key)
}

// DeleteFunc removes every instance whose key matches and returns how many
// were removed.
func (s *Store[K]) DeleteFunc(match func(K) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.instances {
		if match(key) {
			delete(s.instances, key)
			removed++
		}
	}
	return removed
}

// Clear removes all instances from the cache.
func (s *Store[K]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = make(map[K]any)
	s.gen++
}

// Len returns the number of cached instances.
func (s *Store[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}
