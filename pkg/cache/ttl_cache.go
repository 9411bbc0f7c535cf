// Package cache holds the catalog cache backends: an in-process TTL map and
// a Redis store, both behind the byte-oriented Store interface.
package cache

import (
	"sync"
	"time"
)

type item[V any] struct {
	value    V
	deadline time.Time
}

func (it item[V]) live(now time.Time) bool { return now.Before(it.deadline) }

// TTLCache is a goroutine-safe map whose entries expire ttl after being set.
// Expired entries are never returned. A janitor goroutine drops them every
// sweepEvery until Close is called.
//
//	c := cache.New[string, []byte](5*time.Minute, time.Minute)
//	c.Set("all_courses", payload)
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]item[V]
	ttl   time.Duration
	now   func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

func New[K comparable, V any](ttl, sweepEvery time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		items: make(map[K]item[V]),
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go c.janitor(sweepEvery)
	return c
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	it, found := c.items[key]
	c.mu.RUnlock()

	if found && it.live(c.now()) {
		return it.value, true
	}
	var zero V
	return zero, false
}

// Set stores value under key with a fresh deadline.
func (c *TTLCache[K, V]) Set(key K, value V) {
	deadline := c.now().Add(c.ttl)
	c.mu.Lock()
	c.items[key] = item[V]{value: value, deadline: deadline}
	c.mu.Unlock()
}

// Len counts stored entries, expired ones not yet swept included.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}

// Close stops the janitor. Calling it twice is fine.
func (c *TTLCache[K, V]) Close() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *TTLCache[K, V]) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-t.C:
			c.sweep()
		}
	}
}

func (c *TTLCache[K, V]) sweep() {
	now := c.now()
	c.mu.Lock()
	for k, it := range c.items {
		if !it.live(now) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}
