package services

import (
	"container/list"
	"sync"
	"time"
)

// reportCache is an LRU with TTL for aggregation results. Reports are cheap
// to recompute but hit on every screen render, so a short TTL plus explicit
// purging on ledger changes keeps them both fast and fresh.
type reportCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
}

type reportEntry[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newReportCache[T any](maxSize int, ttl time.Duration) *reportCache[T] {
	return &reportCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *reportCache[T]) get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	entry := elem.Value.(*reportEntry[T])
	if time.Now().After(entry.expiresAt) {
		delete(c.items, entry.key)
		c.order.Remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return entry.data, true
}

func (c *reportCache[T]) set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &reportEntry[T]{key: key, data: data, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(entry)

	if c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			delete(c.items, oldest.Value.(*reportEntry[T]).key)
			c.order.Remove(oldest)
		}
	}
}

// purge drops every cached report. Called whenever a ledger change event
// arrives; report keys span arbitrary periods, so targeted invalidation
// would have to inspect each key anyway.
func (c *reportCache[T]) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
}
