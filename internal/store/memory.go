package store

import (
	"sync"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps an ordered collection keyed by a caller-supplied key
// function. Updates go through [Apply], so an update replaces the entry in
// place and never appends a duplicate.
//
// Subscribers receive changed entries via buffered channels (buffer size
// 100). Updates are sent non-blocking; if a subscriber's buffer is full,
// the update is dropped for that subscriber to prevent blocking the writer.
type MemoryStore[T any] struct {
	key   func(T) string
	equal func(a, b T) bool

	mu    sync.RWMutex
	items []T

	subscribers map[chan T]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store].
//
// key extracts the unique id of an entry. equal, if non-nil, suppresses
// updates that would not change an entry.
func NewMemoryStore[T any](key func(T) string, equal func(a, b T) bool) *MemoryStore[T] {
	return &MemoryStore[T]{
		key:         key,
		equal:       equal,
		subscribers: make(map[chan T]struct{}),
	}
}

// Replace swaps the whole collection and publishes every entry.
func (m *MemoryStore[T]) Replace(items []T) {
	deduped := make([]T, 0, len(items))
	pos := make(map[string]int, len(items))
	for _, item := range items {
		k := m.key(item)
		if i, ok := pos[k]; ok {
			deduped[i] = item
			continue
		}
		pos[k] = len(deduped)
		deduped = append(deduped, item)
	}

	m.mu.Lock()
	m.items = deduped
	m.mu.Unlock()

	for _, item := range deduped {
		m.notifySubscribers(item)
	}
}

// Apply reconciles item into the collection and notifies subscribers if
// anything changed. Items whose key is not in the collection are ignored.
func (m *MemoryStore[T]) Apply(item T) bool {
	m.mu.Lock()
	next, changed := Apply(m.items, item, m.key, m.equal)
	m.items = next
	m.mu.Unlock()

	if changed {
		m.notifySubscribers(item)
	}
	return changed
}

// GetAll returns a snapshot of the collection in order.
//
// The returned slice is a copy; modifications do not affect the store.
func (m *MemoryStore[T]) GetAll() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, len(m.items))
	copy(out, m.items)
	return out
}

// Get returns the entry with the given key.
func (m *MemoryStore[T]) Get(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		if m.key(item) == key {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new updates are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore[T]) Subscribe() <-chan T {
	ch := make(chan T, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// After calling Unsubscribe, the channel will be closed and no further
// updates will be sent. Safe to call multiple times or with an unknown channel.
func (m *MemoryStore[T]) Unsubscribe(ch <-chan T) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the item to all active subscribers without blocking.
func (m *MemoryStore[T]) notifySubscribers(item T) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- item:
		default:
			// subscriber is slow, drop the message
		}
	}
}
