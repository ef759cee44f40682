package store

// Store defines the interface for a keyed collection with change notifications.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows changes to be pushed to connected clients (e.g., via
// Server-Sent Events).
type Store[T any] interface {
	// Replace swaps the whole collection. Entries with duplicate keys are
	// collapsed to the last occurrence. Every entry is published.
	Replace(items []T)

	// Apply reconciles a single entry into the collection. It returns true
	// and notifies subscribers only if the collection changed.
	Apply(item T) bool

	// GetAll returns the current collection in order.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []T

	// Get returns the entry for key, if present.
	Get(key string) (T, bool)

	// Subscribe returns a channel that receives changed entries.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan T

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan T)
}
