package cache

import "time"

// Entry is a cached value with its bookkeeping.
type Entry[T any] struct {
	Data           T
	InsertedAt     time.Time
	TTL            time.Duration
	AccessCount    int64
	LastAccessedAt time.Time
	// EstimatedSize is the serialized size of Data in bytes.
	EstimatedSize int
}

// expired reports whether the entry is logically absent at now.
func (e *Entry[T]) expired(now time.Time) bool {
	return !now.Before(e.InsertedAt.Add(e.TTL))
}

// remaining returns the lifetime left at now. It is negative once expired.
func (e *Entry[T]) remaining(now time.Time) time.Duration {
	return e.TTL - now.Sub(e.InsertedAt)
}
