// Package storage abstracts the locked document stores batchkit keeps its
// run index in.
package storage

import "context"

// Initer is implemented by documents that need nil maps filled after
// decoding or when nothing has been stored yet.
type Initer interface {
	Init()
}

// Store is a single document of type T behind a lock.
type Store[T any] interface {
	// With passes the current document to fn under the lock. Changes are
	// not saved.
	With(ctx context.Context, fn func(*T) error) error
	// Update passes the document to fn under the lock and saves it when fn
	// returns nil.
	Update(ctx context.Context, fn func(*T) error) error

	// Read and Write are the unlocked forms of With and Update, for callers
	// that already hold the lock through TryLock (GC).
	Read(fn func(*T) error) error
	Write(fn func(*T) error) error

	// TryLock returns (false, nil) when the lock is taken.
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}
