package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/batchkit/batchkit/lock"
	"github.com/batchkit/batchkit/lock/flock"
	"github.com/batchkit/batchkit/storage"
	"github.com/batchkit/batchkit/utils"
)

// compile-time interface check.
var _ storage.Store[struct{}] = (*Store[struct{}])(nil)

// Store provides lock-protected read/modify/write access to a JSON file.
// T is the top-level structure stored in the file (must have exported fields with json tags).
// If *T implements storage.Initer, Init() is called automatically after loading.
type Store[T any] struct {
	filePath string
	locker   lock.Locker
}

// New creates a Store for filePath guarded by locker.
func New[T any](filePath string, locker lock.Locker) *Store[T] {
	return &Store[T]{filePath: filePath, locker: locker}
}

// Open creates a flock-backed Store and returns the locker alongside it, so
// the locker can be handed to a gc.Module while sharing the same lock file.
func Open[T any](filePath, lockPath string) (*Store[T], lock.Locker) {
	locker := flock.New(lockPath)
	return New[T](filePath, locker), locker
}

// With loads the JSON file under lock and passes the deserialized data to fn.
// If the file does not exist, fn receives a zero-value T.
func (s *Store[T]) With(ctx context.Context, fn func(*T) error) error {
	return lock.WithLock(ctx, s.locker, func() error {
		return s.Read(fn)
	})
}

// Update performs a read-modify-write on the JSON file under lock.
// If fn returns nil the data is atomically written back.
func (s *Store[T]) Update(ctx context.Context, fn func(*T) error) error {
	return lock.WithLock(ctx, s.locker, func() error {
		return s.Write(fn)
	})
}

// Read loads the file without locking.
func (s *Store[T]) Read(fn func(*T) error) error {
	data, err := s.load()
	if err != nil {
		return err
	}
	return fn(data)
}

// Write loads, mutates and persists the file without locking.
func (s *Store[T]) Write(fn func(*T) error) error {
	data, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	return utils.AtomicWriteJSON(s.filePath, data)
}

// TryLock attempts a non-blocking acquisition of the store lock.
func (s *Store[T]) TryLock(ctx context.Context) (bool, error) {
	return s.locker.TryLock(ctx)
}

// Unlock releases a lock taken with TryLock.
func (s *Store[T]) Unlock(ctx context.Context) error {
	return s.locker.Unlock(ctx)
}

func (s *Store[T]) load() (*T, error) {
	var data T
	raw, err := os.ReadFile(s.filePath) //nolint:gosec // internal metadata
	if err != nil {
		if os.IsNotExist(err) {
			initData(&data)
			return &data, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.filePath, err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	initData(&data)
	return &data, nil
}

func initData[T any](data *T) {
	if initer, ok := any(data).(storage.Initer); ok {
		initer.Init()
	}
}
