// Package gc prunes state that no longer backs anything: index records
// whose artifact is gone and temp files left by interrupted writes.
package gc

import (
	"context"

	"github.com/batchkit/batchkit/lock"
)

// Module is one participant in a GC cycle. S is the snapshot type its
// ReadDB produces and its Resolve consumes.
type Module[S any] struct {
	Name string

	// Locker guards the module's index. GC aborts when it is busy.
	Locker lock.Locker

	// ReadDB snapshots the index. Called with the lock held.
	ReadDB func(ctx context.Context) (S, error)

	// Resolve picks the IDs to delete. others holds every module's snapshot
	// keyed by Name, for cross-module checks.
	Resolve func(snap S, others map[string]any) []string

	// Collect deletes ids. Called with the lock held. It may also sweep
	// stale temp files, so it runs even when ids is empty.
	Collect func(ctx context.Context, ids []string) error
}

func (m Module[S]) getName() string        { return m.Name }
func (m Module[S]) getLocker() lock.Locker { return m.Locker }
func (m Module[S]) readSnapshot(ctx context.Context) (any, error) {
	return m.ReadDB(ctx)
}

func (m Module[S]) resolveTargets(snap any, others map[string]any) []string {
	s, _ := snap.(S)
	if m.Resolve == nil {
		return nil
	}
	return m.Resolve(s, others)
}

func (m Module[S]) collect(ctx context.Context, ids []string) error {
	if m.Collect == nil {
		return nil
	}
	return m.Collect(ctx, ids)
}
