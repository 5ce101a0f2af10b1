package gc

import (
	"context"

	"github.com/batchkit/batchkit/lock"
)

// runner erases the snapshot type of a Module[S] so the Orchestrator can
// keep modules of different S in one slice.
type runner interface {
	getName() string
	getLocker() lock.Locker
	readSnapshot(ctx context.Context) (any, error)
	resolveTargets(snap any, others map[string]any) []string
	collect(ctx context.Context, ids []string) error
}
