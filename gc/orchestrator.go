package gc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/projecteru2/core/log"
)

// Orchestrator runs GC across all registered modules.
type Orchestrator struct {
	modules []runner
}

// New creates an empty Orchestrator.
func New() *Orchestrator { return &Orchestrator{} }

// Register adds a typed Module to the Orchestrator.
// This is a package-level function (not a method) because Go methods cannot
// have type parameters.
func Register[S any](o *Orchestrator, m Module[S]) {
	o.modules = append(o.modules, m)
}

// Run executes one GC cycle:
//
//  1. TryLock all modules; abort if any lock is busy.
//  2. ReadDB each module to build a snapshot.
//  3. Resolve deletion targets per module against all snapshots.
//  4. Collect every module, targets or not.
//  5. Unlock all (deferred).
//
// Locks are held for the whole cycle so a run that finishes mid-cycle
// cannot have its fresh record pruned from a stale snapshot.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := log.WithFunc("gc.Run")

	var locked []runner
	var skipped []string
	for _, m := range o.modules {
		ok, err := m.getLocker().TryLock(ctx)
		if err != nil {
			logger.Warnf(ctx, "skip %s: TryLock error: %v", m.getName(), err)
			skipped = append(skipped, m.getName())
			continue
		}
		if !ok {
			logger.Warnf(ctx, "skip %s: lock held by another operation", m.getName())
			skipped = append(skipped, m.getName())
			continue
		}
		locked = append(locked, m)
	}
	defer func() {
		for _, m := range locked {
			m.getLocker().Unlock(ctx) //nolint:errcheck,gosec
		}
	}()

	if len(skipped) > 0 {
		return fmt.Errorf("gc aborted: modules skipped (lock busy): %s", strings.Join(skipped, ", "))
	}

	snapshots := make(map[string]any, len(locked))
	for _, m := range locked {
		snap, err := m.readSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("gc aborted: snapshot %s: %w", m.getName(), err)
		}
		snapshots[m.getName()] = snap
	}

	targets := make(map[string][]string)
	for _, m := range locked {
		if ids := m.resolveTargets(snapshots[m.getName()], snapshots); len(ids) > 0 {
			targets[m.getName()] = ids
		}
	}

	var errs []error
	for _, m := range locked {
		ids := targets[m.getName()]
		if err := m.collect(ctx, ids); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.getName(), err))
			continue
		}
		if len(ids) > 0 {
			logger.Infof(ctx, "%s: collected %d item(s)", m.getName(), len(ids))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("gc errors: %w", err)
	}
	return nil
}
