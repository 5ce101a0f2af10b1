package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/batchkit/batchkit/gc"
	"github.com/batchkit/batchkit/utils"
)

const typ = "runs"

// historySnapshot is the typed GC snapshot for the run index.
type historySnapshot struct {
	missing []string // run IDs whose output artifact is gone
}

// GCModule returns the GC module that prunes records of vanished artifacts
// and temp files left by interrupted atomic writes.
func (h *History) GCModule() gc.Module[historySnapshot] {
	return gc.Module[historySnapshot]{
		Name:   typ,
		Locker: h.locker,
		ReadDB: func(_ context.Context) (historySnapshot, error) {
			var snap historySnapshot
			err := h.store.Read(func(idx *Index) error {
				for id, run := range idx.Runs {
					if run == nil || run.Output == "" {
						continue
					}
					if _, err := os.Stat(run.Output); os.IsNotExist(err) {
						snap.missing = append(snap.missing, id)
					}
				}
				return nil
			})
			sort.Strings(snap.missing)
			return snap, err
		},
		Resolve: func(snap historySnapshot, _ map[string]any) []string {
			return snap.missing
		},
		Collect: func(ctx context.Context, ids []string) error {
			var errs []error
			stale := utils.StaleTemp(time.Now())
			for _, dir := range h.tempDirs() {
				errs = append(errs, utils.RemoveMatching(ctx, dir, stale)...)
			}
			if len(ids) > 0 {
				errs = append(errs, h.store.Write(func(idx *Index) error {
					for _, id := range ids {
						delete(idx.Runs, id)
					}
					return nil
				}))
			}
			return errors.Join(errs...)
		},
	}
}

// tempDirs lists the index directory plus every directory a run wrote its
// artifact into. Called with the lock held.
func (h *History) tempDirs() []string {
	dirs := []string{h.conf.DBDir()}
	seen := map[string]struct{}{h.conf.DBDir(): {}}
	_ = h.store.Read(func(idx *Index) error {
		for _, run := range idx.Runs {
			if run == nil || run.Output == "" {
				continue
			}
			d := filepath.Dir(run.Output)
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				dirs = append(dirs, d)
			}
		}
		return nil
	})
	return dirs
}

// RegisterGC registers the run index GC module with the given Orchestrator.
func (h *History) RegisterGC(orch *gc.Orchestrator) {
	gc.Register(orch, h.GCModule())
}
