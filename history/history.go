// Package history keeps the run index: one record per fetch, scan or refine
// invocation, persisted as JSON under a cross-process file lock.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/batchkit/batchkit/config"
	"github.com/batchkit/batchkit/lock"
	"github.com/batchkit/batchkit/storage"
	storejson "github.com/batchkit/batchkit/storage/json"
	"github.com/batchkit/batchkit/types"
)

var (
	ErrNotFound  = errors.New("run not found")
	ErrAmbiguous = errors.New("run reference is ambiguous")
)

// Index is the top-level structure of runs.json.
type Index struct {
	Runs map[string]*types.Run `json:"runs"`
}

// Init implements storage.Initer.
func (idx *Index) Init() {
	if idx.Runs == nil {
		idx.Runs = make(map[string]*types.Run)
	}
}

// History is the run index of one root directory.
type History struct {
	conf   *config.Config
	store  storage.Store[Index]
	locker lock.Locker
}

// New opens the run index under conf.RootDir, creating its directory.
func New(conf *config.Config) (*History, error) {
	if err := conf.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("ensure dirs: %w", err)
	}
	store, locker := storejson.Open[Index](conf.RunsFile(), conf.RunsLock())
	return &History{conf: conf, store: store, locker: locker}, nil
}

// NewRun starts a record for a run of kind reading input.
func NewRun(kind types.RunKind, input string) *types.Run {
	return &types.Run{
		ID:        newID(),
		Kind:      kind,
		Input:     input,
		StartedAt: time.Now(),
	}
}

// newID returns a time-ordered UUID so IDs sort like their start times.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Record stores run, replacing any record with the same ID. A zero
// FinishedAt is stamped with the current time.
func (h *History) Record(ctx context.Context, run *types.Run) error {
	if run == nil || run.ID == "" {
		return errors.New("record run: missing ID")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	return h.store.Update(ctx, func(idx *Index) error {
		rec := *run
		idx.Runs[run.ID] = &rec
		return nil
	})
}

// List returns every record, oldest first.
func (h *History) List(ctx context.Context) ([]*types.Run, error) {
	var runs []*types.Run
	err := h.store.With(ctx, func(idx *Index) error {
		runs = sortedRuns(idx.Runs)
		return nil
	})
	return runs, err
}

// Lookup finds a record by full ID or unique ID prefix.
func (h *History) Lookup(ctx context.Context, ref string) (*types.Run, error) {
	var run *types.Run
	err := h.store.With(ctx, func(idx *Index) error {
		id, err := resolveRef(idx, ref)
		if err != nil {
			return err
		}
		run = idx.Runs[id]
		return nil
	})
	return run, err
}

// Delete removes the records refs point at and returns their IDs. Unknown
// references fail the whole call and nothing is removed.
func (h *History) Delete(ctx context.Context, refs []string) ([]string, error) {
	var deleted []string
	err := h.store.Update(ctx, func(idx *Index) error {
		ids := make([]string, 0, len(refs))
		for _, ref := range refs {
			id, err := resolveRef(idx, ref)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		for _, id := range ids {
			if _, ok := idx.Runs[id]; ok {
				delete(idx.Runs, id)
				deleted = append(deleted, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func resolveRef(idx *Index, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrNotFound)
	}
	if _, ok := idx.Runs[ref]; ok {
		return ref, nil
	}
	var match string
	for id := range idx.Runs {
		if !strings.HasPrefix(id, ref) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", ErrAmbiguous, ref)
		}
		match = id
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return match, nil
}

func sortedRuns(m map[string]*types.Run) []*types.Run {
	runs := make([]*types.Run, 0, len(m))
	for _, r := range m {
		if r != nil {
			runs = append(runs, r)
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.Before(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs
}
