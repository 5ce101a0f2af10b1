// Package scan walks a directory tree and describes every regular file
// found under it.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/batchkit/batchkit/metrics"
	"github.com/batchkit/batchkit/progress"
	scanProgress "github.com/batchkit/batchkit/progress/scan"
	"github.com/batchkit/batchkit/types"
)

// Options tunes a walk.
type Options struct {
	// FollowSymlinks descends into symlinked directories. Each real
	// directory is visited once, so link cycles terminate.
	FollowSymlinks bool
	Metrics        *metrics.Metrics
}

type walker struct {
	root    string
	opts    Options
	tracker progress.Tracker
	visited map[string]struct{}
	entries []types.FileEntry
	dirs    int
}

// Walk scans root recursively. Files of a directory are listed before its
// subdirectories, both in name order. Unreadable directories and files that
// cannot be stat'ed are logged and skipped. The only errors are an invalid
// root and ctx cancellation.
func Walk(ctx context.Context, root string, opts Options, tracker progress.Tracker) ([]types.FileEntry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}

	w := &walker{
		root:    abs,
		opts:    opts,
		tracker: progress.Or(tracker),
		visited: map[string]struct{}{},
		entries: []types.FileEntry{},
	}
	err = w.walkDir(ctx, abs)
	opts.Metrics.AddScannedFiles(len(w.entries))
	w.tracker.OnEvent(scanProgress.Event{Phase: scanProgress.PhaseDone, Dirs: w.dirs, Files: len(w.entries)})
	if err != nil {
		return w.entries, err
	}
	log.WithFunc("scan.Walk").Infof(ctx, "scanned %d files under %s", len(w.entries), abs)
	return w.entries, nil
}

func (w *walker) walkDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan canceled at %s: %w", dir, err)
	}
	logger := log.WithFunc("scan.Walk")

	if real, err := filepath.EvalSymlinks(dir); err == nil {
		if _, seen := w.visited[real]; seen {
			return nil
		}
		w.visited[real] = struct{}{}
	}

	des, err := os.ReadDir(dir)
	if err != nil {
		logger.Warnf(ctx, "cannot read directory %s: %v", dir, err)
		return nil
	}
	w.dirs++
	w.tracker.OnEvent(scanProgress.Event{Phase: scanProgress.PhaseDir, Dir: dir, Dirs: w.dirs, Files: len(w.entries)})

	var subdirs []string
	for _, de := range des {
		path := filepath.Join(dir, de.Name())
		if de.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			logger.Warnf(ctx, "cannot stat file %s: %v", path, err)
			continue
		}
		if info.IsDir() {
			// symlink to a directory
			if w.opts.FollowSymlinks {
				subdirs = append(subdirs, path)
			}
			continue
		}
		w.entries = append(w.entries, w.entry(dir, path, info))
	}

	sort.Strings(subdirs)
	for _, sub := range subdirs {
		if err := w.walkDir(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) entry(dir, path string, info os.FileInfo) types.FileEntry {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	return types.FileEntry{
		Title:        info.Name(),
		Extension:    extension(info.Name()),
		Path:         path,
		RelativePath: rel,
		Folder:       dir,
		SizeBytes:    info.Size(),
		Created:      formatTime(changeTime(info)),
		Modified:     formatTime(info.ModTime()),
	}
}

// extension returns the lower-case suffix without its dot, or nil. Leading
// dots do not start an extension (".bashrc" has none).
func extension(name string) *string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name || ext == "." {
		return nil
	}
	e := strings.ToLower(strings.TrimPrefix(ext, "."))
	return &e
}

func formatTime(t time.Time) string {
	return t.Local().Format(types.TimeLayout)
}

// BaseName is the export file stem for a scan of root taken at now.
func BaseName(root string, now time.Time) string {
	return fmt.Sprintf("scan_%s_%s", filepath.Base(filepath.Clean(root)), now.Format("20060102_150405"))
}
