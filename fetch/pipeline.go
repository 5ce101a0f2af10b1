// Package fetch downloads an ordered list of URLs into an in-memory archive.
// Item failures are recorded and never abort a run.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/projecteru2/core/log"
	"golang.org/x/sync/errgroup"

	"github.com/batchkit/batchkit/metrics"
	"github.com/batchkit/batchkit/progress"
	fetchProgress "github.com/batchkit/batchkit/progress/fetch"
)

// ErrNoURLs is what callers report when the input yields nothing to fetch.
var ErrNoURLs = errors.New("no URLs found")

// Options tunes a Pipeline.
type Options struct {
	// ItemDelay is slept after every item except the last.
	ItemDelay time.Duration
	// Concurrency > 1 enables a bounded pool. Output order and entry names
	// are the same as a sequential run.
	Concurrency int
	Metrics     *metrics.Metrics
}

// Pipeline fetches URLs and archives the successful payloads.
// A Pipeline holds no per-run state and may be reused.
type Pipeline struct {
	fetcher Fetcher
	opts    Options
}

// New creates a Pipeline around fetcher.
func New(fetcher Fetcher, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Pipeline{fetcher: fetcher, opts: opts}
}

// Run fetches every URL and returns one Result per URL in input order.
// urls must already be de-duplicated and non-empty. The only error is ctx
// cancellation, in which case the partial report is returned alongside it.
func (p *Pipeline) Run(ctx context.Context, urls []string, tracker progress.Tracker) (*Report, error) {
	tracker = progress.Or(tracker)
	total := len(urls)
	report := newReport(total)
	if total == 0 {
		return report, nil
	}

	tracker.OnEvent(fetchProgress.Event{
		Phase:  fetchProgress.PhaseStart,
		Total:  total,
		Status: progress.Status(0, total),
	})

	var err error
	if p.opts.Concurrency > 1 && total > 1 {
		err = p.runPool(ctx, urls, report, tracker)
	} else {
		err = p.runSequential(ctx, urls, report, tracker)
	}
	p.opts.Metrics.SetArchiveEntries(report.Archive.Len())
	return report, err
}

func (p *Pipeline) runSequential(ctx context.Context, urls []string, report *Report, tracker progress.Tracker) error {
	counter := progress.NewCounter(len(urls))
	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			return canceled(i, len(urls), err)
		}
		res := p.fetchOne(ctx, i+1, url)
		if err := ctx.Err(); err != nil {
			return canceled(i, len(urls), err)
		}
		report.add(res)
		p.emit(tracker, counter, res)
		if i < len(urls)-1 {
			p.pause(ctx)
		}
	}
	return nil
}

// runPool fills one slot per input position concurrently, then flattens
// the slots in order so numbering matches the sequential run.
func (p *Pipeline) runPool(ctx context.Context, urls []string, report *Report, tracker progress.Tracker) error {
	var (
		mu      sync.Mutex
		slots   = make([]Result, len(urls))
		filled  = make([]bool, len(urls))
		counter = progress.NewCounter(len(urls))
		g       errgroup.Group
	)
	g.SetLimit(p.opts.Concurrency)

	for i, url := range urls {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res := p.fetchOne(ctx, i+1, url)
			if ctx.Err() != nil {
				return nil
			}
			mu.Lock()
			slots[i], filled[i] = res, true
			p.emit(tracker, counter, res)
			mu.Unlock()
			p.pause(ctx)
			return nil
		})
	}
	_ = g.Wait()

	done := 0
	for i := range slots {
		if filled[i] {
			report.add(slots[i])
			done++
		}
	}
	if err := ctx.Err(); err != nil {
		return canceled(done, len(urls), err)
	}
	return nil
}

func (p *Pipeline) fetchOne(ctx context.Context, index int, url string) Result {
	start := time.Now()
	data, err := p.fetcher.Fetch(ctx, url)
	p.opts.Metrics.ObserveFetch(time.Since(start), len(data), err)
	if err != nil {
		if ctx.Err() == nil {
			log.WithFunc("fetch.Run").Warnf(ctx, "cannot download %s: %v", url, err)
		}
		return Result{Index: index, URL: url, Err: err}
	}
	return Result{Index: index, URL: url, Data: data}
}

func (p *Pipeline) emit(tracker progress.Tracker, counter *progress.Counter, res Result) {
	completed, total := counter.Advance()
	tracker.OnEvent(fetchProgress.Event{
		Phase:     fetchProgress.PhaseItem,
		Completed: completed,
		Total:     total,
		Percent:   progress.Percent(completed, total),
		Status:    progress.Status(completed, total),
		URL:       res.URL,
		Err:       res.Err,
	})
}

func (p *Pipeline) pause(ctx context.Context) {
	if p.opts.ItemDelay <= 0 {
		return
	}
	t := time.NewTimer(p.opts.ItemDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func canceled(done, total int, err error) error {
	return fmt.Errorf("fetch canceled after %d/%d items: %w", done, total, err)
}
