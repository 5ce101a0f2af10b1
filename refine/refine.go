// Package refine sends each segment of a JSON batch through a language
// model and collects the structured replies. A failing segment never stops
// the batch.
package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/template"

	"github.com/projecteru2/core/log"
	"golang.org/x/sync/errgroup"

	"github.com/batchkit/batchkit/metrics"
	"github.com/batchkit/batchkit/progress"
	refineProgress "github.com/batchkit/batchkit/progress/refine"
	"github.com/batchkit/batchkit/utils"
)

// ErrInvalidReply marks a model reply that is not a JSON object.
var ErrInvalidReply = errors.New("model reply is not a JSON object")

// Segment is one input object. Numbers keep their literal form.
type Segment map[string]any

// Refined is one output record. Refined holds the model's JSON object, or
// {} when the reply was unusable.
type Refined struct {
	ID           any             `json:"id"`
	OriginalText string          `json:"original_text"`
	Refined      json.RawMessage `json:"refined"`
	Error        string          `json:"error,omitempty"`
}

// Options tunes a Refiner.
type Options struct {
	IDField     string
	TextField   string
	Concurrency int
	// Prompt defaults to DefaultPrompt.
	Prompt  *template.Template
	Metrics *metrics.Metrics
}

// Refiner drives a Model over a batch of segments.
type Refiner struct {
	model Model
	opts  Options
}

// New creates a Refiner.
func New(model Model, opts Options) (*Refiner, error) {
	if opts.IDField == "" {
		opts.IDField = "id"
	}
	if opts.TextField == "" {
		opts.TextField = "text"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Prompt == nil {
		tmpl, err := ParsePrompt(DefaultPrompt)
		if err != nil {
			return nil, err
		}
		opts.Prompt = tmpl
	}
	return &Refiner{model: model, opts: opts}, nil
}

// Run refines every segment and returns one record per segment in input
// order. The only error is ctx cancellation, returned with the records
// finished so far.
func (r *Refiner) Run(ctx context.Context, segments []Segment, tracker progress.Tracker) ([]Refined, error) {
	tracker = progress.Or(tracker)
	total := len(segments)
	tracker.OnEvent(refineProgress.Event{Phase: refineProgress.PhaseStart, Total: total, Status: progress.Status(0, total)})

	var (
		mu      sync.Mutex
		slots   = make([]Refined, total)
		filled  = make([]bool, total)
		counter = progress.NewCounter(total)
		g       errgroup.Group
	)
	g.SetLimit(r.opts.Concurrency)

	for i, seg := range segments {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			rec, err := r.refineOne(ctx, seg)
			if ctx.Err() != nil {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			slots[i], filled[i] = rec, true
			completed, total := counter.Advance()
			tracker.OnEvent(refineProgress.Event{
				Phase:     refineProgress.PhaseSegment,
				Completed: completed,
				Total:     total,
				Status:    progress.Status(completed, total),
				SegmentID: fmt.Sprint(rec.ID),
				Err:       err,
			})
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Refined, 0, total)
	for i := range slots {
		if filled[i] {
			out = append(out, slots[i])
		}
	}
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("refine canceled after %d/%d segments: %w", len(out), total, err)
	}
	completed, _ := counter.State()
	tracker.OnEvent(refineProgress.Event{Phase: refineProgress.PhaseDone, Completed: completed, Total: total, Status: progress.Status(completed, total)})
	return out, nil
}

// refineOne always returns a usable record; the error is what went wrong
// with the segment, if anything.
func (r *Refiner) refineOne(ctx context.Context, seg Segment) (Refined, error) {
	logger := log.WithFunc("refine.Run")
	id, ok := seg[r.opts.IDField]
	if !ok {
		logger.Warnf(ctx, "segment has no %q field", r.opts.IDField)
	}
	rec := Refined{ID: id, OriginalText: textOf(seg[r.opts.TextField]), Refined: emptyObject()}

	var prompt bytes.Buffer
	if err := r.opts.Prompt.Execute(&prompt, PromptData{ID: id, Text: rec.OriginalText}); err != nil {
		err = fmt.Errorf("render prompt: %w", err)
		logger.Warnf(ctx, "segment %v: %v", id, err)
		r.opts.Metrics.ObserveRefine(metrics.OutcomeFailure)
		rec.Error = err.Error()
		return rec, err
	}

	reply, err := r.model.Generate(ctx, prompt.String())
	if err != nil {
		if ctx.Err() == nil {
			logger.Warnf(ctx, "segment %v: model call failed: %v", id, err)
		}
		r.opts.Metrics.ObserveRefine(metrics.OutcomeFailure)
		rec.Error = err.Error()
		return rec, err
	}

	obj, err := parseReply(reply)
	if err != nil {
		logger.Warnf(ctx, "segment %v: invalid JSON reply: %v", id, err)
		r.opts.Metrics.ObserveRefine(metrics.OutcomeInvalidJSON)
		return rec, err
	}
	rec.Refined = obj
	r.opts.Metrics.ObserveRefine(metrics.OutcomeSuccess)
	return rec, nil
}

func parseReply(reply string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, ErrInvalidReply
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(trimmed)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReply, err)
	}
	return buf.Bytes(), nil
}

func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func emptyObject() json.RawMessage { return json.RawMessage("{}") }

// ReadSegments loads a JSON array of objects.
func ReadSegments(path string) ([]Segment, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied input file
	if err != nil {
		return nil, fmt.Errorf("read segments %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var segments []Segment
	if err := dec.Decode(&segments); err != nil {
		return nil, fmt.Errorf("parse segments %s: %w", path, err)
	}
	return segments, nil
}

// WriteResults writes records as an indented JSON array, atomically.
func WriteResults(path string, records []Refined) error {
	if records == nil {
		records = []Refined{}
	}
	if err := utils.AtomicWriteJSON(path, records); err != nil {
		return fmt.Errorf("write results %s: %w", path, err)
	}
	return nil
}
