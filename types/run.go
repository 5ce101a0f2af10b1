package types

import "time"

// RunKind names the tool that produced a run record.
type RunKind string

const (
	RunKindFetch  RunKind = "fetch"
	RunKindScan   RunKind = "scan"
	RunKindRefine RunKind = "refine"
)

// Run is the persisted summary of one tool invocation.
type Run struct {
	ID     string  `json:"id"`
	Kind   RunKind `json:"kind"`
	Input  string  `json:"input"`
	Output string  `json:"output,omitempty"` // artifact path; empty when nothing was written

	Total     int   `json:"total"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Bytes     int64 `json:"bytes"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is FinishedAt - StartedAt, or zero for an unfinished record.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
