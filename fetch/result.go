package fetch

import (
	"github.com/batchkit/batchkit/archive"
)

// Result is the outcome for one input URL. Exactly one of Data/Err is
// meaningful: Err == nil marks a success stored in the archive under Entry.
type Result struct {
	Index int // 1-based position in the input.
	URL   string
	Entry string // Archive entry name; empty on failure.
	Data  []byte
	Err   error
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Failure is a failed URL, surfaced to the caller as a warning.
type Failure struct {
	Index   int
	URL     string
	Message string
}

// Report is everything a run produced.
type Report struct {
	Archive  *archive.Archive
	Results  []Result
	Failures []Failure
}

func newReport(total int) *Report {
	return &Report{
		Archive: archive.New(),
		Results: make([]Result, 0, total),
	}
}

// Succeeded is the number of archived entries.
func (r *Report) Succeeded() int { return r.Archive.Len() }

// add appends res in input order, naming successes by archive position.
func (r *Report) add(res Result) {
	if res.OK() {
		res.Entry = archive.EntryName(r.Archive.Len() + 1)
		r.Archive.Add(res.Entry, res.Data)
	} else {
		r.Failures = append(r.Failures, Failure{
			Index:   res.Index,
			URL:     res.URL,
			Message: res.Err.Error(),
		})
	}
	r.Results = append(r.Results, res)
}
