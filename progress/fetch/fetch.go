package fetch

// Phase represents a stage in the fetch-and-archive lifecycle.
type Phase int

const (
	PhaseStart Phase = iota // URL count known, nothing fetched yet.
	PhaseItem               // A single URL has been fetched (or failed).
)

// Event describes a single fetch progress update. Item events carry a
// non-decreasing Percent that reaches 100 on the last item only.
type Event struct {
	Phase     Phase
	Completed int    // Items processed so far.
	Total     int    // Total number of URLs.
	Percent   int    // floor(Completed / Total * 100).
	Status    string // "{Completed}/{Total} ({Percent}%)".
	URL       string // URL of the item (item phase only).
	Err       error  // Non-nil when the item failed.
}
