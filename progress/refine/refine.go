package refine

// Phase represents a stage in a refine batch.
type Phase int

const (
	PhaseStart   Phase = iota // Segment count known.
	PhaseSegment              // A segment has been processed.
	PhaseDone                 // Batch finished.
)

// Event describes a single refine progress update.
type Event struct {
	Phase     Phase
	Completed int
	Total     int
	Status    string
	SegmentID string // Segment ID (segment phase only).
	Err       error  // Model or decode failure for the segment.
}
