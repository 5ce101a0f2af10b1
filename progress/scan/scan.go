package scan

// Phase represents a stage in a directory scan.
type Phase int

const (
	PhaseDir  Phase = iota // Entered a directory.
	PhaseDone              // Walk finished.
)

// Event describes a single scan progress update.
type Event struct {
	Phase Phase
	Dir   string // Directory entered (dir phase only).
	Dirs  int    // Directories visited so far.
	Files int    // Files recorded so far.
}
