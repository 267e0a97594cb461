package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	ResolveStreams Phase = iota
	WriteFiles
)

func (p Phase) String() string {
	switch p {
	case ResolveStreams:
		return "resolve_streams"
	case WriteFiles:
		return "write_files"
	default:
		return ""
	}
}

func resolvingStreamsUpdate(step, total int, name string) ProgressUpdate {
	message := "Resolving channel streams..."
	if name != "" {
		message = fmt.Sprintf("[%d/%d] ✓ %s", step, total, name)
	}
	return ProgressUpdate{
		Phase:   ResolveStreams,
		Step:    step,
		Total:   total,
		Message: message,
	}
}

func resolveFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveStreams,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func writingFilesUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d channels to disk...", total),
	}
}
