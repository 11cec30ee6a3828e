// Package tomato adapts the tomato instrument-control scheduler
// (https://github.com/dgbowl/tomato) to a canonical job model. tomato is
// driven entirely through its ketchup command-line client: this package
// renders the ketchup commands to run and parses the text they produce.
//
// Nothing in this package performs process execution or any other I/O
// besides logging. Callers hand commands to a transport, execute them
// out-of-band, and feed the captured exit code, stdout and stderr back
// into the parse functions. All types are safe for concurrent use.
package tomato

// JobState is the canonical job state understood by the rest of the
// service, independent of tomato's native status vocabulary.
type JobState string

const (
	// StateQueued covers jobs waiting for a pipeline, matched or not.
	StateQueued JobState = "queued"
	// StateRunning means the job is executing on a pipeline.
	StateRunning JobState = "running"
	// StateDone covers successful, errored and cancelled completions.
	// tomato distinguishes these natively but the canonical model does
	// not; callers needing the outcome must inspect result artifacts.
	StateDone JobState = "done"
	// StateUndetermined is the fallback for status tokens this adapter
	// does not recognize.
	StateUndetermined JobState = "undetermined"
)

// IsTerminal returns true if the state is final.
func (s JobState) IsTerminal() bool {
	return s == StateDone
}

// RawJobRecord is one line of ketchup queue output, tokenized but not
// yet normalized. Records are built fresh on every query and never
// mutated afterwards.
type RawJobRecord struct {
	// JobID is tomato's handle for the job. Never empty.
	JobID string
	// StatusToken is the native status exactly as printed.
	StatusToken string
	// Pipeline is the physical pipeline the job was assigned to,
	// nil while the job is still waiting for one.
	Pipeline *string
	// RawFields keeps the untouched token sequence for diagnostics.
	RawFields []string
}

// JobInfo is the adapter's output record: a RawJobRecord with its
// status token mapped onto the canonical state machine.
type JobInfo struct {
	JobID     string
	State     JobState
	Pipeline  *string
	RawFields []string
}

// SubmissionTemplate carries everything needed to build a tomato
// submission script.
type SubmissionTemplate struct {
	// JobName is an optional human-readable label; tomato does not
	// require one.
	JobName string
	// Payload is the tomato payload schema object serialized into the
	// submission script. Required.
	Payload any
}
