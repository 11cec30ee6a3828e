package tomato

import (
	"errors"
	"fmt"
)

// Typed errors for adapter operations. Parse failures are never
// swallowed or downgraded to a default value: returning an empty job
// list for unparsable output would make downstream scheduling
// decisions unsafe.

var (
	// ErrUnsupportedQuery indicates the caller requested a query shape
	// ketchup cannot serve (status supports one job id or the full queue).
	ErrUnsupportedQuery = errors.New("unsupported query")

	// ErrMissingPayload indicates a submission template without a
	// tomato payload.
	ErrMissingPayload = errors.New("submission template has no tomato payload")
)

// CommandError reports a non-zero exit code from ketchup. Both output
// streams are carried for diagnostics; retry policy is the caller's
// decision.
type CommandError struct {
	Op       string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("ketchup %s exited with code %d: stdout=%q stderr=%q",
		e.Op, e.ExitCode, e.Stdout, e.Stderr)
}

// MalformedOutputError reports queue output that violates the expected
// line grammar. Always fatal to the call: a grammar deviation signals a
// tool/version mismatch that must not be masked.
type MalformedOutputError struct {
	Line string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed ketchup status line: %q", e.Line)
}

// JobIDNotFoundError reports submission output with no recognizable job
// id even though the command exited successfully. The full stdout is
// carried so the contract change can be diagnosed.
type JobIDNotFoundError struct {
	Stdout string
}

func (e *JobIDNotFoundError) Error() string {
	return fmt.Sprintf("no job id found in ketchup submit output: %q", e.Stdout)
}

// ValidationError reports a resource spec rejected before any command
// was built.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid resource spec: %s: %s", e.Field, e.Reason)
}
