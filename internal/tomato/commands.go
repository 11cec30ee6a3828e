package tomato

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Command builders render exact ketchup command lines from already
// validated inputs. Job ids and pipeline names may originate from
// externally generated strings, so every interpolated id is
// shell-escaped.

// EscapeShellArg wraps s in single quotes so the shell treats it as a
// single literal word. Embedded single quotes are closed, escaped and
// reopened ('foo'"'"'bar').
func EscapeShellArg(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// BuildListCommand returns the command reporting the status of the
// given jobs. With no ids the full queue is requested. ketchup status
// accepts at most one job id per invocation; requesting more fails
// with ErrUnsupportedQuery.
func BuildListCommand(jobIDs []string) (string, error) {
	parts := []string{"ketchup", "-t", "status"}

	switch len(jobIDs) {
	case 0:
		parts = append(parts, "queue")
	case 1:
		parts = append(parts, EscapeShellArg(jobIDs[0]))
	default:
		return "", fmt.Errorf("%w: ketchup status supports only one job per call, got %d ids",
			ErrUnsupportedQuery, len(jobIDs))
	}

	return strings.Join(parts, " "), nil
}

// BuildDetailedInfoCommand returns the command reporting detailed
// information on one job, usable even after the job has finished. The
// output is returned to the caller verbatim for logging, not parsed.
func BuildDetailedInfoCommand(jobID string) string {
	return "ketchup -t status " + EscapeShellArg(jobID)
}

// BuildSubmitCommand returns the command submitting the given script.
// The script path must already be shell-escaped by the caller; it is
// interpolated as-is.
func BuildSubmitCommand(scriptPath string) string {
	return "ketchup -t submit " + scriptPath
}

// BuildKillCommand returns the command cancelling the job with the
// given id.
func BuildKillCommand(jobID string) string {
	return "ketchup -t cancel " + EscapeShellArg(jobID)
}

// BuildSubmissionScript serializes the template's payload into the
// YAML document tomato reads from the submitted script file. The
// payload is wrapped under a top-level "tomato" key. A template
// without a payload fails with ErrMissingPayload.
func BuildSubmissionScript(tmpl SubmissionTemplate) (string, error) {
	if tmpl.Payload == nil {
		return "", ErrMissingPayload
	}

	doc, err := yaml.Marshal(map[string]any{"tomato": tmpl.Payload})
	if err != nil {
		return "", fmt.Errorf("failed to serialize tomato payload: %w", err)
	}

	return string(doc), nil
}
