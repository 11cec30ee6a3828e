package tomato

import (
	"go.uber.org/zap"
)

// Adapter is the façade composing the command builders, the output
// parser and the state mapper behind one interface. It holds no
// mutable state beyond configuration read at construction and is safe
// to share across concurrent callers.
//
// The adapter performs no process execution: callers obtain a command
// string, run it through their own transport, and feed the captured
// results back into the matching Parse method.
type Adapter struct {
	parser *Parser
	states *StateMapping
	log    *zap.Logger
}

// NewAdapter creates an Adapter logging through the given logger. A
// nil logger disables logging.
func NewAdapter(log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		parser: NewParser(log),
		states: NewTomatoStateMapping(),
		log:    log,
	}
}

// JobListCommand returns the command listing the given jobs, or the
// full queue when ids is empty. More than one id fails with
// ErrUnsupportedQuery.
func (a *Adapter) JobListCommand(jobIDs []string) (string, error) {
	return BuildListCommand(jobIDs)
}

// DetailedInfoCommand returns the command reporting detailed info on
// one job; its output is meant for logging, not parsing.
func (a *Adapter) DetailedInfoCommand(jobID string) string {
	return BuildDetailedInfoCommand(jobID)
}

// SubmitCommand returns the command submitting the given script path,
// which must already be shell-escaped.
func (a *Adapter) SubmitCommand(scriptPath string) string {
	return BuildSubmitCommand(scriptPath)
}

// KillCommand returns the command cancelling the given job.
func (a *Adapter) KillCommand(jobID string) string {
	return BuildKillCommand(jobID)
}

// SubmissionScript renders the script document for the template,
// validating the resource spec first.
func (a *Adapter) SubmissionScript(tmpl SubmissionTemplate, res ResourceSpec) (string, error) {
	if err := res.Validate(); err != nil {
		return "", err
	}
	return BuildSubmissionScript(tmpl)
}

// ParseJobList parses status output into JobInfo records with their
// native status tokens mapped onto the canonical state machine.
// Unrecognized tokens degrade to StateUndetermined with a warning
// naming the token and job id.
func (a *Adapter) ParseJobList(exitCode int, stdout, stderr string) ([]JobInfo, error) {
	records, err := a.parser.ParseJobList(exitCode, stdout, stderr)
	if err != nil {
		return nil, err
	}

	infos := make([]JobInfo, 0, len(records))
	for _, rec := range records {
		state, known := a.states.MapState(rec.StatusToken)
		if !known {
			a.log.Warn("unrecognized job status token",
				zap.String("status", rec.StatusToken),
				zap.String("job_id", rec.JobID))
		}
		infos = append(infos, JobInfo{
			JobID:     rec.JobID,
			State:     state,
			Pipeline:  rec.Pipeline,
			RawFields: rec.RawFields,
		})
	}

	return infos, nil
}

// ParseSubmissionOutput extracts the assigned job id from submit
// output.
func (a *Adapter) ParseSubmissionOutput(exitCode int, stdout, stderr string) (string, error) {
	return a.parser.ParseSubmissionOutput(exitCode, stdout, stderr)
}

// ParseKillOutput reports whether a cancel invocation succeeded.
func (a *Adapter) ParseKillOutput(exitCode int, stdout, stderr string) bool {
	return a.parser.ParseKillOutput(exitCode, stdout, stderr)
}
