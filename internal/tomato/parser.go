package tomato

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ketchup submit prints "jobid = {jobid}", possibly behind an
// arbitrary prefix. Matching is case-insensitive and tolerant of
// whitespace around the equals sign.
var submittedJobIDRe = regexp.MustCompile(`(?i)\bjobid\s*=\s*(\d+)`)

// Parser turns captured (exit code, stdout, stderr) triples from
// ketchup invocations into structured results. It is the only place in
// this package that scans text.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a Parser logging through the given logger. A nil
// logger disables logging.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log}
}

// ParseJobList parses the output of the status command into one
// RawJobRecord per queue line, preserving output order.
//
// A non-zero exit code fails with *CommandError. A non-empty stderr on
// a zero exit is logged as a warning only; ketchup writes benign
// diagnostics there. The header line (containing "jobid") and the
// divider line of repeated separator characters are skipped. Each
// remaining line must split into exactly two (jobid, status) or three
// (jobid, status, pipeline) whitespace-separated tokens; anything else
// fails with *MalformedOutputError.
func (p *Parser) ParseJobList(exitCode int, stdout, stderr string) ([]RawJobRecord, error) {
	if exitCode != 0 {
		return nil, &CommandError{Op: "status", ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
	}
	if strings.TrimSpace(stderr) != "" {
		p.log.Warn("ketchup status exited 0 but wrote to stderr",
			zap.String("stderr", strings.TrimSpace(stderr)))
	}

	var records []RawJobRecord
	for _, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Contains(line, "jobid") {
			// Header line.
			continue
		}
		if isDividerLine(line) {
			continue
		}

		fields := strings.Fields(line)
		rec := RawJobRecord{RawFields: fields}
		switch len(fields) {
		case 2:
			rec.JobID, rec.StatusToken = fields[0], fields[1]
		case 3:
			rec.JobID, rec.StatusToken = fields[0], fields[1]
			pipeline := fields[2]
			rec.Pipeline = &pipeline
		default:
			return nil, &MalformedOutputError{Line: line}
		}
		records = append(records, rec)
	}

	return records, nil
}

// ParseSubmissionOutput extracts the job id assigned by tomato from
// the submit command's output. Lines are scanned in order and the
// first match wins. Absence of a job id after a successful exit means
// ketchup's output contract changed and fails with *JobIDNotFoundError
// rather than being silently ignored.
func (p *Parser) ParseSubmissionOutput(exitCode int, stdout, stderr string) (string, error) {
	if exitCode != 0 {
		p.log.Error("ketchup submit failed",
			zap.Int("exit_code", exitCode),
			zap.String("stdout", stdout),
			zap.String("stderr", stderr))
		return "", &CommandError{Op: "submit", ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
	}
	if strings.TrimSpace(stderr) != "" {
		p.log.Warn("ketchup submit exited 0 but wrote to stderr",
			zap.String("stderr", strings.TrimSpace(stderr)))
	}

	for _, line := range strings.Split(stdout, "\n") {
		if m := submittedJobIDRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1], nil
		}
	}

	p.log.Error("unable to find the job id in ketchup submit output",
		zap.String("stdout", stdout))
	return "", &JobIDNotFoundError{Stdout: stdout}
}

// ParseKillOutput reports whether a cancel invocation succeeded. Kill
// is invoked on best-effort cleanup paths, so failures degrade to
// false instead of an error. tomato is silent on a successful cancel;
// any output is anomalous and logged as a warning, but the call is
// still reported as successful.
func (p *Parser) ParseKillOutput(exitCode int, stdout, stderr string) bool {
	if exitCode != 0 {
		p.log.Error("ketchup cancel failed",
			zap.Int("exit_code", exitCode),
			zap.String("stdout", stdout),
			zap.String("stderr", stderr))
		return false
	}
	if strings.TrimSpace(stderr) != "" {
		p.log.Warn("ketchup cancel exited 0 but wrote to stderr",
			zap.String("stderr", strings.TrimSpace(stderr)))
	}
	if strings.TrimSpace(stdout) != "" {
		p.log.Warn("unexpected output from ketchup cancel",
			zap.String("stdout", strings.TrimSpace(stdout)))
	}
	return true
}

// isDividerLine reports whether the line is the separator ketchup
// prints between the header and the queue ("=====...").
func isDividerLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	return strings.Trim(trimmed, "=-") == ""
}
