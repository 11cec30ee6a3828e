package tomato

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildListCommand_FullQueue(t *testing.T) {
	cmd, err := BuildListCommand(nil)
	if err != nil {
		t.Fatalf("BuildListCommand(nil) returned error: %v", err)
	}
	if cmd != "ketchup -t status queue" {
		t.Errorf("BuildListCommand(nil) = %q, want %q", cmd, "ketchup -t status queue")
	}

	// Pure function: calling again must yield the identical string.
	cmd2, err := BuildListCommand(nil)
	if err != nil {
		t.Fatalf("second BuildListCommand(nil) returned error: %v", err)
	}
	if cmd != cmd2 {
		t.Errorf("BuildListCommand(nil) not deterministic: %q vs %q", cmd, cmd2)
	}
}

func TestBuildListCommand_SingleJob(t *testing.T) {
	cmd, err := BuildListCommand([]string{"42"})
	if err != nil {
		t.Fatalf("BuildListCommand returned error: %v", err)
	}
	if cmd != "ketchup -t status '42'" {
		t.Errorf("BuildListCommand = %q, want %q", cmd, "ketchup -t status '42'")
	}
}

func TestBuildListCommand_MultipleJobs(t *testing.T) {
	_, err := BuildListCommand([]string{"1", "2"})
	if err == nil {
		t.Fatal("BuildListCommand with two ids did not fail")
	}
	if !errors.Is(err, ErrUnsupportedQuery) {
		t.Errorf("error = %v, want ErrUnsupportedQuery", err)
	}
}

func TestBuildListCommand_EscapesJobID(t *testing.T) {
	cmd, err := BuildListCommand([]string{"42; rm -rf /"})
	if err != nil {
		t.Fatalf("BuildListCommand returned error: %v", err)
	}
	if !strings.Contains(cmd, "'42; rm -rf /'") {
		t.Errorf("job id not shell-escaped: %q", cmd)
	}
}

func TestBuildDetailedInfoCommand(t *testing.T) {
	cmd := BuildDetailedInfoCommand("17")
	if cmd != "ketchup -t status '17'" {
		t.Errorf("BuildDetailedInfoCommand = %q, want %q", cmd, "ketchup -t status '17'")
	}
}

func TestBuildSubmitCommand(t *testing.T) {
	cmd := BuildSubmitCommand("payload.yml")
	if cmd != "ketchup -t submit payload.yml" {
		t.Errorf("BuildSubmitCommand = %q, want %q", cmd, "ketchup -t submit payload.yml")
	}
}

func TestBuildKillCommand(t *testing.T) {
	cmd := BuildKillCommand("17")
	if cmd != "ketchup -t cancel '17'" {
		t.Errorf("BuildKillCommand = %q, want %q", cmd, "ketchup -t cancel '17'")
	}
}

func TestEscapeShellArg(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42", "'42'"},
		{"pipeline A", "'pipeline A'"},
		{"it's", `'it'"'"'s'`},
		{"$(reboot)", "'$(reboot)'"},
	}
	for _, tt := range tests {
		if got := EscapeShellArg(tt.in); got != tt.want {
			t.Errorf("EscapeShellArg(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildSubmissionScript(t *testing.T) {
	payload := map[string]any{
		"version": "0.1",
		"sample":  map[string]any{"name": "commercial-10"},
		"method":  []any{map[string]any{"technique": "OCV"}},
	}
	script, err := BuildSubmissionScript(SubmissionTemplate{JobName: "ocv-check", Payload: payload})
	if err != nil {
		t.Fatalf("BuildSubmissionScript returned error: %v", err)
	}
	if !strings.HasPrefix(script, "tomato:") {
		t.Errorf("script missing top-level tomato key:\n%s", script)
	}
	if !strings.Contains(script, "commercial-10") {
		t.Errorf("script missing payload content:\n%s", script)
	}
}

func TestBuildSubmissionScript_MissingPayload(t *testing.T) {
	_, err := BuildSubmissionScript(SubmissionTemplate{JobName: "empty"})
	if !errors.Is(err, ErrMissingPayload) {
		t.Errorf("error = %v, want ErrMissingPayload", err)
	}
}
