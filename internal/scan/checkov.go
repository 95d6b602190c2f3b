package scan

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/runner"
)

// DefaultBinary is the policy engine executable name.
const DefaultBinary = "checkov"

const stderrExcerptLen = 512

// Checkov invokes the checkov engine over a directory and normalizes its
// findings. fixable is the allow-list of check IDs with a known-safe
// automated remediation; the engine's own fixable claims are not trusted
// beyond that list.
type Checkov struct {
	runner  *runner.Runner
	bin     string
	fixable map[string]bool
	log     hclog.Logger
}

// New creates a Checkov adapter. bin defaults to DefaultBinary.
func New(r *runner.Runner, bin string, fixable map[string]bool, log hclog.Logger) *Checkov {
	if bin == "" {
		bin = DefaultBinary
	}
	return &Checkov{runner: r, bin: bin, fixable: fixable, log: log.Named("scan")}
}

// Scan runs the engine against dir and returns normalized findings.
// A non-zero exit with parseable output is a finding-bearing success; a
// non-zero exit with no parseable output is an engine failure.
func (c *Checkov) Scan(ctx context.Context, dir string) ([]Finding, error) {
	args := []string{"-d", ".", "--framework", "terraform", "-o", "json"}
	res, err := c.runner.Run(ctx, dir, c.bin, args, nil)
	if err != nil && !failedWithOutput(err, res) {
		stderr := ""
		if res != nil {
			stderr = excerpt(res.Stderr)
		}
		return nil, &Error{Reason: "engine_failed", Stderr: stderr, Err: err}
	}

	reports, err := decodeReports([]byte(res.Stdout))
	if err != nil {
		return nil, &Error{Reason: "engine_failed", Stderr: excerpt(res.Stderr), Err: err}
	}

	var findings []Finding
	for _, rep := range reports {
		for _, check := range rep.Results.FailedChecks {
			findings = append(findings, c.toFinding(check))
		}
	}
	c.log.Info("scan complete", "dir", dir, "findings", len(findings))
	return findings, nil
}

// failedWithOutput reports whether the engine exited non-zero but still
// produced a result stream. checkov exits 1 whenever checks fail; the
// output is the authoritative result in that case.
func failedWithOutput(err error, res *runner.Result) bool {
	var runErr *runner.Error
	if !errors.As(err, &runErr) || runErr.Reason != runner.NonZeroExit {
		return false
	}
	return res != nil && strings.TrimSpace(res.Stdout) != ""
}

func (c *Checkov) toFinding(check failedCheck) Finding {
	f := Finding{
		CheckID:   check.CheckID,
		CheckName: check.CheckName,
		Severity:  normalizeSeverity(check.Severity),
		File:      strings.TrimPrefix(filepath.ToSlash(check.FilePath), "/"),
		Resource:  check.Resource,
		Message:   check.CheckName,
		Guideline: check.Guideline,
		Fixable:   c.fixable[check.CheckID],
	}
	if len(check.FileLineRange) == 2 {
		f.StartLine, f.EndLine = check.FileLineRange[0], check.FileLineRange[1]
	}
	return f
}

func normalizeSeverity(s string) Severity {
	switch strings.ToLower(s) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	case "info", "informational":
		return SeverityInfo
	default:
		return SeverityUnknown
	}
}

func excerpt(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if len(stderr) > stderrExcerptLen {
		stderr = stderr[:stderrExcerptLen] + "..."
	}
	return stderr
}

// report mirrors the engine's per-framework result object.
type report struct {
	CheckType string `json:"check_type"`
	Results   struct {
		FailedChecks []failedCheck `json:"failed_checks"`
	} `json:"results"`
	Summary struct {
		Passed  int `json:"passed"`
		Failed  int `json:"failed"`
		Skipped int `json:"skipped"`
	} `json:"summary"`
}

type failedCheck struct {
	CheckID       string `json:"check_id"`
	CheckName     string `json:"check_name"`
	FilePath      string `json:"file_path"`
	FileLineRange []int  `json:"file_line_range"`
	Resource      string `json:"resource"`
	Guideline     string `json:"guideline"`
	Severity      string `json:"severity"`
}

// decodeReports handles the engine's output shapes explicitly: a single
// report object, an array of per-framework reports, or — the fallback —
// something unrecognized, which is an error rather than a silent zero
// result.
func decodeReports(data []byte) ([]report, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, errors.New("engine produced no output")
	}

	switch trimmed[0] {
	case '[':
		var reports []report
		if err := json.Unmarshal([]byte(trimmed), &reports); err != nil {
			return nil, errors.New("unrecognized engine output shape: " + excerpt(trimmed))
		}
		return reports, nil
	case '{':
		var rep report
		if err := json.Unmarshal([]byte(trimmed), &rep); err != nil {
			return nil, errors.New("unrecognized engine output shape: " + excerpt(trimmed))
		}
		return []report{rep}, nil
	default:
		return nil, errors.New("non-JSON engine output: " + excerpt(trimmed))
	}
}
