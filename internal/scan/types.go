// Package scan adapts the external checkov policy engine into normalized
// findings. The engine is a black box: it is invoked against a directory
// and its JSON result stream is mapped record-by-record, preserving the
// engine's own severity taxonomy.
package scan

import "fmt"

// Severity mirrors the engine's taxonomy, normalized to lower case.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
	SeverityUnknown  Severity = "unknown"
)

// rank orders severities for filtering; unknown sorts lowest so a filter
// never hides a finding the engine could not classify as harmless.
func rank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Finding is one detected policy violation. ResourceRef combines the file
// and the block address ("google_storage_bucket.data") so remediation can
// anchor a patch to the originating declaration.
type Finding struct {
	CheckID   string   `json:"check_id"`
	CheckName string   `json:"check_name"`
	Severity  Severity `json:"severity"`
	File      string   `json:"file"`
	Resource  string   `json:"resource"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Message   string   `json:"message"`
	Guideline string   `json:"guideline,omitempty"`
	Fixable   bool     `json:"fixable"`
}

// FilterSeverity keeps findings at or above min. An empty min keeps all.
func FilterSeverity(findings []Finding, min Severity) []Finding {
	if min == "" {
		return findings
	}
	var out []Finding
	for _, f := range findings {
		if rank(f.Severity) >= rank(min) || f.Severity == SeverityUnknown {
			out = append(out, f)
		}
	}
	return out
}

// Error is a typed scan failure. A run with zero findings is a success,
// not an error; Error is only produced when the engine itself failed.
type Error struct {
	Reason string // always "engine_failed" for the adapter
	Stderr string // excerpt of the engine's stderr
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("scan: %s: %s", e.Reason, e.Stderr)
	}
	return fmt.Sprintf("scan: %s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
