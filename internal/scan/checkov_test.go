package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/runner"
)

const sampleReport = `{
  "check_type": "terraform",
  "results": {
    "failed_checks": [
      {
        "check_id": "CKV_GCP_29",
        "check_name": "Ensure that Cloud Storage buckets have uniform bucket-level access enabled",
        "file_path": "/main.tf",
        "file_line_range": [1, 4],
        "resource": "google_storage_bucket.data",
        "guideline": "https://docs.example.com/ckv-gcp-29",
        "severity": "HIGH"
      },
      {
        "check_id": "CKV_GCP_999",
        "check_name": "Some check without a known fix",
        "file_path": "/main.tf",
        "file_line_range": [1, 4],
        "resource": "google_storage_bucket.data",
        "severity": "LOW"
      }
    ]
  },
  "summary": {"passed": 3, "failed": 2, "skipped": 0}
}`

// fakeEngine writes an executable script that emits output and exits with
// the given code, standing in for the real engine binary.
func fakeEngine(t *testing.T, output string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine script requires a unix shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "checkov")
	script := "#!/bin/sh\ncat <<'REPORT'\n" + output + "\nREPORT\nexit " + strconv.Itoa(exitCode) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newScanner(t *testing.T, bin string) *Checkov {
	t.Helper()
	r := runner.New(0, hclog.NewNullLogger())
	fixable := map[string]bool{"CKV_GCP_29": true}
	return New(r, bin, fixable, hclog.NewNullLogger())
}

func TestScan_FindingsFromNonZeroExit(t *testing.T) {
	// checkov exits 1 when checks fail; the JSON output is still the
	// authoritative result.
	bin := fakeEngine(t, sampleReport, 1)
	c := newScanner(t, bin)

	findings, err := c.Scan(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(findings))
	}

	f := findings[0]
	if f.CheckID != "CKV_GCP_29" || f.Severity != SeverityHigh {
		t.Errorf("unexpected finding: %+v", f)
	}
	if f.File != "main.tf" {
		t.Errorf("File = %q, want leading slash trimmed", f.File)
	}
	if f.StartLine != 1 || f.EndLine != 4 {
		t.Errorf("line range = %d-%d", f.StartLine, f.EndLine)
	}
	if !f.Fixable {
		t.Error("allow-listed check must be fixable")
	}
	if findings[1].Fixable {
		t.Error("check outside the allow-list must not be fixable")
	}
}

func TestScan_CleanRun(t *testing.T) {
	clean := `{"check_type": "terraform", "results": {"failed_checks": []}, "summary": {"passed": 5, "failed": 0, "skipped": 0}}`
	bin := fakeEngine(t, clean, 0)
	c := newScanner(t, bin)

	findings, err := c.Scan(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings = %+v, want none", findings)
	}
}

func TestScan_EngineCrashIsError(t *testing.T) {
	// Non-zero exit with no parseable stdout means the engine failed, not
	// that the configuration is clean.
	bin := fakeEngine(t, "", 2)
	c := newScanner(t, bin)

	findings, err := c.Scan(context.Background(), t.TempDir())
	if findings != nil {
		t.Error("engine failure must not yield findings")
	}
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if se.Reason != "engine_failed" {
		t.Errorf("Reason = %q", se.Reason)
	}
}

func TestScan_MissingBinary(t *testing.T) {
	c := newScanner(t, "/nonexistent/checkov-binary")
	_, err := c.Scan(context.Background(), t.TempDir())
	var se *Error
	if !errors.As(err, &se) || se.Reason != "engine_failed" {
		t.Fatalf("expected engine_failed, got %v", err)
	}
}

func TestDecodeReports(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"single object", sampleReport, 1, false},
		{"array of reports", "[" + sampleReport + "," + sampleReport + "]", 2, false},
		{"empty output", "   \n", 0, true},
		{"non-JSON output", "Traceback (most recent call last): ...", 0, true},
		{"truncated JSON", `{"check_type": "terraform", "resul`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := decodeReports([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeReports() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(reports) != tt.want {
				t.Errorf("reports = %d, want %d", len(reports), tt.want)
			}
		})
	}
}

func TestNormalizeSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"CRITICAL", SeverityCritical},
		{"high", SeverityHigh},
		{"Medium", SeverityMedium},
		{"LOW", SeverityLow},
		{"INFO", SeverityInfo},
		{"informational", SeverityInfo},
		{"", SeverityUnknown},
		{"bogus", SeverityUnknown},
	}
	for _, tt := range tests {
		if got := normalizeSeverity(tt.in); got != tt.want {
			t.Errorf("normalizeSeverity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("x", 2*stderrExcerptLen)
	got := excerpt(long)
	if len(got) != stderrExcerptLen+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt did not truncate: len=%d", len(got))
	}
	if excerpt(" short ") != "short" {
		t.Error("excerpt should trim whitespace")
	}
}
