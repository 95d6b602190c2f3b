package remedy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/fetch"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/parser"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/runner"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/scan"
)

// SkipReason records why a fixable finding was not patched.
type SkipReason string

const (
	SkipNoStrategy SkipReason = "no_strategy"
	SkipConflict   SkipReason = "conflict"
)

// Skipped pairs a finding with the reason it was left unremediated.
type Skipped struct {
	Finding scan.Finding `json:"finding"`
	Reason  SkipReason   `json:"reason"`
}

// Result is the outcome of one remediation pass. It is complete: every
// fixable finding is either in Applied (via its patch) or in Skipped.
type Result struct {
	Applied        []Patch           `json:"applied_patches"`
	Skipped        []Skipped         `json:"skipped_findings"`
	PostScan       []scan.Finding    `json:"post_scan_findings"`
	PatchedFiles   map[string]string `json:"-"`
	ValidateOutput string            `json:"validate_output,omitempty"`
	ValidateOK     bool              `json:"validate_ok"`
}

// Error is an engine-level remediation failure, e.g. a patched file that
// cannot be written back.
type Error struct {
	Reason string // "io_failure"
	File   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("remediate %s: %s: %v", e.File, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Scanner re-checks the patched snapshot; satisfied by *scan.Checkov.
type Scanner interface {
	Scan(ctx context.Context, dir string) ([]scan.Finding, error)
}

// Engine computes and applies patches for fixable findings.
type Engine struct {
	table     *Table
	scanner   Scanner
	terraform *runner.Terraform // optional patch validation
	log       hclog.Logger
}

// NewEngine creates an Engine. terraform may be nil; validation is then
// skipped.
func NewEngine(table *Table, scanner Scanner, terraform *runner.Terraform, log hclog.Logger) *Engine {
	return &Engine{table: table, scanner: scanner, terraform: terraform, log: log.Named("remedy")}
}

// Remediate applies one fix pass over the snapshot: compute a patch per
// fixable finding, drop conflicting or strategy-less ones into Skipped,
// apply the rest file-by-file in descending offset order, write the
// patched files back into the snapshot root, validate, and re-scan once.
// It never recurses into a second pass.
func (e *Engine) Remediate(ctx context.Context, model *parser.ModuleModel, findings []scan.Finding, snap *fetch.Snapshot) (*Result, error) {
	res := &Result{PatchedFiles: make(map[string]string)}
	accepted := make(map[string][]Patch)

	for _, f := range findings {
		if !f.Fixable {
			continue
		}
		strat, ok := e.table.Lookup(f.CheckID)
		if !ok {
			res.Skipped = append(res.Skipped, Skipped{Finding: f, Reason: SkipNoStrategy})
			continue
		}
		block, ok := model.Resource(f.File, f.Resource)
		if !ok {
			e.log.Warn("finding references unknown block", "check", f.CheckID, "resource", f.Resource, "file", f.File)
			res.Skipped = append(res.Skipped, Skipped{Finding: f, Reason: SkipNoStrategy})
			continue
		}
		patch, ok := strat.Compute(block)
		if !ok {
			res.Skipped = append(res.Skipped, Skipped{Finding: f, Reason: SkipNoStrategy})
			continue
		}
		if conflicts(accepted[patch.File], patch) {
			res.Skipped = append(res.Skipped, Skipped{Finding: f, Reason: SkipConflict})
			continue
		}
		accepted[patch.File] = append(accepted[patch.File], patch)
		res.Applied = append(res.Applied, patch)
	}

	for file, patches := range accepted {
		orig, ok := snap.Lookup(file)
		if !ok {
			return nil, &Error{Reason: "io_failure", File: file, Err: errors.New("file missing from snapshot")}
		}
		patched, err := Apply(orig.Raw, patches)
		if err != nil {
			return nil, &Error{Reason: "io_failure", File: file, Err: err}
		}
		res.PatchedFiles[file] = patched
	}

	for file, content := range res.PatchedFiles {
		path := filepath.Join(snap.Root, filepath.FromSlash(file))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, &Error{Reason: "io_failure", File: file, Err: err}
		}
	}

	e.validate(ctx, snap.Root, res)

	if len(res.Applied) > 0 {
		post, err := e.scanner.Scan(ctx, snap.Root)
		if err != nil {
			return nil, err
		}
		res.PostScan = post
	} else {
		// Nothing changed; the original findings stand.
		res.PostScan = findings
	}

	e.log.Info("remediation pass complete",
		"applied", len(res.Applied), "skipped", len(res.Skipped), "remaining", len(res.PostScan))
	return res, nil
}

// validate runs terraform validate over the patched tree when a lifecycle
// tool is wired in. A missing binary just skips validation; a failing
// validation is recorded, not fatal, since the scan results still stand.
func (e *Engine) validate(ctx context.Context, dir string, res *Result) {
	res.ValidateOK = true
	if e.terraform == nil || len(res.PatchedFiles) == 0 {
		return
	}
	out, err := e.terraform.Validate(ctx, dir)
	if err != nil {
		var runErr *runner.Error
		if errors.As(err, &runErr) && runErr.Reason == runner.NotFound {
			e.log.Debug("terraform binary not available, skipping patch validation")
			return
		}
		res.ValidateOK = false
	}
	if out != nil {
		res.ValidateOutput = out.Stdout
		if out.ExitCode != 0 {
			res.ValidateOK = false
		}
	}
}

func conflicts(accepted []Patch, p Patch) bool {
	for _, a := range accepted {
		if Overlaps(a, p) {
			return true
		}
	}
	return false
}
