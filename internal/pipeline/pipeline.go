// Package pipeline sequences module analysis: fetch the source, extract
// the declaration model, scan for findings, optionally remediate, and
// build the report. Each run gets a unique ID for log correlation.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/fetch"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/parser"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/remedy"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/report"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/scan"
)

// Scanner abstracts the policy scan engine.
type Scanner interface {
	Scan(ctx context.Context, dir string) ([]scan.Finding, error)
}

// Options tune a single run.
type Options struct {
	// MinSeverity drops findings below this rank; empty keeps all.
	MinSeverity scan.Severity
	// Remediate applies the fix pass after scanning.
	Remediate bool
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	RunID       string
	Reference   string
	Version     string
	Model       *parser.ModuleModel
	Findings    []scan.Finding
	Remediation *remedy.Result
	Report      *report.Report
}

// Pipeline wires the stages together.
type Pipeline struct {
	fetcher *fetch.Fetcher
	scanner Scanner
	engine  *remedy.Engine
	log     hclog.Logger
}

func New(fetcher *fetch.Fetcher, scanner Scanner, engine *remedy.Engine, log hclog.Logger) *Pipeline {
	return &Pipeline{fetcher: fetcher, scanner: scanner, engine: engine, log: log.Named("pipeline")}
}

// Run executes the full pipeline against a module reference
// ("namespace/name/provider[@version]" or a source URL).
func (p *Pipeline) Run(ctx context.Context, rawRef string, opts Options) (*Outcome, error) {
	ref, err := fetch.ParseReference(rawRef)
	if err != nil {
		return nil, err
	}

	out := &Outcome{RunID: uuid.NewString(), Reference: rawRef}
	log := p.log.With("run_id", out.RunID, "ref", rawRef)
	log.Info("starting run", "remediate", opts.Remediate)

	snap, cleanup, err := p.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	log.Debug("fetched source", "files", len(snap.Files))

	if ref.Registry != nil {
		out.Version = ref.Registry.Version
	}

	if err := p.analyze(ctx, out, snap, opts, log); err != nil {
		return nil, err
	}
	return out, nil
}

// RunDir executes the pipeline against an already-materialized directory,
// skipping the fetch stage. Used for scanning local working directories.
func (p *Pipeline) RunDir(ctx context.Context, dir string, opts Options) (*Outcome, error) {
	snap, err := fetch.LoadSnapshot(dir, fetch.DefaultMaxBytes)
	if err != nil {
		return nil, err
	}

	out := &Outcome{RunID: uuid.NewString(), Reference: dir}
	log := p.log.With("run_id", out.RunID, "dir", dir)
	log.Info("starting local run", "remediate", opts.Remediate)

	if err := p.analyze(ctx, out, snap, opts, log); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) analyze(ctx context.Context, out *Outcome, snap *fetch.Snapshot, opts Options, log hclog.Logger) error {
	model, err := parser.Extract(snap)
	if err != nil {
		return err
	}
	out.Model = model
	log.Debug("extracted model",
		"inputs", len(model.Inputs), "outputs", len(model.Outputs), "resources", len(model.Resources))

	findings, err := p.scanner.Scan(ctx, snap.Root)
	if err != nil {
		return fmt.Errorf("scan stage: %w", err)
	}
	if opts.MinSeverity != "" {
		findings = scan.FilterSeverity(findings, opts.MinSeverity)
	}
	out.Findings = findings
	log.Info("scan complete", "findings", len(findings))

	if opts.Remediate && len(findings) > 0 {
		res, err := p.engine.Remediate(ctx, model, findings, snap)
		if err != nil {
			return fmt.Errorf("remediation stage: %w", err)
		}
		out.Remediation = res
		log.Info("remediation complete",
			"applied", len(res.Applied), "skipped", len(res.Skipped), "remaining", len(res.PostScan))
	}

	out.Report = report.Build(out.Reference, out.Version, model, findings, out.Remediation)
	return nil
}
