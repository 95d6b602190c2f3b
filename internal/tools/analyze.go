package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/pipeline"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/scan"
)

// AnalyzeModule fetches a module, extracts its declaration model, scans
// it, and returns the rendered report.
type AnalyzeModule struct {
	pipeline *pipeline.Pipeline
}

func NewAnalyzeModule(p *pipeline.Pipeline) *AnalyzeModule {
	return &AnalyzeModule{pipeline: p}
}

func (t *AnalyzeModule) Metadata() Metadata {
	return Metadata{
		Name:        "terraform_analyze_module",
		Description: "Fetch a Terraform module by registry ID or source URL, extract its inputs, outputs, and resources, and scan it for security findings.",
		Args: []ArgSpec{
			{Name: "module", Description: "Module reference: namespace/name/provider[@version] or a source URL", Required: true},
			{Name: "min_severity", Description: "Drop findings below this severity (LOW, MEDIUM, HIGH, CRITICAL)"},
		},
	}
}

func (t *AnalyzeModule) Handle(ctx context.Context, args map[string]string) (string, error) {
	out, err := t.pipeline.Run(ctx, args["module"], pipeline.Options{
		MinSeverity: scan.Severity(strings.ToLower(args["min_severity"])),
	})
	if err != nil {
		return "", err
	}
	return out.Report.Content, nil
}

// FixSecurityIssues runs the full pipeline with the remediation pass
// enabled and reports what was fixed, skipped, and what remains.
type FixSecurityIssues struct {
	pipeline *pipeline.Pipeline
}

func NewFixSecurityIssues(p *pipeline.Pipeline) *FixSecurityIssues {
	return &FixSecurityIssues{pipeline: p}
}

func (t *FixSecurityIssues) Metadata() Metadata {
	return Metadata{
		Name:        "terraform_fix_security_issues",
		Description: "Scan a Terraform directory and apply automatic fixes for findings with known remediations, then re-scan to confirm.",
		Args: []ArgSpec{
			{Name: "directory", Description: "Local directory containing the Terraform configuration", Required: true},
			{Name: "min_severity", Description: "Only fix findings at or above this severity"},
		},
	}
}

func (t *FixSecurityIssues) Handle(ctx context.Context, args map[string]string) (string, error) {
	out, err := t.pipeline.RunDir(ctx, args["directory"], pipeline.Options{
		MinSeverity: scan.Severity(strings.ToLower(args["min_severity"])),
		Remediate:   true,
	})
	if err != nil {
		return "", err
	}
	return out.Report.Content, nil
}

// RunCheckov scans a local directory and renders the findings without
// fetching or remediating anything.
type RunCheckov struct {
	scanner pipeline.Scanner
}

func NewRunCheckov(s pipeline.Scanner) *RunCheckov {
	return &RunCheckov{scanner: s}
}

func (t *RunCheckov) Metadata() Metadata {
	return Metadata{
		Name:        "terraform_run_checkov",
		Description: "Run a Checkov security scan against a local Terraform directory and list the findings.",
		Args: []ArgSpec{
			{Name: "directory", Description: "Local directory to scan", Required: true},
			{Name: "min_severity", Description: "Drop findings below this severity"},
		},
	}
}

func (t *RunCheckov) Handle(ctx context.Context, args map[string]string) (string, error) {
	findings, err := t.scanner.Scan(ctx, args["directory"])
	if err != nil {
		return "", err
	}
	if min := scan.Severity(strings.ToLower(args["min_severity"])); min != "" {
		findings = scan.FilterSeverity(findings, min)
	}
	return renderFindings(args["directory"], findings), nil
}

func renderFindings(dir string, findings []scan.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Scan Results: %s\n\n", dir)
	if len(findings) == 0 {
		sb.WriteString("No security findings.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "%d finding(s):\n\n", len(findings))
	for _, f := range findings {
		fixable := ""
		if f.Fixable {
			fixable = " [auto-fixable]"
		}
		fmt.Fprintf(&sb, "- **%s** %s (%s)%s\n  %s, lines %d-%d, resource `%s`\n",
			f.CheckID, f.CheckName, f.Severity, fixable, f.File, f.StartLine, f.EndLine, f.Resource)
		if f.Guideline != "" {
			fmt.Fprintf(&sb, "  Guideline: %s\n", f.Guideline)
		}
	}
	return sb.String()
}
