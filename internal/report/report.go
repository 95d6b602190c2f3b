// Package report assembles extraction and scan results into the structured
// report returned to the caller, plus a rendered Markdown view. Building a
// report cannot fail: empty findings and absent remediation are valid.
package report

import (
	"fmt"
	"strings"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/parser"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/remedy"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/scan"
)

// readmeLimit caps the README excerpt in the rendered view.
const readmeLimit = 2000

// Report is the final result of a module analysis run.
type Report struct {
	ModuleID    string              `json:"module_id"`
	Version     string              `json:"version,omitempty"`
	Model       *parser.ModuleModel `json:"model"`
	Findings    []scan.Finding      `json:"findings"`
	Remediation *remedy.Result      `json:"remediation,omitempty"`
	Content     string              `json:"content"`
}

// Build aggregates the pipeline outputs. remediation may be nil when the
// run was analyze-only.
func Build(moduleID, version string, model *parser.ModuleModel, findings []scan.Finding, remediation *remedy.Result) *Report {
	r := &Report{
		ModuleID:    moduleID,
		Version:     version,
		Model:       model,
		Findings:    findings,
		Remediation: remediation,
	}
	r.Content = render(r)
	return r
}

func render(r *Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Module Analysis: %s\n\n", r.ModuleID)
	if r.Version != "" {
		fmt.Fprintf(&sb, "**Version:** %s\n\n", r.Version)
	}
	if r.Model.DocTitle != "" {
		fmt.Fprintf(&sb, "**Documentation:** %s\n\n", r.Model.DocTitle)
	}

	renderInputs(&sb, r.Model.Inputs)
	renderOutputs(&sb, r.Model.Outputs)
	renderResources(&sb, r.Model.Resources)
	renderFindings(&sb, r.Findings)
	if r.Remediation != nil {
		renderRemediation(&sb, r.Remediation)
	}
	renderReadme(&sb, r.Model.Readme)

	return sb.String()
}

func renderInputs(sb *strings.Builder, inputs []parser.VariableSpec) {
	fmt.Fprintf(sb, "## Inputs (%d)\n\n", len(inputs))
	if len(inputs) == 0 {
		sb.WriteString("None.\n\n")
		return
	}
	sb.WriteString("| Name | Type | Required | Default | Description |\n")
	sb.WriteString("|------|------|----------|---------|-------------|\n")
	for _, v := range inputs {
		def := "—"
		if v.HasDefault {
			def = "`" + oneLine(v.Default) + "`"
		}
		typ := "any"
		if v.Type != "" {
			typ = oneLine(v.Type)
		}
		fmt.Fprintf(sb, "| %s | `%s` | %v | %s | %s |\n",
			v.Name, typ, v.Required, def, v.Description)
	}
	sb.WriteString("\n")
}

func renderOutputs(sb *strings.Builder, outputs []parser.OutputSpec) {
	fmt.Fprintf(sb, "## Outputs (%d)\n\n", len(outputs))
	if len(outputs) == 0 {
		sb.WriteString("None.\n\n")
		return
	}
	for _, o := range outputs {
		desc := o.Description
		if desc == "" {
			desc = "No description provided"
		}
		fmt.Fprintf(sb, "- **%s** — %s\n", o.Name, desc)
	}
	sb.WriteString("\n")
}

func renderResources(sb *strings.Builder, resources []parser.DeclarationBlock) {
	count := 0
	for _, b := range resources {
		if b.Kind == parser.KindResource {
			count++
		}
	}
	fmt.Fprintf(sb, "## Resources (%d)\n\n", count)
	for _, b := range resources {
		if b.Kind != parser.KindResource {
			continue
		}
		fmt.Fprintf(sb, "- `%s` (%s)\n", b.Address(), b.SourceFile)
	}
	if count > 0 {
		sb.WriteString("\n")
	}
}

func renderFindings(sb *strings.Builder, findings []scan.Finding) {
	fmt.Fprintf(sb, "## Security Findings (%d)\n\n", len(findings))
	if len(findings) == 0 {
		sb.WriteString("All checks passed. No issues found.\n\n")
		return
	}

	counts := map[scan.Severity]int{}
	for _, f := range findings {
		counts[f.Severity]++
	}
	sb.WriteString("| Severity | Count |\n|----------|-------|\n")
	for _, sev := range []scan.Severity{
		scan.SeverityCritical, scan.SeverityHigh, scan.SeverityMedium,
		scan.SeverityLow, scan.SeverityInfo, scan.SeverityUnknown,
	} {
		if c := counts[sev]; c > 0 {
			fmt.Fprintf(sb, "| %s | %d |\n", sev, c)
		}
	}
	sb.WriteString("\n| Check | Severity | Resource | File | Fixable |\n")
	sb.WriteString("|-------|----------|----------|------|---------|\n")
	for _, f := range findings {
		fmt.Fprintf(sb, "| %s | %s | %s | %s | %v |\n",
			f.CheckID, f.Severity, f.Resource, f.File, f.Fixable)
	}
	sb.WriteString("\n")
}

func renderRemediation(sb *strings.Builder, res *remedy.Result) {
	fmt.Fprintf(sb, "## Remediation\n\n")
	fmt.Fprintf(sb, "Applied %d patch(es), skipped %d finding(s), %d finding(s) remain after re-scan.\n\n",
		len(res.Applied), len(res.Skipped), len(res.PostScan))

	if len(res.Applied) > 0 {
		sb.WriteString("### Applied\n\n")
		for _, p := range res.Applied {
			fmt.Fprintf(sb, "- %s in `%s`\n", p.CheckID, p.File)
		}
		sb.WriteString("\n")
	}
	if len(res.Skipped) > 0 {
		sb.WriteString("### Skipped\n\n")
		for _, s := range res.Skipped {
			fmt.Fprintf(sb, "- %s in `%s` (%s)\n", s.Finding.CheckID, s.Finding.File, s.Reason)
		}
		sb.WriteString("\n")
	}
	if !res.ValidateOK {
		sb.WriteString("**Warning:** the patched configuration failed validation; review before applying.\n\n")
	}
}

func renderReadme(sb *strings.Builder, readme string) {
	if readme == "" {
		return
	}
	sb.WriteString("## README\n\n")
	if len(readme) > readmeLimit {
		sb.WriteString(readme[:readmeLimit])
		sb.WriteString("...\n\n(README truncated due to length)\n")
		return
	}
	sb.WriteString(readme)
	if !strings.HasSuffix(readme, "\n") {
		sb.WriteString("\n")
	}
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 60 {
		s = s[:60] + "..."
	}
	return s
}
