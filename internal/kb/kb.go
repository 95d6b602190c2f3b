// Package kb holds the static knowledge resources the server returns
// unmodified: the workflow guide, GCP best practices and security
// recommendations, provider resource listings, and GenAI module templates.
package kb

import (
	"fmt"
	"sort"
	"strings"
)

// Practice is one best-practice entry.
type Practice struct {
	Category    string
	Title       string
	Description string
	Example     string
	DocURL      string
}

// Recommendation is one security recommendation with compliance mappings.
type Recommendation struct {
	ID          string
	Title       string
	Impact      string // HIGH, MEDIUM, LOW
	Description string
	Example     string
	Remediation string
	Compliance  []string
}

// ResourceDoc summarizes one provider resource.
type ResourceDoc struct {
	Name        string
	Service     string
	Description string
}

// GenAIModule describes a reusable AI/ML infrastructure module.
type GenAIModule struct {
	Name         string
	Title        string
	Description  string
	Capabilities []string
	Repository   string
}

// WorkflowGuide returns the security-first Terraform development workflow.
func WorkflowGuide() string { return workflowGuide }

// BestPractices renders the practices for a category, or all of them when
// category is empty.
func BestPractices(category string) string {
	var sb strings.Builder
	sb.WriteString("# GCP Terraform Best Practices\n\n")
	matched := 0
	for _, p := range practices {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		matched++
		fmt.Fprintf(&sb, "## %s: %s\n\n%s\n\n", p.Category, p.Title, p.Description)
		if p.Example != "" {
			fmt.Fprintf(&sb, "```terraform\n%s\n```\n\n", strings.TrimSpace(p.Example))
		}
		fmt.Fprintf(&sb, "Documentation: %s\n\n", p.DocURL)
	}
	if matched == 0 {
		return fmt.Sprintf("No best practices found for category: %s", category)
	}
	return sb.String()
}

// SecurityRecommendations renders recommendations filtered by impact
// (HIGH, MEDIUM, LOW); empty keeps all.
func SecurityRecommendations(impact string) string {
	var sb strings.Builder
	sb.WriteString("# GCP Security Recommendations\n\n")
	matched := 0
	for _, r := range recommendations {
		if impact != "" && !strings.EqualFold(r.Impact, impact) {
			continue
		}
		matched++
		fmt.Fprintf(&sb, "## %s: %s\n\n**Impact: %s**\n\n%s\n\n", r.ID, r.Title, r.Impact, r.Description)
		if r.Example != "" {
			fmt.Fprintf(&sb, "### Terraform Example\n\n```terraform\n%s\n```\n\n", strings.TrimSpace(r.Example))
		}
		fmt.Fprintf(&sb, "### Remediation\n\n%s\n\n### Compliance\n\n%s\n\n", r.Remediation, strings.Join(r.Compliance, ", "))
	}
	if matched == 0 {
		return fmt.Sprintf("No security recommendations found for impact level: %s", impact)
	}
	return sb.String()
}

// ProviderResources lists known google provider resources, optionally
// filtered by service (compute, storage, container, sql, iam, ...).
func ProviderResources(service string) string {
	grouped := make(map[string][]ResourceDoc)
	for _, r := range resourceDocs {
		if service != "" && !strings.EqualFold(r.Service, service) {
			continue
		}
		grouped[r.Service] = append(grouped[r.Service], r)
	}
	if len(grouped) == 0 {
		return fmt.Sprintf("No provider resources found for service: %s", service)
	}

	services := make([]string, 0, len(grouped))
	for s := range grouped {
		services = append(services, s)
	}
	sort.Strings(services)

	var sb strings.Builder
	sb.WriteString("# GCP Provider Resources\n\n")
	for _, s := range services {
		fmt.Fprintf(&sb, "## %s\n\n", s)
		for _, r := range grouped[s] {
			fmt.Fprintf(&sb, "- `%s` — %s\n", r.Name, r.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ResourceDocumentation returns the description for a single resource.
func ResourceDocumentation(name string) (string, bool) {
	for _, r := range resourceDocs {
		if r.Name == name {
			return fmt.Sprintf("# %s\n\n%s\n\nFull reference: https://registry.terraform.io/providers/hashicorp/google/latest/docs/resources/%s\n",
				r.Name, r.Description, strings.TrimPrefix(r.Name, "google_")), true
		}
	}
	return "", false
}

// GenAIModules renders the catalog of AI/ML modules.
func GenAIModules() string {
	var sb strings.Builder
	sb.WriteString("# GCP GenAI Terraform Modules\n\n")
	sb.WriteString("Available modules for AI/ML workloads on Google Cloud Platform:\n\n")
	for _, m := range genaiModules {
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n### Capabilities\n\n", m.Title, m.Description)
		for _, c := range m.Capabilities {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
		fmt.Fprintf(&sb, "\n**Repository:** %s\n\n", m.Repository)
	}
	return sb.String()
}

// ModuleTemplate returns the usage template for a named GenAI module.
func ModuleTemplate(name string) (string, bool) {
	t, ok := moduleTemplates[name]
	return t, ok
}
