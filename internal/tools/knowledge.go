package tools

import (
	"context"
	"fmt"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/kb"
)

// static adapts a zero-argument knowledge lookup into a Tool.
type static struct {
	meta Metadata
	fn   func() string
}

func (t *static) Metadata() Metadata { return t.meta }

func (t *static) Handle(ctx context.Context, args map[string]string) (string, error) {
	return t.fn(), nil
}

// filtered adapts a one-filter knowledge lookup into a Tool.
type filtered struct {
	meta Metadata
	arg  string
	fn   func(string) string
}

func (t *filtered) Metadata() Metadata { return t.meta }

func (t *filtered) Handle(ctx context.Context, args map[string]string) (string, error) {
	return t.fn(args[t.arg]), nil
}

// resourceDoc serves documentation for a single provider resource.
type resourceDoc struct{}

func (t *resourceDoc) Metadata() Metadata {
	return Metadata{
		Name:        "terraform_gcp_resource_documentation",
		Description: "Get documentation for a specific google provider resource.",
		Args: []ArgSpec{
			{Name: "resource", Description: "Resource type, e.g. google_storage_bucket", Required: true},
		},
	}
}

func (t *resourceDoc) Handle(ctx context.Context, args map[string]string) (string, error) {
	doc, ok := kb.ResourceDocumentation(args["resource"])
	if !ok {
		return "", fmt.Errorf("no documentation for resource %q", args["resource"])
	}
	return doc, nil
}

// moduleTemplate serves the usage template for one GenAI module.
type moduleTemplate struct {
	name    string
	summary string
}

func (t *moduleTemplate) Metadata() Metadata {
	return Metadata{
		Name:        "terraform_" + t.name + "_module",
		Description: t.summary,
	}
}

func (t *moduleTemplate) Handle(ctx context.Context, args map[string]string) (string, error) {
	tmpl, ok := kb.ModuleTemplate(t.name)
	if !ok {
		return "", fmt.Errorf("no template for module %q", t.name)
	}
	return tmpl, nil
}

// NewKnowledgeTools returns the static guidance tools.
func NewKnowledgeTools() []Tool {
	return []Tool{
		&static{
			meta: Metadata{
				Name:        "terraform_workflow_guide",
				Description: "The recommended security-first Terraform development workflow.",
			},
			fn: kb.WorkflowGuide,
		},
		&filtered{
			meta: Metadata{
				Name:        "terraform_gcp_best_practices",
				Description: "GCP Terraform best practices, optionally filtered by category (networking, iam, storage, compute, governance).",
				Args: []ArgSpec{
					{Name: "category", Description: "Practice category"},
				},
			},
			arg: "category",
			fn:  kb.BestPractices,
		},
		&filtered{
			meta: Metadata{
				Name:        "terraform_gcp_security_recommendations",
				Description: "GCP security recommendations with compliance mappings, optionally filtered by impact (HIGH, MEDIUM, LOW).",
				Args: []ArgSpec{
					{Name: "impact", Description: "Impact level filter"},
				},
			},
			arg: "impact",
			fn:  kb.SecurityRecommendations,
		},
		&filtered{
			meta: Metadata{
				Name:        "terraform_gcp_provider_resources_listing",
				Description: "List known google provider resources, optionally filtered by service (compute, storage, container, sql, iam, kms).",
				Args: []ArgSpec{
					{Name: "service", Description: "Service filter"},
				},
			},
			arg: "service",
			fn:  kb.ProviderResources,
		},
		&resourceDoc{},
		&static{
			meta: Metadata{
				Name:        "terraform_genai_modules",
				Description: "Catalog of Terraform modules for AI/ML workloads on GCP.",
			},
			fn: kb.GenAIModules,
		},
		&moduleTemplate{name: "vertex_ai", summary: "Usage template for the Vertex AI platform module."},
		&moduleTemplate{name: "gke_ai", summary: "Usage template for the GKE AI workloads module."},
	}
}
