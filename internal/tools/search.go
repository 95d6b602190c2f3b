package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/fetch"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/registry"
)

const searchLimit = 10

// SearchModules queries the public module registry.
type SearchModules struct {
	client *registry.Client
}

func NewSearchModules(c *registry.Client) *SearchModules {
	return &SearchModules{client: c}
}

func (t *SearchModules) Metadata() Metadata {
	return Metadata{
		Name:        "terraform_search_modules",
		Description: "Search the Terraform registry for modules matching a query.",
		Args: []ArgSpec{
			{Name: "query", Description: "Search terms", Required: true},
			{Name: "provider", Description: "Restrict to a provider (e.g. google)"},
		},
	}
}

func (t *SearchModules) Handle(ctx context.Context, args map[string]string) (string, error) {
	mods, err := t.client.Search(ctx, args["query"], args["provider"])
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Module Search: %s\n\n", args["query"])
	if len(mods) == 0 {
		sb.WriteString("No modules found.\n")
		return sb.String(), nil
	}
	if len(mods) > searchLimit {
		mods = mods[:searchLimit]
	}
	for _, m := range mods {
		fmt.Fprintf(&sb, "- **%s/%s/%s** v%s (%d downloads)\n",
			m.Namespace, m.Name, m.Provider, m.Version, m.Downloads)
		if m.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", m.Description)
		}
	}
	return sb.String(), nil
}

// ModuleVersions lists the published versions of a registry module.
type ModuleVersions struct {
	client *registry.Client
}

func NewModuleVersions(c *registry.Client) *ModuleVersions {
	return &ModuleVersions{client: c}
}

func (t *ModuleVersions) Metadata() Metadata {
	return Metadata{
		Name:        "terraform_module_versions",
		Description: "List the published versions of a registry module.",
		Args: []ArgSpec{
			{Name: "module", Description: "Module coordinates: namespace/name/provider", Required: true},
		},
	}
}

func (t *ModuleVersions) Handle(ctx context.Context, args map[string]string) (string, error) {
	ref, err := fetch.ParseReference(args["module"])
	if err != nil {
		return "", err
	}
	if ref.Registry == nil {
		return "", fmt.Errorf("expected registry coordinates, got a source URL")
	}

	versions, err := t.client.Versions(ctx, *ref.Registry)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Versions: %s\n\n", ref.Registry)
	for _, v := range versions {
		fmt.Fprintf(&sb, "- %s\n", v)
	}
	return sb.String(), nil
}
