package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/runner"
)

// Lifecycle exposes one Terraform lifecycle subcommand as a tool.
type Lifecycle struct {
	terraform *runner.Terraform
	command   string
}

// NewLifecycleTools returns one tool per supported lifecycle command.
func NewLifecycleTools(tf *runner.Terraform) []Tool {
	out := make([]Tool, 0, len(runner.LifecycleCommands))
	for _, cmd := range runner.LifecycleCommands {
		out = append(out, &Lifecycle{terraform: tf, command: cmd})
	}
	return out
}

func (t *Lifecycle) Metadata() Metadata {
	descriptions := map[string]string{
		"init":     "Initialize a Terraform working directory: download providers and modules.",
		"validate": "Validate the Terraform configuration, normalizing formatting first.",
		"plan":     "Generate a Terraform execution plan and save it to tfplan.",
		"apply":    "Apply a previously generated plan file.",
		"destroy":  "Destroy the resources managed by the configuration.",
	}
	args := []ArgSpec{
		{Name: "directory", Description: "Terraform working directory", Required: true},
	}
	switch t.command {
	case "plan", "destroy":
		args = append(args, ArgSpec{Name: "vars", Description: "Comma-separated key=value variable assignments"})
	case "apply":
		args = append(args, ArgSpec{Name: "plan_file", Description: "Plan file to apply (default tfplan)"})
	}
	return Metadata{
		Name:        "terraform_" + t.command,
		Description: descriptions[t.command],
		Args:        args,
	}
}

func (t *Lifecycle) Handle(ctx context.Context, args map[string]string) (string, error) {
	vars, err := parseVars(args["vars"])
	if err != nil {
		return "", err
	}

	res, err := t.terraform.Lifecycle(ctx, t.command, args["directory"], args["plan_file"], vars)
	if err != nil {
		if res != nil {
			return "", fmt.Errorf("terraform %s failed (exit %d): %s", t.command, res.ExitCode, tail(res.Stderr))
		}
		return "", err
	}
	return renderResult(t.command, res), nil
}

func parseVars(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	vars := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid variable assignment %q: expected key=value", pair)
		}
		vars[k] = v
	}
	return vars, nil
}

func renderResult(command string, res *runner.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "terraform %s succeeded\n\n", command)
	if out := strings.TrimSpace(res.Stdout); out != "" {
		fmt.Fprintf(&sb, "```\n%s\n```\n", out)
	}
	return sb.String()
}

// tail keeps the last portion of stderr so the actionable error survives
// long provider download logs.
func tail(s string) string {
	s = strings.TrimSpace(s)
	const max = 1024
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
