package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LifecycleCommands are the Terraform subcommands the tool boundary exposes.
var LifecycleCommands = []string{"init", "validate", "plan", "apply", "destroy"}

// Terraform drives the external lifecycle tool through a Runner.
type Terraform struct {
	runner *Runner
	bin    string
}

// NewTerraform wraps runner for the given terraform binary ("terraform"
// when empty).
func NewTerraform(runner *Runner, bin string) *Terraform {
	if bin == "" {
		bin = "terraform"
	}
	return &Terraform{runner: runner, bin: bin}
}

// Init downloads providers and modules for the configuration in workDir.
func (t *Terraform) Init(ctx context.Context, workDir string) (*Result, error) {
	return t.runner.Run(ctx, workDir, t.bin, []string{"init", "-input=false", "-no-color"}, nil)
}

// Validate formats the configuration, then validates it with JSON output.
// The fmt pass is best-effort; validation results are what matter.
func (t *Terraform) Validate(ctx context.Context, workDir string) (*Result, error) {
	t.runner.Run(ctx, workDir, t.bin, []string{"fmt", "-recursive"}, nil)
	return t.runner.Run(ctx, workDir, t.bin, []string{"validate", "-json"}, nil)
}

// Plan writes an execution plan to tfplan in workDir.
func (t *Terraform) Plan(ctx context.Context, workDir string, vars map[string]string) (*Result, error) {
	return t.runner.Run(ctx, workDir, t.bin, []string{"plan", "-input=false", "-no-color", "-out=tfplan"}, vars)
}

// Apply applies a previously generated plan file. The plan file must exist;
// apply never falls back to an implicit plan.
func (t *Terraform) Apply(ctx context.Context, workDir, planFile string) (*Result, error) {
	if planFile == "" {
		planFile = "tfplan"
	}
	if _, err := os.Stat(filepath.Join(workDir, planFile)); err != nil {
		return nil, fmt.Errorf("plan file %s not found, run plan first: %w", planFile, err)
	}
	return t.runner.Run(ctx, workDir, t.bin, []string{"apply", "-input=false", "-no-color", planFile}, nil)
}

// Destroy tears down the managed resources.
func (t *Terraform) Destroy(ctx context.Context, workDir string, vars map[string]string) (*Result, error) {
	return t.runner.Run(ctx, workDir, t.bin, []string{"destroy", "-auto-approve", "-input=false", "-no-color"}, vars)
}

// Lifecycle dispatches a named lifecycle command.
func (t *Terraform) Lifecycle(ctx context.Context, command, workDir, planFile string, vars map[string]string) (*Result, error) {
	switch command {
	case "init":
		return t.Init(ctx, workDir)
	case "validate":
		return t.Validate(ctx, workDir)
	case "plan":
		return t.Plan(ctx, workDir, vars)
	case "apply":
		return t.Apply(ctx, workDir, planFile)
	case "destroy":
		return t.Destroy(ctx, workDir, vars)
	default:
		return nil, fmt.Errorf("unknown lifecycle command %q", command)
	}
}
