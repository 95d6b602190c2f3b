// Command server is the Terraform GCP MCP server. It wires together the
// registry client, source fetcher, scan engine, remediation engine, and
// tool registry, and serves MCP over stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/config"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/fetch"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/pipeline"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/registry"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/remedy"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/runner"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/scan"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/tools"
	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/transport/mcpstdio"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// stdout carries the protocol; all logging goes to stderr.
	log := hclog.New(&hclog.LoggerOptions{
		Name:   "gap-terraform-mcp",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: os.Stderr,
	})
	log.Info("starting server", "version", version, "commit", commit, "env", cfg.Environment)

	table, err := remedy.NewTable(cfg.StrategyOverridePath)
	if err != nil {
		return fmt.Errorf("load strategy table: %w", err)
	}

	client := registry.NewClient(cfg.RegistryBaseURL, cfg.RegistryTimeout, log)
	fetcher := fetch.New(client, cfg.FetchMaxBytes, cfg.FetchTimeout, log)

	cmdRunner := runner.New(cfg.CommandTimeout, log)
	terraform := runner.NewTerraform(cmdRunner, cfg.TerraformPath)
	scanner := scan.New(cmdRunner, cfg.CheckovPath, table.CheckIDs(), log)
	engine := remedy.NewEngine(table, scanner, terraform, log)
	pipe := pipeline.New(fetcher, scanner, engine, log)

	reg := tools.NewRegistry()
	reg.Register(tools.NewAnalyzeModule(pipe))
	reg.Register(tools.NewSearchModules(client))
	reg.Register(tools.NewModuleVersions(client))
	reg.Register(tools.NewRunCheckov(scanner))
	reg.Register(tools.NewFixSecurityIssues(pipe))
	for _, t := range tools.NewLifecycleTools(terraform) {
		reg.Register(t)
	}
	for _, t := range tools.NewKnowledgeTools() {
		reg.Register(t)
	}
	log.Debug("registered tools", "count", len(reg.List()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter := mcpstdio.NewAdapter(reg, tools.NewDispatcher(reg), os.Stdin, os.Stdout, log)
	if err := adapter.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio transport: %w", err)
	}
	log.Info("shutting down")
	return nil
}
