package mcpstdio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/tools"
)

type stubTool struct {
	name   string
	desc   string
	args   []tools.ArgSpec
	output string
	err    error
}

func (s *stubTool) Metadata() tools.Metadata {
	return tools.Metadata{Name: s.name, Description: s.desc, Args: s.args}
}

func (s *stubTool) Handle(_ context.Context, args map[string]string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func setupAdapter(toolset ...tools.Tool) (*Adapter, *bytes.Buffer, *bytes.Buffer) {
	reg := tools.NewRegistry()
	for _, t := range toolset {
		reg.Register(t)
	}
	disp := tools.NewDispatcher(reg)
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	adapter := NewAdapter(reg, disp, in, out, hclog.NewNullLogger())
	return adapter, in, out
}

func TestInitialize(t *testing.T) {
	adapter, in, out := setupAdapter()
	in.WriteString("{\"jsonrpc\":\"2.0\",\"id\":1,\"method\":\"initialize\"}\n")
	adapter.Run(context.Background())

	var resp JSONRPCResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %s", resp.Error.Message)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("expected result to be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("unexpected protocol version: %v", result["protocolVersion"])
	}
	info, ok := result["serverInfo"].(map[string]interface{})
	if !ok || info["name"] != "gap-terraform-mcp-server" {
		t.Errorf("unexpected serverInfo: %v", result["serverInfo"])
	}
}

func TestToolsList(t *testing.T) {
	adapter, in, out := setupAdapter(
		&stubTool{name: "terraform_analyze_module", desc: "Analyze a module", args: []tools.ArgSpec{
			{Name: "module", Description: "Module reference", Required: true},
		}},
		&stubTool{name: "terraform_workflow_guide", desc: "Workflow guide"},
	)
	in.WriteString("{\"jsonrpc\":\"2.0\",\"id\":2,\"method\":\"tools/list\"}\n")
	adapter.Run(context.Background())

	var resp JSONRPCResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %s", resp.Error.Message)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("expected result map")
	}
	listed, ok := result["tools"].([]interface{})
	if !ok {
		t.Fatal("expected tools array")
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(listed))
	}

	first := listed[0].(map[string]interface{})
	if first["name"] != "terraform_analyze_module" {
		t.Errorf("unexpected first tool: %v", first["name"])
	}
	schema := first["inputSchema"].(map[string]interface{})
	required, ok := schema["required"].([]interface{})
	if !ok || len(required) != 1 || required[0] != "module" {
		t.Errorf("unexpected required args: %v", schema["required"])
	}

	second := listed[1].(map[string]interface{})
	schema = second["inputSchema"].(map[string]interface{})
	if _, present := schema["required"]; present {
		t.Error("argless tool should omit the required list")
	}
}

func TestToolsCall(t *testing.T) {
	adapter, in, out := setupAdapter(
		&stubTool{name: "terraform_run_checkov", output: "No security findings."},
	)
	req := `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"terraform_run_checkov","arguments":{"directory":"/tmp/work"}}}`
	in.WriteString(req + "\n")
	adapter.Run(context.Background())

	var resp JSONRPCResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %s", resp.Error.Message)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("expected result map")
	}
	content, ok := result["content"].([]interface{})
	if !ok || len(content) == 0 {
		t.Fatal("expected content array")
	}
	item := content[0].(map[string]interface{})
	text := item["text"].(string)
	if !strings.Contains(text, "No security findings") {
		t.Errorf("unexpected output: %s", text)
	}
}

func TestToolsCall_UnknownTool(t *testing.T) {
	adapter, in, out := setupAdapter()
	req := `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"unknown","arguments":{}}}`
	in.WriteString(req + "\n")
	adapter.Run(context.Background())

	var resp JSONRPCResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !strings.Contains(resp.Error.Message, "not found") {
		t.Errorf("expected not found error, got: %s", resp.Error.Message)
	}
}

func TestToolsCall_MissingRequiredArg(t *testing.T) {
	adapter, in, out := setupAdapter(
		&stubTool{name: "terraform_analyze_module", args: []tools.ArgSpec{
			{Name: "module", Required: true},
		}},
	)
	req := `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"terraform_analyze_module","arguments":{}}}`
	in.WriteString(req + "\n")
	adapter.Run(context.Background())

	var resp JSONRPCResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("expected error for missing argument")
	}
	if !strings.Contains(resp.Error.Message, "module") {
		t.Errorf("error should name the missing argument: %s", resp.Error.Message)
	}
}

func TestToolsCall_ToolFailure(t *testing.T) {
	adapter, in, out := setupAdapter(
		&stubTool{name: "terraform_init", err: fmt.Errorf("terraform init failed (exit 1): no configuration files")},
	)
	req := `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"terraform_init","arguments":{}}}`
	in.WriteString(req + "\n")
	adapter.Run(context.Background())

	var resp JSONRPCResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("expected error for failed tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("expected code -32000, got %d", resp.Error.Code)
	}
}

func TestUnknownMethod(t *testing.T) {
	adapter, in, out := setupAdapter()
	in.WriteString("{\"jsonrpc\":\"2.0\",\"id\":7,\"method\":\"unknown/method\"}\n")
	adapter.Run(context.Background())

	var resp JSONRPCResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("expected code -32601, got %d", resp.Error.Code)
	}
}

func TestInitializedNotification_NoResponse(t *testing.T) {
	adapter, in, out := setupAdapter()
	in.WriteString("{\"jsonrpc\":\"2.0\",\"method\":\"notifications/initialized\"}\n")
	adapter.Run(context.Background())

	if out.Len() != 0 {
		t.Errorf("notification should produce no response, got: %s", out.String())
	}
}

func TestMultipleRequests(t *testing.T) {
	adapter, in, out := setupAdapter(
		&stubTool{name: "terraform_workflow_guide", output: "workflow"},
	)
	in.WriteString("{\"jsonrpc\":\"2.0\",\"id\":1,\"method\":\"initialize\"}\n")
	in.WriteString("{\"jsonrpc\":\"2.0\",\"id\":2,\"method\":\"tools/list\"}\n")
	in.WriteString("{\"jsonrpc\":\"2.0\",\"id\":3,\"method\":\"tools/call\",\"params\":{\"name\":\"terraform_workflow_guide\",\"arguments\":{}}}\n")
	adapter.Run(context.Background())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 response lines, got %d: %v", len(lines), lines)
	}
	var resp JSONRPCResponse
	json.Unmarshal([]byte(lines[2]), &resp)
	if resp.Error != nil {
		t.Fatalf("unexpected error in tools/call: %s", resp.Error.Message)
	}
}
