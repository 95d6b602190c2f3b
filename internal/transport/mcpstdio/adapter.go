// Package mcpstdio provides an MCP (Model Context Protocol) stdio transport
// that maps JSON-RPC messages on stdin/stdout to the tool registry.
package mcpstdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/tools"
)

// JSONRPCRequest represents an incoming JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents an outgoing JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToolCallParams represents parameters for a tools/call request.
type ToolCallParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// ToolInfo represents an MCP tool listing entry.
type ToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Adapter bridges MCP stdio to the tool registry.
type Adapter struct {
	registry   *tools.Registry
	dispatcher *tools.Dispatcher
	reader     io.Reader
	writer     io.Writer
	log        hclog.Logger
}

// NewAdapter creates a new MCP stdio Adapter.
func NewAdapter(registry *tools.Registry, dispatcher *tools.Dispatcher, r io.Reader, w io.Writer, log hclog.Logger) *Adapter {
	return &Adapter{
		registry:   registry,
		dispatcher: dispatcher,
		reader:     r,
		writer:     w,
		log:        log.Named("mcp"),
	}
}

// Run reads JSON-RPC requests from the reader and writes responses to the writer.
// It blocks until the reader is exhausted or the context is cancelled.
func (a *Adapter) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(a.reader)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req JSONRPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			a.writeError(nil, -32700, "Parse error")
			continue
		}

		a.handleRequest(ctx, &req)
	}
	return scanner.Err()
}

func (a *Adapter) handleRequest(ctx context.Context, req *JSONRPCRequest) {
	switch req.Method {
	case "tools/list":
		a.handleToolsList(req)
	case "tools/call":
		a.handleToolsCall(ctx, req)
	case "initialize":
		a.handleInitialize(req)
	case "notifications/initialized":
		// notification, no response
	default:
		a.writeError(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (a *Adapter) handleInitialize(req *JSONRPCRequest) {
	a.writeResult(req.ID, map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "gap-terraform-mcp-server",
			"version": "1.0.0",
		},
	})
}

func (a *Adapter) handleToolsList(req *JSONRPCRequest) {
	metas := a.registry.List()
	infos := make([]ToolInfo, 0, len(metas))
	for _, m := range metas {
		infos = append(infos, ToolInfo{
			Name:        m.Name,
			Description: m.Description,
			InputSchema: inputSchema(m),
		})
	}
	a.writeResult(req.ID, map[string]interface{}{"tools": infos})
}

func inputSchema(m tools.Metadata) map[string]interface{} {
	properties := map[string]interface{}{}
	required := []string{}
	for _, arg := range m.Args {
		properties[arg.Name] = map[string]interface{}{
			"type":        "string",
			"description": arg.Description,
		}
		if arg.Required {
			required = append(required, arg.Name)
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (a *Adapter) handleToolsCall(ctx context.Context, req *JSONRPCRequest) {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		a.writeError(req.ID, -32602, "Invalid params")
		return
	}

	a.log.Debug("tool call", "tool", params.Name)
	text, err := a.dispatcher.Dispatch(ctx, params.Name, params.Arguments)
	if err != nil {
		a.log.Warn("tool call failed", "tool", params.Name, "error", err)
		a.writeError(req.ID, -32000, err.Error())
		return
	}

	a.writeResult(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": text,
			},
		},
	})
}

func (a *Adapter) writeResult(id interface{}, result interface{}) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	data, err := json.Marshal(resp)
	if err != nil {
		a.log.Error("marshal result", "error", err)
		return
	}
	fmt.Fprintf(a.writer, "%s\n", data)
}

func (a *Adapter) writeError(id interface{}, code int, message string) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		a.log.Error("marshal error response", "error", err)
		return
	}
	fmt.Fprintf(a.writer, "%s\n", data)
}
