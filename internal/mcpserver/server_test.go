package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/agentproto/agentsdk/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	registry := NewRegistry()
	err := registry.Register(ToolRegistryEntry{
		Name:        "Echo",
		Description: "echoes its input",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
			"required":   []any{"text"},
		},
		Handler: func(ctx context.Context, input map[string]any) (ToolResult, error) {
			text, _ := input["text"].(string)
			return TextResult(text), nil
		},
	})
	testutil.RequireNoError(t, err, "register tool")
	return NewServer("test-server", "0.0.1", registry)
}

func TestRegisterRejectsInvalidSchema(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(ToolRegistryEntry{
		Name:        "Broken",
		InputSchema: map[string]any{"type": 123},
		Handler:     func(ctx context.Context, input map[string]any) (ToolResult, error) { return ToolResult{}, nil },
	})
	if err == nil {
		t.Fatalf("expected schema validation to fail")
	}
}

func TestServerInitializeAndToolsList(t *testing.T) {
	server := newTestServer(t)

	initRaw, err := server.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`))
	testutil.RequireNoError(t, err, "initialize")
	testutil.RequireStringContains(t, string(initRaw), `"protocolVersion"`, "initialize response shape")

	listRaw, err := server.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`))
	testutil.RequireNoError(t, err, "tools/list")
	testutil.RequireStringContains(t, string(listRaw), `"Echo"`, "tools/list should list registered tool")
}

func TestServerToolsCallInvokesHandler(t *testing.T) {
	server := newTestServer(t)

	callRaw, err := server.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"Echo","arguments":{"text":"hi"}}}`))
	testutil.RequireNoError(t, err, "tools/call")
	testutil.RequireStringContains(t, string(callRaw), `"hi"`, "expected echoed text in result")
}

func TestServerUnknownMethodReturnsInternalError(t *testing.T) {
	server := newTestServer(t)

	raw, err := server.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":4,"method":"bogus","params":{}}`))
	testutil.RequireNoError(t, err, "handle message")
	testutil.RequireStringContains(t, string(raw), `-32603`, "expected internal error code")
	testutil.RequireStringContains(t, string(raw), `"Unknown method: bogus"`, "expected exact unknown-method message")
}

func TestServerToolsCallHandlerErrorBecomesIsErrorResult(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(ToolRegistryEntry{
		Name:    "Boom",
		Handler: func(ctx context.Context, input map[string]any) (ToolResult, error) { return ToolResult{}, fmt.Errorf("kaboom") },
	})
	testutil.RequireNoError(t, err, "register tool")
	server := NewServer("test-server", "0.0.1", registry)

	raw, err := server.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"Boom","arguments":{}}}`))
	testutil.RequireNoError(t, err, "handle message")
	testutil.RequireTrue(t, !strings.Contains(string(raw), `"error"`), "handler error must not become a JSON-RPC error envelope")
	testutil.RequireStringContains(t, string(raw), `"isError":true`, "expected isError:true result")
	testutil.RequireStringContains(t, string(raw), "kaboom", "expected handler error message in content")
}

func TestServerToolsCallHandlerPanicBecomesIsErrorResult(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(ToolRegistryEntry{
		Name:    "Panics",
		Handler: func(ctx context.Context, input map[string]any) (ToolResult, error) { panic("boom") },
	})
	testutil.RequireNoError(t, err, "register tool")
	server := NewServer("test-server", "0.0.1", registry)

	raw, err := server.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"Panics","arguments":{}}}`))
	testutil.RequireNoError(t, err, "handle message")
	testutil.RequireTrue(t, !strings.Contains(string(raw), `"error"`), "handler panic must not become a JSON-RPC error envelope")
	testutil.RequireStringContains(t, string(raw), `"isError":true`, "expected isError:true result")
}

func TestServerToolsCallUnknownTool(t *testing.T) {
	server := newTestServer(t)

	raw, err := server.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"Nope","arguments":{}}}`))
	testutil.RequireNoError(t, err, "handle message")
	testutil.RequireStringContains(t, string(raw), `"error"`, "expected error envelope for unknown tool")
}
