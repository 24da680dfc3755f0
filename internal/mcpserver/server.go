package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
)

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Internal-error code from the JSON-RPC 2.0 reserved range, used for unknown
// methods, unknown tools and undecodable tools/call params.
const errCodeInternal = -32603

// Server answers the fixed method set spec'd for the in-process tool
// server: initialize, notifications/initialized, tools/list, tools/call.
// It is driven by the Control Channel's "mcp_message" handler, one
// already-demultiplexed JSON-RPC envelope at a time — it does not own any
// transport of its own.
type Server struct {
	registry        *Registry
	name            string
	version         string
	initialized     bool
}

// NewServer constructs a Server exposing registry's tools under the given
// MCP server name/version pair (reported from the initialize response).
func NewServer(name, version string, registry *Registry) *Server {
	return &Server{registry: registry, name: name, version: version}
}

// HandleMessage decodes one JSON-RPC request and returns its JSON-RPC
// response, ready to embed as the `message` field of an outbound
// mcp_message control response.
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var req rpcRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode jsonrpc request: %w", err)
	}

	switch req.Method {
	case "initialize":
		return s.respond(req.ID, map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo":      map[string]any{"name": s.name, "version": s.version},
			"capabilities":    map[string]any{"tools": map[string]any{}},
		})
	case "notifications/initialized":
		s.initialized = true
		return nil, nil
	case "tools/list":
		return s.respond(req.ID, map[string]any{"tools": s.toolDescriptors()})
	case "tools/call":
		return s.handleToolCall(ctx, req)
	default:
		return s.respondError(req.ID, errCodeInternal, fmt.Sprintf("Unknown method: %s", req.Method))
	}
}

func (s *Server) toolDescriptors() []map[string]any {
	entries := s.registry.List()
	out := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		schema := entry.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		out = append(out, map[string]any{
			"name":        entry.Name,
			"description": entry.Description,
			"inputSchema": schema,
		})
	}
	return out
}

func (s *Server) handleToolCall(ctx context.Context, req rpcRequest) (json.RawMessage, error) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.respondError(req.ID, errCodeInternal, fmt.Sprintf("decode tools/call params: %v", err))
	}

	entry, ok := s.registry.Get(params.Name)
	if !ok {
		return s.respondError(req.ID, errCodeInternal, fmt.Sprintf("unknown tool %q", params.Name))
	}

	result, err := s.invokeSafely(ctx, entry, params.Arguments)
	if err != nil {
		result = ErrorResult(err.Error())
	}

	return s.respond(req.ID, map[string]any{
		"content": result.Content,
		"isError": result.IsError,
	})
}

func (s *Server) invokeSafely(ctx context.Context, entry ToolRegistryEntry, input map[string]any) (result ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %q panicked: %v", entry.Name, r)
		}
	}()
	return entry.Handler(ctx, input)
}

func (s *Server) respond(id json.RawMessage, result any) (json.RawMessage, error) {
	return json.Marshal(rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) respondError(id json.RawMessage, code int, message string) (json.RawMessage, error) {
	return json.Marshal(rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}
