// Package mcpserver implements the In-Process Tool Server: an MCP-shaped
// JSON-RPC 2.0 responder tunnelled through the Control Channel's
// "mcp_message" control subtype, rather than a standalone MCP transport.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ToolResult is returned by a tool handler: the content blocks to report
// back to the model, and whether the call should be flagged as an error.
type ToolResult struct {
	Content []ToolResultContent
	IsError bool
}

// ToolResultContent is a single content item of a tool_call result,
// typically {"type":"text","text":"..."}.
type ToolResultContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextResult is a convenience constructor for a single-block text result.
func TextResult(text string) ToolResult {
	return ToolResult{Content: []ToolResultContent{{Type: "text", Text: text}}}
}

// ErrorResult is a convenience constructor for a single-block error result.
func ErrorResult(text string) ToolResult {
	return ToolResult{Content: []ToolResultContent{{Type: "text", Text: text}}, IsError: true}
}

// Handler implements one registered tool's behavior.
type Handler func(ctx context.Context, input map[string]any) (ToolResult, error)

// ToolRegistryEntry is one tool made available to the model via this
// in-process server.
type ToolRegistryEntry struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     Handler
}

// Registry holds the set of in-process tools exposed to a single MCP
// server name. Registration validates the caller-supplied JSON Schema
// document so a malformed schema fails fast at Register time instead of
// surfacing later as a confusing tools/call error.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]ToolRegistryEntry
}

// NewRegistry constructs an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]ToolRegistryEntry)}
}

// Register validates entry.InputSchema and adds it to the registry. A tool
// name may only be registered once.
func (r *Registry) Register(entry ToolRegistryEntry) error {
	if entry.Name == "" {
		return fmt.Errorf("tool registration requires a name")
	}
	if entry.Handler == nil {
		return fmt.Errorf("tool %q requires a handler", entry.Name)
	}
	if err := validateSchema(entry.InputSchema); err != nil {
		return fmt.Errorf("tool %q has an invalid input schema: %w", entry.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[entry.Name]; exists {
		return fmt.Errorf("tool %q is already registered", entry.Name)
	}
	r.entries[entry.Name] = entry
	return nil
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (ToolRegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// List returns all registered entries, in no particular order.
func (r *Registry) List() []ToolRegistryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolRegistryEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry)
	}
	return out
}

// validateSchema compiles schema as a JSON Schema document, accepting nil or
// empty as "no constraints".
func validateSchema(schema map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}
	const resourceName = "tool-input-schema.json"
	if err := compiler.AddResource(resourceName, doc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	if _, err := compiler.Compile(resourceName); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return nil
}
