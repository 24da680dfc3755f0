// Package cliargs renders session options into the Agent CLI's command-line
// flag vocabulary, and builds the process environment it expects.
package cliargs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MCPServerConfig describes one MCP server entry for --mcp-config.
type MCPServerConfig struct {
	Name    string            `json:"-"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
}

// Options captures every session-startup setting that renders into CLI
// flags, matching the external-interface flag list.
type Options struct {
	Model                  string
	FallbackModel          string
	Tools                  []string
	AllowedTools           []string
	DisallowedTools        []string
	SystemPrompt           string
	AppendSystemPrompt     string
	PermissionMode         string
	MaxTurns               int
	MaxBudgetUSD           float64
	MaxThinkingTokens      int
	MCPServers             []MCPServerConfig
	Agents                 []string
	Plugins                []string
	Sandbox                bool
	SandboxConfig          string
	Resume                 string
	ForkSession            bool
	Continue               bool
	IncludePartialMessages bool
	JSONSchema             string

	// HasInProcessTools reports whether any in-process MCP tools or a
	// permission callback are registered, which requires routing
	// permission prompts back to this process over stdio.
	HasInProcessTools bool
}

// Render builds the full CLI argument list for a streaming, non-interactive
// session driven by this SDK.
func Render(opts Options) ([]string, error) {
	args := []string{
		"--output-format", "stream-json",
		"--input-format", "stream-json",
		"--verbose",
		"--print",
	}

	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.FallbackModel != "" {
		args = append(args, "--fallback-model", opts.FallbackModel)
	}
	if len(opts.Tools) > 0 {
		args = append(args, "--tools", strings.Join(opts.Tools, ","))
	}
	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(opts.AllowedTools, ","))
	}
	if len(opts.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools", strings.Join(opts.DisallowedTools, ","))
	}
	if opts.SystemPrompt != "" {
		args = append(args, "--system-prompt", opts.SystemPrompt)
	}
	if opts.AppendSystemPrompt != "" {
		args = append(args, "--append-system-prompt", opts.AppendSystemPrompt)
	}
	if opts.PermissionMode != "" {
		args = append(args, "--permission-mode", opts.PermissionMode)
	}
	if opts.HasInProcessTools {
		args = append(args, "--permission-prompt-tool", "stdio")
	}
	if opts.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(opts.MaxTurns))
	}
	if opts.MaxBudgetUSD > 0 {
		args = append(args, "--max-budget-usd", strconv.FormatFloat(opts.MaxBudgetUSD, 'f', -1, 64))
	}
	if opts.MaxThinkingTokens > 0 {
		args = append(args, "--max-thinking-tokens", strconv.Itoa(opts.MaxThinkingTokens))
	}
	for _, server := range opts.MCPServers {
		raw, err := json.Marshal(map[string]MCPServerConfig{server.Name: server})
		if err != nil {
			return nil, fmt.Errorf("encode mcp server %q: %w", server.Name, err)
		}
		args = append(args, "--mcp-config", string(raw))
	}
	if len(opts.MCPServers) > 0 {
		args = append(args, "--strict-mcp-config")
	}
	if len(opts.Agents) > 0 {
		args = append(args, "--agents", strings.Join(opts.Agents, ","))
	}
	if len(opts.Plugins) > 0 {
		args = append(args, "--plugins", strings.Join(opts.Plugins, ","))
	}
	if opts.Sandbox {
		args = append(args, "--sandbox")
	}
	if opts.SandboxConfig != "" {
		args = append(args, "--sandbox-config", opts.SandboxConfig)
	}
	if opts.Resume != "" {
		args = append(args, "--resume", opts.Resume)
	}
	if opts.ForkSession {
		args = append(args, "--fork-session")
	}
	if opts.Continue {
		args = append(args, "--continue")
	}
	if opts.IncludePartialMessages {
		args = append(args, "--include-partial-messages")
	}
	if opts.JSONSchema != "" {
		args = append(args, "--json-schema", opts.JSONSchema)
	}

	return args, nil
}

// Environment builds the subprocess environment: the caller's environment
// plus this SDK's entrypoint markers, per the external-interface contract.
func Environment(callerEnv []string, sdkVersion string) []string {
	env := make([]string, 0, len(callerEnv)+2)
	env = append(env, callerEnv...)
	env = append(env, "CLAUDE_CODE_ENTRYPOINT=sdk-go", "CLAUDE_AGENT_SDK_VERSION="+sdkVersion)
	return env
}
