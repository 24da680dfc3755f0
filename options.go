package agentsdk

import (
	"context"
	"time"

	"github.com/agentproto/agentsdk/internal/cliargs"
	"github.com/agentproto/agentsdk/internal/hooks"
	"github.com/agentproto/agentsdk/internal/logging"
	"github.com/agentproto/agentsdk/internal/mcpserver"
	"github.com/agentproto/agentsdk/internal/transport"
	"github.com/agentproto/agentsdk/internal/wire"
)

// Logger is the structured logging capability a Session accepts. The zero
// value of Options uses a no-op logger.
type Logger = logging.Logger

// ExecutableResolver locates the Agent CLI binary. The zero value of
// Options searches PATH for "claude", honoring CLAUDE_CODE_PATH as an
// override.
type ExecutableResolver = transport.ExecutableResolver

// ProcessLauncher starts the resolved executable. The zero value of Options
// uses real OS processes.
type ProcessLauncher = transport.ProcessLauncher

// HookCallback is a user-supplied hook handler, invoked for a registered
// lifecycle event.
type HookCallback = hooks.Callback

// HookInput is the normalized payload handed to a HookCallback.
type HookInput = hooks.HookInput

// HookOutput is what a HookCallback returns to continue or alter the run.
type HookOutput = hooks.HookOutput

// PermissionCallback decides whether a tool call may proceed.
type PermissionCallback = hooks.PermissionCallback

// PermissionDecision is a PermissionCallback's verdict.
type PermissionDecision = hooks.PermissionDecision

// ToolHandler implements one in-process tool's behavior.
type ToolHandler = mcpserver.Handler

// ToolResult is what a ToolHandler returns.
type ToolResult = mcpserver.ToolResult

// ToolDefinition registers one in-process tool exposed to the model.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     ToolHandler
}

// HookSubscription registers one HookCallback against a lifecycle event.
type HookSubscription struct {
	Event   wire.HookEvent
	Matcher string
	Timeout time.Duration
	Handler HookCallback
}

// MCPServerConfig describes an external MCP server to connect in addition
// to (or instead of) in-process tools.
type MCPServerConfig = cliargs.MCPServerConfig

// Options configures a single Query/Connect call.
type Options struct {
	// Model/FallbackModel select which model the CLI should use.
	Model         string
	FallbackModel string

	// Tools/AllowedTools/DisallowedTools scope which built-in CLI tools are
	// available to the model.
	Tools           []string
	AllowedTools    []string
	DisallowedTools []string

	SystemPrompt       string
	AppendSystemPrompt string

	// PermissionMode seeds the session's initial permission mode; it can be
	// changed later with Session.SetPermissionMode.
	PermissionMode wire.PermissionMode

	MaxTurns          int
	MaxBudgetUSD      float64
	MaxThinkingTokens int

	Agents  []string
	Plugins []string

	Sandbox       bool
	SandboxConfig string

	Resume                 string
	ForkSession             bool
	Continue                bool
	IncludePartialMessages bool
	JSONSchema              string

	ExternalMCPServers []MCPServerConfig

	// Tools exposed by this process itself via the in-process tool server.
	InProcessTools []ToolDefinition
	ToolServerName string

	// Hooks/Permission are dispatched locally by this process; see
	// internal/hooks for callback semantics and failure handling.
	Hooks      []HookSubscription
	Permission PermissionCallback

	// ChannelCapacity bounds the Agent Message backpressure channel; zero
	// defaults to 1024.
	ChannelCapacity int

	Logger Logger

	Resolver ExecutableResolver
	Launcher ProcessLauncher
}

func (o Options) logger() Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.NopLogger{}
}

func (o Options) channelCapacity() int {
	if o.ChannelCapacity > 0 {
		return o.ChannelCapacity
	}
	return 1024
}

func (o Options) permissionMode() wire.PermissionMode {
	if o.PermissionMode != "" {
		return o.PermissionMode
	}
	return wire.PermissionModeDefault
}

// ctxOrBackground returns ctx if non-nil, else context.Background(). Kept
// for call sites that may receive a nil context from older callers.
func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
