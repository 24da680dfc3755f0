package hooks

import "github.com/agentproto/agentsdk/internal/wire"

// PermissionDecision describes the outcome of a permission query, mirroring
// the can_use_tool control response shape.
type PermissionDecision struct {
	// Behavior is "allow" or "deny".
	Behavior string
	// Message explains a deny decision to the model.
	Message string
	// Interrupt tells the CLI to stop the current turn in addition to
	// denying the tool call.
	Interrupt bool
	// UpdatedInput optionally rewrites the tool input before execution,
	// letting a callback redact or normalize arguments on allow.
	UpdatedInput map[string]any
	// UpdatedPermissions optionally appends permission rules alongside an
	// allow decision.
	UpdatedPermissions []map[string]any
}

// Allow builds an allow decision, optionally rewriting the tool input.
func Allow(updatedInput map[string]any) PermissionDecision {
	return PermissionDecision{Behavior: "allow", UpdatedInput: updatedInput}
}

// Deny builds a deny decision with an explanatory message.
func Deny(message string, interrupt bool) PermissionDecision {
	return PermissionDecision{Behavior: "deny", Message: message, Interrupt: interrupt}
}

// defaultShouldPrompt reproduces the built-in prompting policy used when a
// session has no user-supplied permission callback: risky tools prompt
// under "default" and "acceptEdits", everything is auto-approved under
// "bypassPermissions"/"dontAsk", and nothing executes under "plan".
func defaultShouldPrompt(mode wire.PermissionMode, toolName string) bool {
	switch mode {
	case wire.PermissionModeBypassPermissions, wire.PermissionModeDontAsk:
		return false
	case wire.PermissionModeAcceptEdits:
		return toolName == "Bash"
	case wire.PermissionModePlan:
		return false
	default:
		return toolName == "Bash" || toolName == "Edit"
	}
}

// AllowsExecution reports whether the mode permits any tool execution at
// all; "plan" mode never does.
func AllowsExecution(mode wire.PermissionMode) bool {
	return mode != wire.PermissionModePlan
}
