package hooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentproto/agentsdk/internal/wire"
)

// HookInput is the normalized payload handed to a hook callback, assembled
// from the hook_callback control request's fields.
type HookInput struct {
	ToolName  string
	ToolInput map[string]any
	ToolUseID string
	Raw       map[string]any
}

// HookOutput is what a hook callback returns. A nil *bool Continue means
// "continue" (the default); setting it false stops the agent loop.
type HookOutput struct {
	Continue        *bool
	StopReason      string
	SystemMessage   string
	Decision        string // "block" or empty
	PermissionInput map[string]any
}

// Callback is a user-supplied hook handler. Panics are recovered by the
// dispatcher and converted into a HandlerFailure-style error response, never
// propagated to the CLI peer.
type Callback func(ctx context.Context, event wire.HookEvent, input HookInput) (HookOutput, error)

// PermissionCallback decides whether a tool call may proceed. It is invoked
// for every can_use_tool control request unless the active mode is "plan".
type PermissionCallback func(ctx context.Context, toolName string, toolInput map[string]any) (PermissionDecision, error)

// Registration describes one hook subscription, matching the shape carried
// in the initialize control request's hooks field.
type Registration struct {
	ID      string
	Event   wire.HookEvent
	Matcher string
	Timeout time.Duration
}

// maxConcurrentCallbacks bounds fan-out when a single event matches several
// registered hooks, mirroring the bounded-worker-pool pattern used for tool
// call concurrency elsewhere in this domain.
const maxConcurrentCallbacks = 8

// Dispatcher owns hook callback registration and routes inbound
// hook_callback/can_use_tool control requests to the right Go function.
type Dispatcher struct {
	mu       sync.RWMutex
	registry map[string]Registration
	handlers map[string]Callback

	permission       PermissionCallback
	mode             wire.PermissionMode
	modeMu           sync.RWMutex
}

// NewDispatcher constructs an empty Dispatcher starting in default mode.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		registry: make(map[string]Registration),
		handlers: make(map[string]Callback),
		mode:     wire.PermissionModeDefault,
	}
}

// RegisterHook assigns a stable callback ID to cb and records its
// registration descriptor for inclusion in the initialize control request.
func (d *Dispatcher) RegisterHook(event wire.HookEvent, matcher string, timeout time.Duration, cb Callback) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := fmt.Sprintf("hook-%d", len(d.registry)+1)
	d.registry[id] = Registration{ID: id, Event: event, Matcher: matcher, Timeout: timeout}
	d.handlers[id] = cb
	return id
}

// SetPermissionCallback installs the callback invoked for can_use_tool
// control requests. A nil callback falls back to the default mode-driven
// allow/deny policy in defaultShouldPrompt.
func (d *Dispatcher) SetPermissionCallback(cb PermissionCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.permission = cb
}

// SetMode updates the active permission mode, used by the plan-mode gate
// and the default policy in HandlePermissionRequest.
func (d *Dispatcher) SetMode(mode wire.PermissionMode) {
	d.modeMu.Lock()
	defer d.modeMu.Unlock()
	d.mode = mode
}

// Mode returns the active permission mode.
func (d *Dispatcher) Mode() wire.PermissionMode {
	d.modeMu.RLock()
	defer d.modeMu.RUnlock()
	return d.mode
}

// RegistrationsForInitialize groups registrations by event name in the shape
// the initialize control request expects: event -> [{matcher,
// hookCallbackIds, timeoutSeconds}].
func (d *Dispatcher) RegistrationsForInitialize() map[string][]map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	byEvent := map[string][]Registration{}
	for _, reg := range d.registry {
		byEvent[string(reg.Event)] = append(byEvent[string(reg.Event)], reg)
	}

	out := make(map[string][]map[string]any, len(byEvent))
	for event, regs := range byEvent {
		entries := make([]map[string]any, 0, len(regs))
		for _, reg := range regs {
			entries = append(entries, map[string]any{
				"matcher":         reg.Matcher,
				"hookCallbackIds": []string{reg.ID},
				"timeoutSeconds":  int(reg.Timeout.Seconds()),
			})
		}
		out[event] = entries
	}
	return out
}

// HandleHookCallback implements control.Handler for the "hook_callback"
// subtype: it looks up the callback by id, invokes it with panic recovery,
// and returns the wire-shaped output map.
func (d *Dispatcher) HandleHookCallback(ctx context.Context, requestID string, request map[string]any) (any, error) {
	callbackID, _ := request["callback_id"].(string)
	d.mu.RLock()
	reg, regOK := d.registry[callbackID]
	cb, cbOK := d.handlers[callbackID]
	d.mu.RUnlock()
	if !regOK || !cbOK {
		return nil, fmt.Errorf("unknown hook callback id %q", callbackID)
	}

	input := HookInput{Raw: request}
	if toolName, ok := request["tool_name"].(string); ok {
		input.ToolName = toolName
	}
	if toolInput, ok := request["tool_input"].(map[string]any); ok {
		input.ToolInput = toolInput
	}
	if toolUseID, ok := request["tool_use_id"].(string); ok {
		input.ToolUseID = toolUseID
	}

	output, err := d.invokeSafely(ctx, reg.Event, input, cb)
	if err != nil {
		return nil, err
	}

	result := map[string]any{}
	if output.Continue != nil {
		result["continue"] = *output.Continue
	}
	if output.StopReason != "" {
		result["stopReason"] = output.StopReason
	}
	if output.SystemMessage != "" {
		result["systemMessage"] = output.SystemMessage
	}
	if output.Decision != "" {
		result["decision"] = output.Decision
	}
	return result, nil
}

func (d *Dispatcher) invokeSafely(ctx context.Context, event wire.HookEvent, input HookInput, cb Callback) (output HookOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook callback panicked: %v", r)
		}
	}()
	return cb(ctx, event, input)
}

// HandlePermissionRequest implements control.Handler for the "can_use_tool"
// subtype. When no PermissionCallback is registered, it falls back to the
// mode-driven default policy: prompting tools are denied (there is no
// terminal to prompt on the SDK side), everything else is allowed.
func (d *Dispatcher) HandlePermissionRequest(ctx context.Context, requestID string, request map[string]any) (any, error) {
	toolName, _ := request["tool_name"].(string)
	toolInput, _ := request["input"].(map[string]any)

	d.mu.RLock()
	cb := d.permission
	d.mu.RUnlock()

	mode := d.Mode()
	if !AllowsExecution(mode) {
		return denyResponse("tool execution disabled in plan mode", false), nil
	}

	if cb == nil {
		if defaultShouldPrompt(mode, toolName) {
			return denyResponse("no permission callback registered to approve this tool", false), nil
		}
		return map[string]any{"behavior": "allow"}, nil
	}

	decision, err := d.invokePermissionSafely(ctx, cb, toolName, toolInput)
	if err != nil {
		return denyResponse(err.Error(), false), nil
	}

	if decision.Behavior == "deny" {
		return denyResponse(decision.Message, decision.Interrupt), nil
	}

	response := map[string]any{"behavior": decision.Behavior}
	if decision.UpdatedInput != nil {
		response["updated_input"] = decision.UpdatedInput
	}
	if decision.UpdatedPermissions != nil {
		response["updated_permissions"] = decision.UpdatedPermissions
	}
	return response, nil
}

// denyResponse builds the can_use_tool deny payload, always carrying
// "interrupt" per the wire contract.
func denyResponse(message string, interrupt bool) map[string]any {
	return map[string]any{"behavior": "deny", "message": message, "interrupt": interrupt}
}

func (d *Dispatcher) invokePermissionSafely(ctx context.Context, cb PermissionCallback, toolName string, toolInput map[string]any) (decision PermissionDecision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("permission callback panicked: %v", r)
		}
	}()
	return cb(ctx, toolName, toolInput)
}

// DispatchConcurrently runs fns with bounded parallelism, matching the
// fan-out pattern used when a single lifecycle event matches multiple
// registered hooks. Any single function's error is returned; others still
// run to completion.
func DispatchConcurrently(ctx context.Context, fns []func(context.Context) error) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentCallbacks)
	for _, fn := range fns {
		fn := fn
		group.Go(func() error { return fn(groupCtx) })
	}
	return group.Wait()
}

// MatchesTool reports whether a registration's matcher selects toolName.
func (r Registration) MatchesTool(toolName string) bool {
	return matcherMatches(r.Matcher, toolName)
}
