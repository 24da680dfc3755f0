package hooks

import (
	"context"
	"testing"
	"time"

	"github.com/agentproto/agentsdk/internal/testutil"
	"github.com/agentproto/agentsdk/internal/wire"
)

func TestRegisterHookAndDispatchCallback(t *testing.T) {
	dispatcher := NewDispatcher()
	called := false
	id := dispatcher.RegisterHook(wire.HookEventPreToolUse, "Bash", time.Second, func(ctx context.Context, event wire.HookEvent, input HookInput) (HookOutput, error) {
		called = true
		testutil.RequireEqual(t, input.ToolName, "Bash", "tool name")
		return HookOutput{}, nil
	})

	result, err := dispatcher.HandleHookCallback(context.Background(), "req-1", map[string]any{
		"callback_id": id,
		"tool_name":   "Bash",
	})
	testutil.RequireNoError(t, err, "handle hook callback")
	testutil.RequireTrue(t, called, "expected callback invocation")
	testutil.RequireTrue(t, result != nil, "expected non-nil result")
}

func TestHandleHookCallbackUnknownID(t *testing.T) {
	dispatcher := NewDispatcher()
	_, err := dispatcher.HandleHookCallback(context.Background(), "req-1", map[string]any{"callback_id": "missing"})
	if err == nil {
		t.Fatalf("expected error for unknown callback id")
	}
}

func TestHandleHookCallbackRecoversPanic(t *testing.T) {
	dispatcher := NewDispatcher()
	id := dispatcher.RegisterHook(wire.HookEventPreToolUse, "", time.Second, func(ctx context.Context, event wire.HookEvent, input HookInput) (HookOutput, error) {
		panic("boom")
	})

	_, err := dispatcher.HandleHookCallback(context.Background(), "req-1", map[string]any{"callback_id": id})
	if err == nil {
		t.Fatalf("expected recovered panic to surface as an error")
	}
}

func TestHandlePermissionRequestDefaultPolicy(t *testing.T) {
	dispatcher := NewDispatcher()
	dispatcher.SetMode(wire.PermissionModeDefault)

	result, err := dispatcher.HandlePermissionRequest(context.Background(), "req-1", map[string]any{"tool_name": "Bash"})
	testutil.RequireNoError(t, err, "handle permission request")
	asMap := result.(map[string]any)
	testutil.RequireEqual(t, asMap["behavior"], "deny", "default mode denies Bash without a callback")
	testutil.RequireEqual(t, asMap["interrupt"], false, "deny response must always carry interrupt")

	result, err = dispatcher.HandlePermissionRequest(context.Background(), "req-2", map[string]any{"tool_name": "Read"})
	testutil.RequireNoError(t, err, "handle permission request")
	asMap = result.(map[string]any)
	testutil.RequireEqual(t, asMap["behavior"], "allow", "default mode allows non-prompting tools")
}

func TestHandlePermissionRequestPlanModeDenies(t *testing.T) {
	dispatcher := NewDispatcher()
	dispatcher.SetMode(wire.PermissionModePlan)

	result, err := dispatcher.HandlePermissionRequest(context.Background(), "req-1", map[string]any{"tool_name": "Read"})
	testutil.RequireNoError(t, err, "handle permission request")
	asMap := result.(map[string]any)
	testutil.RequireEqual(t, asMap["behavior"], "deny", "plan mode denies all tools")
}

func TestHandlePermissionRequestUsesCallback(t *testing.T) {
	dispatcher := NewDispatcher()
	dispatcher.SetMode(wire.PermissionModeDefault)
	dispatcher.SetPermissionCallback(func(ctx context.Context, toolName string, toolInput map[string]any) (PermissionDecision, error) {
		return Allow(nil), nil
	})

	result, err := dispatcher.HandlePermissionRequest(context.Background(), "req-1", map[string]any{"tool_name": "Bash"})
	testutil.RequireNoError(t, err, "handle permission request")
	asMap := result.(map[string]any)
	testutil.RequireEqual(t, asMap["behavior"], "allow", "callback allow decision honored")
}

func TestHandlePermissionRequestCallbackDenyCarriesInterrupt(t *testing.T) {
	dispatcher := NewDispatcher()
	dispatcher.SetMode(wire.PermissionModeDefault)
	dispatcher.SetPermissionCallback(func(ctx context.Context, toolName string, toolInput map[string]any) (PermissionDecision, error) {
		return Deny("no shell", false), nil
	})

	result, err := dispatcher.HandlePermissionRequest(context.Background(), "req-1", map[string]any{"tool_name": "Bash"})
	testutil.RequireNoError(t, err, "handle permission request")
	asMap := result.(map[string]any)
	testutil.RequireEqual(t, asMap["behavior"], "deny", "callback deny decision honored")
	testutil.RequireEqual(t, asMap["message"], "no shell", "deny message passed through")
	testutil.RequireEqual(t, asMap["interrupt"], false, "deny interrupt flag passed through")
}

func TestMatcherMatchesPipedTokens(t *testing.T) {
	reg := Registration{Matcher: "Bash|Edit"}
	testutil.RequireTrue(t, reg.MatchesTool("Bash"), "expected Bash to match")
	testutil.RequireTrue(t, !reg.MatchesTool("Read"), "expected Read not to match")
}

func TestMatcherMatchesRegex(t *testing.T) {
	reg := Registration{Matcher: "^(Bash|Grep).*"}
	testutil.RequireTrue(t, reg.MatchesTool("BashTool"), "expected regex match")
}
