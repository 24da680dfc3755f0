package wire

import "strings"

// PermissionMode selects how the agent treats tool-use permission checks.
// The canonical spellings come from the control protocol's set_permission_mode
// request; ParsePermissionMode also accepts case-insensitive variants of
// those spellings and normalizes them.
type PermissionMode string

const (
	PermissionModeDefault           PermissionMode = "default"
	PermissionModeAcceptEdits       PermissionMode = "acceptEdits"
	PermissionModePlan              PermissionMode = "plan"
	PermissionModeBypassPermissions PermissionMode = "bypassPermissions"
	PermissionModeDontAsk           PermissionMode = "dontAsk"
)

var canonicalPermissionModes = []PermissionMode{
	PermissionModeDefault,
	PermissionModeAcceptEdits,
	PermissionModePlan,
	PermissionModeBypassPermissions,
	PermissionModeDontAsk,
}

// ParsePermissionMode normalizes a caller- or wire-supplied permission mode
// string against the canonical spellings. It matches exactly first, then
// case-insensitively; the second return value reports whether a
// case correction was applied so callers can log it.
func ParsePermissionMode(raw string) (mode PermissionMode, corrected bool, ok bool) {
	for _, candidate := range canonicalPermissionModes {
		if string(candidate) == raw {
			return candidate, false, true
		}
	}
	for _, candidate := range canonicalPermissionModes {
		if strings.EqualFold(string(candidate), raw) {
			return candidate, true, true
		}
	}
	return "", false, false
}

// HookEvent enumerates the lifecycle points a hook callback can subscribe to.
type HookEvent string

const (
	HookEventPreToolUse       HookEvent = "PreToolUse"
	HookEventPostToolUse      HookEvent = "PostToolUse"
	HookEventUserPromptSubmit HookEvent = "UserPromptSubmit"
	HookEventStop             HookEvent = "Stop"
	HookEventSubagentStop     HookEvent = "SubagentStop"
	HookEventPreCompact       HookEvent = "PreCompact"
	HookEventSessionStart     HookEvent = "SessionStart"
	HookEventSessionEnd       HookEvent = "SessionEnd"
)

// ResultSubtype enumerates the terminal subtypes of a ResultFrame.
type ResultSubtype string

const (
	ResultSubtypeSuccess        ResultSubtype = "success"
	ResultSubtypeErrorMaxTurns  ResultSubtype = "error_max_turns"
	ResultSubtypeErrorDuringAPI ResultSubtype = "error_during_execution"
)
