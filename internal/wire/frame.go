package wire

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Frame is any line-delimited value read from or written to the Agent CLI's
// stdio. Every concrete frame type embeds its own Type (and for system/result
// frames, Subtype) so that type-switching after ParseFrame never requires a
// second unmarshal.
type Frame interface {
	frameType() string
}

// UserMessageFrame carries a user-authored message into the agent.
type UserMessageFrame struct {
	Type            string  `json:"type"`
	UUID            string  `json:"uuid,omitempty"`
	SessionID       string  `json:"session_id,omitempty"`
	Message         Message `json:"message"`
	ParentToolUseID *string `json:"parent_tool_use_id,omitempty"`
	IsSynthetic     bool    `json:"isSynthetic,omitempty"`
	IsReplay        bool    `json:"isReplay,omitempty"`
}

func (UserMessageFrame) frameType() string { return "user" }

// AssistantMessageFrame carries an assistant turn from the agent.
type AssistantMessageFrame struct {
	Type            string  `json:"type"`
	Message         Message `json:"message"`
	SessionID       string  `json:"session_id"`
	ParentToolUseID any     `json:"parent_tool_use_id"`
	UUID            string  `json:"uuid"`
}

func (AssistantMessageFrame) frameType() string { return "assistant" }

// SystemMessageFrame carries a generic system notice (subtype != "init").
type SystemMessageFrame struct {
	Type           string `json:"type"`
	Subtype        string `json:"subtype"`
	Status         any    `json:"status,omitempty"`
	PermissionMode string `json:"permissionMode,omitempty"`
	SessionID      string `json:"session_id"`
	UUID           string `json:"uuid"`
}

func (SystemMessageFrame) frameType() string { return "system" }

// SystemInitFrame carries the one-time session initialization payload.
type SystemInitFrame struct {
	Type              string   `json:"type"`
	Subtype           string   `json:"subtype"`
	CWD               string   `json:"cwd"`
	SessionID         string   `json:"session_id"`
	Tools             []string `json:"tools"`
	MCPServers        []any    `json:"mcp_servers"`
	Model             string   `json:"model"`
	PermissionMode    string   `json:"permissionMode"`
	SlashCommands     []string `json:"slash_commands"`
	APIKeySource      string   `json:"apiKeySource"`
	ClaudeCodeVersion string   `json:"claude_code_version"`
	OutputStyle       string   `json:"output_style"`
	Agents            []any    `json:"agents"`
	UUID              string   `json:"uuid"`
}

func (SystemInitFrame) frameType() string { return "system:init" }

// ResultFrame is the terminal event of a single turn.
type ResultFrame struct {
	Type              string   `json:"type"`
	Subtype           string   `json:"subtype"`
	IsError           bool     `json:"is_error"`
	DurationMS        int64    `json:"duration_ms"`
	DurationAPIMS     int64    `json:"duration_api_ms"`
	NumTurns          int      `json:"num_turns"`
	Result            string   `json:"result"`
	SessionID         string   `json:"session_id"`
	TotalCostUSD      float64  `json:"total_cost_usd"`
	Usage             any      `json:"usage"`
	PermissionDenials []any    `json:"permission_denials"`
	UUID              string   `json:"uuid"`
	Errors            []string `json:"errors,omitempty"`
}

func (ResultFrame) frameType() string { return "result" }

// StreamEventFrame wraps a low-level partial-message streaming event; only
// emitted when the session was started with IncludePartialMessages.
type StreamEventFrame struct {
	Type            string `json:"type"`
	Event           any    `json:"event"`
	SessionID       string `json:"session_id"`
	ParentToolUseID any    `json:"parent_tool_use_id"`
	UUID            string `json:"uuid"`
}

func (StreamEventFrame) frameType() string { return "stream_event" }

// ControlRequestFrame wraps a control-channel request in either direction.
type ControlRequestFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Request   any    `json:"request"`
}

func (ControlRequestFrame) frameType() string { return "control_request" }

// ControlResponseFrame wraps a control-channel response in either direction.
type ControlResponseFrame struct {
	Type     string `json:"type"`
	Response any    `json:"response"`
}

func (ControlResponseFrame) frameType() string { return "control_response" }

// ControlCancelRequestFrame asks the peer to abandon a pending control request.
type ControlCancelRequestFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
}

func (ControlCancelRequestFrame) frameType() string { return "control_cancel_request" }

// KeepAliveFrame is a recognized, inert heartbeat line. It is not part of
// spec's Agent Message vocabulary but appears on real wire traffic; the
// Session Runtime drops it silently.
type KeepAliveFrame struct {
	Type string `json:"type"`
}

func (KeepAliveFrame) frameType() string { return "keep_alive" }

// UnknownFrame preserves an unrecognized line so callers can log and move on
// rather than fail the whole stream, per the codec's forward-compatibility
// requirement.
type UnknownFrame struct {
	RawType string
	Raw     json.RawMessage
}

func (UnknownFrame) frameType() string { return "unknown" }

// ControlResponseEnvelope is the shape of the `response` field inside a
// ControlResponseFrame: either {subtype:"success", response:{...}, request_id}
// or {subtype:"error", error:"...", request_id}.
type ControlResponseEnvelope struct {
	Subtype   string          `json:"subtype"`
	RequestID string          `json:"request_id"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ParseFrame decodes one newline-delimited JSON line into a concrete Frame
// value, dispatching on the envelope's "type" field (and "subtype" for
// system/result frames where the subtype changes the shape).
func ParseFrame(line []byte) (Frame, error) {
	var head struct {
		Type    string `json:"type"`
		Subtype string `json:"subtype"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return nil, fmt.Errorf("parse frame envelope: %w", err)
	}

	switch head.Type {
	case "user":
		var frame UserMessageFrame
		return decodeInto(line, &frame)
	case "assistant":
		var frame AssistantMessageFrame
		return decodeInto(line, &frame)
	case "system":
		if head.Subtype == "init" {
			var frame SystemInitFrame
			return decodeInto(line, &frame)
		}
		var frame SystemMessageFrame
		return decodeInto(line, &frame)
	case "result":
		var frame ResultFrame
		return decodeInto(line, &frame)
	case "stream_event":
		var frame StreamEventFrame
		return decodeInto(line, &frame)
	case "control_request":
		var frame ControlRequestFrame
		return decodeInto(line, &frame)
	case "control_response":
		var frame ControlResponseFrame
		return decodeInto(line, &frame)
	case "control_cancel_request":
		var frame ControlCancelRequestFrame
		return decodeInto(line, &frame)
	case "keep_alive":
		var frame KeepAliveFrame
		return decodeInto(line, &frame)
	default:
		raw := make(json.RawMessage, len(line))
		copy(raw, line)
		return UnknownFrame{RawType: head.Type, Raw: raw}, nil
	}
}

func decodeInto[T Frame](line []byte, frame *T) (Frame, error) {
	if err := json.Unmarshal(line, frame); err != nil {
		return nil, fmt.Errorf("decode %T: %w", *frame, err)
	}
	return *frame, nil
}

// NewUUID returns a new random UUID string, used for outbound message ids.
func NewUUID() string {
	return uuid.NewString()
}
