package agentsdk

import "github.com/agentproto/agentsdk/internal/wire"

// Message is the tagged union of everything a Session can yield from
// Receive/Query: user echoes, assistant turns, system notices, partial
// stream events, and the terminal result.
type Message interface {
	MessageType() string
}

// UserMessage is a user-authored turn, either the caller's own prompt echoed
// back or one synthesized by the CLI (tool results, replayed input).
type UserMessage struct {
	UUID            string
	SessionID       string
	Text            string
	ContentBlocks   []wire.ContentBlock
	IsSynthetic     bool
	IsReplay        bool
	ParentToolUseID *string
}

func (UserMessage) MessageType() string { return "user" }

// AssistantMessage is one assistant turn, possibly containing text,
// thinking, and tool_use blocks.
type AssistantMessage struct {
	UUID          string
	SessionID     string
	Model         string
	Text          string
	ContentBlocks []wire.ContentBlock
	Usage         *wire.MessageUsage
}

func (AssistantMessage) MessageType() string { return "assistant" }

// SystemMessage is a non-initialization system notice (compaction
// boundaries, hook lifecycle notices, auth status, and similar).
type SystemMessage struct {
	UUID           string
	SessionID      string
	Subtype        string
	PermissionMode string
	Status         any
}

func (SystemMessage) MessageType() string { return "system" }

// SystemInitMessage is the one-time session initialization notice.
type SystemInitMessage struct {
	UUID              string
	SessionID         string
	CWD               string
	Tools             []string
	Model             string
	PermissionMode    string
	SlashCommands     []string
	ClaudeCodeVersion string
	OutputStyle       string
}

func (SystemInitMessage) MessageType() string { return "system:init" }

// StreamEventMessage wraps a low-level partial-message event, only emitted
// when the session requested IncludePartialMessages.
type StreamEventMessage struct {
	UUID      string
	SessionID string
	Event     any
}

func (StreamEventMessage) MessageType() string { return "stream_event" }

// ResultMessage is the terminal event of a single turn.
type ResultMessage struct {
	UUID              string
	SessionID         string
	Subtype           string
	IsError           bool
	DurationMS        int64
	DurationAPIMS     int64
	NumTurns          int
	Result            string
	TotalCostUSD      float64
	Usage             any
	PermissionDenials []any
	Errors            []string
}

func (ResultMessage) MessageType() string { return "result" }

// fromFrame converts a decoded wire.Frame into the public Message union.
// It returns ok=false for frames that never surface as Agent Messages
// (control frames, keep-alives, unknown lines) — those are handled entirely
// inside the Session's multiplexing loop.
func fromFrame(frame wire.Frame) (Message, bool) {
	switch f := frame.(type) {
	case wire.UserMessageFrame:
		blocks, _ := wire.DecodeContentBlocks(f.Message.Content)
		return UserMessage{
			UUID:            f.UUID,
			SessionID:       f.SessionID,
			Text:            wire.ExtractText(blocks),
			ContentBlocks:   blocks,
			IsSynthetic:     f.IsSynthetic,
			IsReplay:        f.IsReplay,
			ParentToolUseID: f.ParentToolUseID,
		}, true
	case wire.AssistantMessageFrame:
		blocks, _ := wire.DecodeContentBlocks(f.Message.Content)
		return AssistantMessage{
			UUID:          f.UUID,
			SessionID:     f.SessionID,
			Model:         f.Message.Model,
			Text:          wire.ExtractText(blocks),
			ContentBlocks: blocks,
			Usage:         f.Message.Usage,
		}, true
	case wire.SystemInitFrame:
		return SystemInitMessage{
			UUID:              f.UUID,
			SessionID:         f.SessionID,
			CWD:               f.CWD,
			Tools:             f.Tools,
			Model:             f.Model,
			PermissionMode:    f.PermissionMode,
			SlashCommands:     f.SlashCommands,
			ClaudeCodeVersion: f.ClaudeCodeVersion,
			OutputStyle:       f.OutputStyle,
		}, true
	case wire.SystemMessageFrame:
		return SystemMessage{
			UUID:           f.UUID,
			SessionID:      f.SessionID,
			Subtype:        f.Subtype,
			PermissionMode: f.PermissionMode,
			Status:         f.Status,
		}, true
	case wire.StreamEventFrame:
		return StreamEventMessage{UUID: f.UUID, SessionID: f.SessionID, Event: f.Event}, true
	case wire.ResultFrame:
		return ResultMessage{
			UUID:              f.UUID,
			SessionID:         f.SessionID,
			Subtype:           f.Subtype,
			IsError:           f.IsError,
			DurationMS:        f.DurationMS,
			DurationAPIMS:     f.DurationAPIMS,
			NumTurns:          f.NumTurns,
			Result:            f.Result,
			TotalCostUSD:      f.TotalCostUSD,
			Usage:             f.Usage,
			PermissionDenials: f.PermissionDenials,
			Errors:            f.Errors,
		}, true
	default:
		return nil, false
	}
}
