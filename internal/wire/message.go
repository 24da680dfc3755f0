// Package wire implements the stream-json message codec: the tagged-union
// types exchanged between this SDK and an Agent CLI subprocess, and the
// framing logic that turns newline-delimited JSON into typed Go values.
package wire

import (
	"encoding/json"
	"fmt"
)

// Message is the Anthropic-style message payload carried by user and
// assistant frames.
type Message struct {
	// ID is the unique message identifier when provided.
	ID string `json:"id,omitempty"`
	// Model names the model that generated the message.
	Model string `json:"model,omitempty"`
	// Role is one of user, assistant, or system.
	Role string `json:"role"`
	// StopReason indicates why generation stopped.
	StopReason string `json:"stop_reason,omitempty"`
	// StopSequence holds the stop sequence when applicable.
	StopSequence *string `json:"stop_sequence,omitempty"`
	// Type is always "message" for Claude-style envelopes.
	Type string `json:"type,omitempty"`
	// Usage reports token usage for the message when available.
	Usage *MessageUsage `json:"usage,omitempty"`
	// Content is either a string or a list of content blocks.
	Content any `json:"content"`
}

// ContentBlock represents an Anthropic-style content block: text, thinking,
// tool_use, or tool_result depending on Type.
type ContentBlock struct {
	// Type determines how the content block is interpreted.
	Type ContentBlockType `json:"type"`
	// Text carries plain text content.
	Text string `json:"text,omitempty"`
	// Thinking carries extended-thinking content.
	Thinking string `json:"thinking,omitempty"`
	// Signature carries the thinking-block signature, when present.
	Signature string `json:"signature,omitempty"`
	// ID identifies a tool call, when Type == tool_use.
	ID string `json:"id,omitempty"`
	// Name specifies the tool name for tool_use blocks.
	Name string `json:"name,omitempty"`
	// Input holds the tool input object for tool_use blocks.
	Input any `json:"input,omitempty"`
	// ToolUseID links tool_result blocks to a tool_use.
	ToolUseID string `json:"tool_use_id,omitempty"`
	// Content carries tool_result output, either a string or a block list.
	Content any `json:"content,omitempty"`
	// IsError indicates a tool_result error condition.
	IsError bool `json:"is_error,omitempty"`
}

// ContentBlockType enumerates the known content block discriminators.
type ContentBlockType string

const (
	ContentBlockText       ContentBlockType = "text"
	ContentBlockThinking   ContentBlockType = "thinking"
	ContentBlockToolUse    ContentBlockType = "tool_use"
	ContentBlockToolResult ContentBlockType = "tool_result"
	ContentBlockUnknown    ContentBlockType = ""
)

// MessageUsage reports Claude-style token usage for an assistant message.
type MessageUsage struct {
	InputTokens              int                  `json:"input_tokens"`
	OutputTokens             int                  `json:"output_tokens"`
	CacheCreationInputTokens int                  `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int                  `json:"cache_read_input_tokens"`
	ServerToolUse            MessageServerToolUse `json:"server_tool_use"`
	ServiceTier              *string              `json:"service_tier,omitempty"`
}

// MessageServerToolUse reports server-side tool request counts.
type MessageServerToolUse struct {
	WebSearchRequests int `json:"web_search_requests"`
	WebFetchRequests  int `json:"web_fetch_requests"`
}

// NewUserTextMessage builds a single-block text message with the given role.
// Outbound UserMessage frames use this to wrap a caller-supplied prompt.
func NewUserTextMessage(role, text string) Message {
	return Message{
		Type:    "message",
		Role:    role,
		Content: []ContentBlock{{Type: ContentBlockText, Text: text}},
	}
}

// NewToolResultMessage builds a user message carrying a single tool_result
// block, the shape the In-Process Tool Server's callers send back to the CLI.
func NewToolResultMessage(toolUseID string, content any, isError bool) Message {
	return Message{
		Type: "message",
		Role: "user",
		Content: []ContentBlock{{
			Type:      ContentBlockToolResult,
			ToolUseID: toolUseID,
			Content:   content,
			IsError:   isError,
		}},
	}
}

// ExtractText concatenates all text blocks in an Anthropic-style content
// value, which may be a bare string or a []ContentBlock/[]any list.
func ExtractText(content any) string {
	switch typed := content.(type) {
	case string:
		return typed
	case []ContentBlock:
		var out string
		for _, block := range typed {
			if block.Type == ContentBlockText {
				out += block.Text
			}
		}
		return out
	case []any:
		var out string
		for _, item := range typed {
			raw, err := json.Marshal(item)
			if err != nil {
				continue
			}
			var block ContentBlock
			if err := json.Unmarshal(raw, &block); err != nil {
				continue
			}
			if block.Type == ContentBlockText {
				out += block.Text
			}
		}
		return out
	default:
		return ""
	}
}

// DecodeContentBlocks normalizes a Message's Content field into a typed
// slice of ContentBlock, regardless of whether the wire value was a bare
// string or a list.
func DecodeContentBlocks(content any) ([]ContentBlock, error) {
	if content == nil {
		return nil, nil
	}
	if text, ok := content.(string); ok {
		return []ContentBlock{{Type: ContentBlockText, Text: text}}, nil
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content for normalization: %w", err)
	}
	var blocks []ContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, fmt.Errorf("decode content blocks: %w", err)
	}
	return blocks, nil
}
