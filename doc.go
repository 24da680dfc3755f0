// Package agentsdk drives an Agent CLI subprocess over its stream-json
// protocol: it spawns the CLI, frames its stdio into typed messages,
// multiplexes the control channel, and dispatches hook and permission
// callbacks and in-process tool calls registered by the caller.
//
// Query is the single-turn entry point; Connect/Session support multi-turn
// sessions that need to call SetModel, SetPermissionMode, Interrupt, or
// RewindFiles mid-conversation.
package agentsdk
