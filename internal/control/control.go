// Package control implements the Control Channel: correlation of outbound
// control requests with their eventual responses, and dispatch of inbound
// control requests to whichever component owns that subtype.
package control

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/agentproto/agentsdk/internal/wire"
)

// Sender writes frames to the transport. *transport.Transport satisfies this.
type Sender interface {
	Write(frame any) error
}

// Handler answers one inbound control request and returns the `response`
// payload to embed in the success envelope, or an error to embed in the
// error envelope. A handler must return exactly once.
type Handler func(ctx context.Context, requestID string, request map[string]any) (any, error)

// Channel multiplexes the single stream-json byte stream's control requests
// and responses. One Channel instance serves both directions: requests this
// process originates (Send) and requests the peer originates (routed via
// RegisterHandler by the `request.subtype` field).
type Channel struct {
	sender Sender

	counter    atomic.Uint64
	idPrefix   string

	mu      sync.Mutex
	pending map[string]*pendingRequest

	handlersMu sync.RWMutex
	handlers   map[string]Handler
}

type pendingRequest struct {
	result chan controlResult
	cancel context.CancelFunc
}

type controlResult struct {
	value any
	err   error
}

// New constructs a Channel that writes outbound frames through sender.
func New(sender Sender) *Channel {
	prefix := make([]byte, 4)
	_, _ = rand.Read(prefix)
	return &Channel{
		sender:   sender,
		idPrefix: hex.EncodeToString(prefix),
		pending:  make(map[string]*pendingRequest),
		handlers: make(map[string]Handler),
	}
}

// RegisterHandler installs the handler responsible for inbound control
// requests of the given subtype (e.g. "can_use_tool", "hook_callback",
// "mcp_message"). Only one handler may own a subtype at a time.
func (c *Channel) RegisterHandler(subtype string, handler Handler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers[subtype] = handler
}

// nextRequestID produces a correlation id unique within this process:
// a random prefix drawn when the Channel is created plus a monotonic counter.
func (c *Channel) nextRequestID() string {
	n := c.counter.Add(1)
	return fmt.Sprintf("%s-%d", c.idPrefix, n)
}

// Send issues an outbound control request and blocks until the matching
// response arrives, ctx is cancelled, or the deadline elapses.
func (c *Channel) Send(ctx context.Context, subtype string, payload map[string]any) (any, error) {
	requestID := c.nextRequestID()
	requestCtx, cancel := context.WithCancel(ctx)

	request := map[string]any{"subtype": subtype}
	for k, v := range payload {
		request[k] = v
	}

	pending := &pendingRequest{result: make(chan controlResult, 1), cancel: cancel}
	c.mu.Lock()
	c.pending[requestID] = pending
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, requestID)
		c.mu.Unlock()
	}()

	if err := c.sender.Write(wire.ControlRequestFrame{
		Type:      "control_request",
		RequestID: requestID,
		Request:   request,
	}); err != nil {
		return nil, fmt.Errorf("write control request: %w", err)
	}

	select {
	case result := <-pending.result:
		return result.value, result.err
	case <-requestCtx.Done():
		_ = c.sender.Write(wire.ControlCancelRequestFrame{Type: "control_cancel_request", RequestID: requestID})
		return nil, &TimeoutError{RequestID: requestID, Cause: requestCtx.Err()}
	}
}

// HandleResponse resolves a pending Send call with the peer's response
// envelope. It is a no-op if no request is pending for the given id, which
// can happen after a local Send timeout; such a response is dropped without
// being logged.
func (c *Channel) HandleResponse(envelope wire.ControlResponseEnvelope) {
	c.mu.Lock()
	pending, ok := c.pending[envelope.RequestID]
	c.mu.Unlock()
	if !ok {
		return
	}

	if envelope.Subtype == "error" {
		pending.result <- controlResult{err: fmt.Errorf("control request failed: %s", envelope.Error)}
		return
	}

	var value any
	if len(envelope.Response) > 0 {
		if err := json.Unmarshal(envelope.Response, &value); err != nil {
			pending.result <- controlResult{err: fmt.Errorf("decode control response: %w", err)}
			return
		}
	}
	pending.result <- controlResult{value: value}
}

// HandleRequest dispatches an inbound control request to its registered
// handler and writes exactly one response frame, success or error.
func (c *Channel) HandleRequest(ctx context.Context, requestID string, request map[string]any) {
	subtype, _ := request["subtype"].(string)

	c.handlersMu.RLock()
	handler, ok := c.handlers[subtype]
	c.handlersMu.RUnlock()

	if !ok {
		c.writeError(requestID, fmt.Sprintf("no handler registered for control request subtype %q", subtype))
		return
	}

	response, err := handler(ctx, requestID, request)
	if err != nil {
		c.writeError(requestID, err.Error())
		return
	}
	c.writeSuccess(requestID, response)
}

func (c *Channel) writeSuccess(requestID string, response any) {
	_ = c.sender.Write(wire.ControlResponseFrame{
		Type: "control_response",
		Response: wire.ControlResponseEnvelope{
			Subtype:   "success",
			RequestID: requestID,
			Response:  mustMarshal(response),
		},
	})
}

func (c *Channel) writeError(requestID, message string) {
	_ = c.sender.Write(wire.ControlResponseFrame{
		Type: "control_response",
		Response: wire.ControlResponseEnvelope{
			Subtype:   "error",
			RequestID: requestID,
			Error:     message,
		},
	})
}

func mustMarshal(v any) json.RawMessage {
	if v == nil {
		return json.RawMessage("null")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return raw
}

// CancelAll fails every pending Send call with ErrCancelled, used when the
// session is tearing down and no further responses will ever arrive.
func (c *Channel) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, pending := range c.pending {
		select {
		case pending.result <- controlResult{err: ErrCancelled}:
		default:
		}
		delete(c.pending, id)
	}
}
