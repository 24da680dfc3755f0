package control

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agentproto/agentsdk/internal/testutil"
	"github.com/agentproto/agentsdk/internal/wire"
)

// recordingSender captures every frame written to it and optionally replies
// on a background goroutine to simulate the peer answering a request.
type recordingSender struct {
	mu     sync.Mutex
	frames []any
}

func (s *recordingSender) Write(frame any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return nil
}

func (s *recordingSender) last() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func TestSendResolvesOnMatchingResponse(t *testing.T) {
	sender := &recordingSender{}
	channel := New(sender)

	var requestID string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if frame, ok := sender.last().(wire.ControlRequestFrame); ok {
				requestID = frame.RequestID
				break
			}
			time.Sleep(time.Millisecond)
		}
		channel.HandleResponse(wire.ControlResponseEnvelope{
			Subtype:   "success",
			RequestID: requestID,
			Response:  json.RawMessage(`{"ok":true}`),
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	value, err := channel.Send(ctx, "set_model", map[string]any{"model": "claude"})
	<-done
	testutil.RequireNoError(t, err, "send")

	asMap, ok := value.(map[string]any)
	testutil.RequireTrue(t, ok, "expected map response")
	testutil.RequireEqual(t, asMap["ok"], true, "response field")
}

func TestSendTimesOutWithoutResponse(t *testing.T) {
	sender := &recordingSender{}
	channel := New(sender)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := channel.Send(ctx, "interrupt", nil)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %T: %v", err, err)
	}
	if timeoutErr.RequestID == "" {
		t.Fatalf("expected TimeoutError to carry the request id")
	}
	if !errors.Is(err, ErrControlTimeout) {
		t.Fatalf("expected errors.Is(err, ErrControlTimeout) to hold")
	}
}

func TestHandleRequestDispatchesToRegisteredSubtype(t *testing.T) {
	sender := &recordingSender{}
	channel := New(sender)
	channel.RegisterHandler("can_use_tool", func(ctx context.Context, requestID string, request map[string]any) (any, error) {
		return map[string]any{"behavior": "allow"}, nil
	})

	channel.HandleRequest(context.Background(), "req-1", map[string]any{"subtype": "can_use_tool"})

	frame, ok := sender.last().(wire.ControlResponseFrame)
	testutil.RequireTrue(t, ok, "expected a control response frame")
	envelope, ok := frame.Response.(wire.ControlResponseEnvelope)
	testutil.RequireTrue(t, ok, "expected response envelope")
	testutil.RequireEqual(t, envelope.Subtype, "success", "envelope subtype")
}

func TestHandleRequestUnknownSubtypeErrors(t *testing.T) {
	sender := &recordingSender{}
	channel := New(sender)

	channel.HandleRequest(context.Background(), "req-2", map[string]any{"subtype": "nonexistent"})

	frame, ok := sender.last().(wire.ControlResponseFrame)
	testutil.RequireTrue(t, ok, "expected a control response frame")
	envelope, ok := frame.Response.(wire.ControlResponseEnvelope)
	testutil.RequireTrue(t, ok, "expected response envelope")
	testutil.RequireEqual(t, envelope.Subtype, "error", "envelope subtype")
}

func TestCancelAllFailsPendingRequests(t *testing.T) {
	sender := &recordingSender{}
	channel := New(sender)

	resultCh := make(chan error, 1)
	go func() {
		_, err := channel.Send(context.Background(), "interrupt", nil)
		resultCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	channel.CancelAll()

	select {
	case err := <-resultCh:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Send did not return after CancelAll")
	}
}
