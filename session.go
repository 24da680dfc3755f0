package agentsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/agentproto/agentsdk/internal/cliargs"
	"github.com/agentproto/agentsdk/internal/control"
	"github.com/agentproto/agentsdk/internal/hooks"
	"github.com/agentproto/agentsdk/internal/mcpserver"
	"github.com/agentproto/agentsdk/internal/transport"
	"github.com/agentproto/agentsdk/internal/wire"
)

// sdkVersion is reported to the CLI via CLAUDE_AGENT_SDK_VERSION.
const sdkVersion = "0.1.0"

// Session drives one Agent CLI subprocess: it owns the transport, the
// control channel, the hook/permission dispatcher, and the in-process tool
// server, and exposes the operations the external interface defines.
type Session struct {
	opts Options

	transport *transport.Transport
	control   *control.Channel
	hooks     *hooks.Dispatcher
	tools     *mcpserver.Server

	state *stateMachine

	messages chan Message
	readErr  chan error

	sessionIDMu sync.RWMutex
	sessionID   string

	wg         sync.WaitGroup
	cancelRead context.CancelFunc

	closeOnce sync.Once
}

// Connect starts the Agent CLI subprocess and performs the initialize
// handshake, returning once the session is ready to accept operations.
// Most callers should use Query instead; Connect is for multi-turn sessions
// that need to call Session methods directly.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	ctx = ctxOrBackground(ctx)
	logger := opts.logger()

	session := &Session{
		opts:     opts,
		state:    newStateMachine(),
		messages: make(chan Message, opts.channelCapacity()),
		readErr:  make(chan error, 1),
	}

	if err := session.state.transition(stateConnecting); err != nil {
		return nil, err
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = transport.PathLookup{Name: "claude", OverrideEnv: "CLAUDE_CODE_PATH"}
	}
	session.transport = transport.New(resolver, opts.Launcher)

	toolRegistry := mcpserver.NewRegistry()
	for _, def := range opts.InProcessTools {
		if err := toolRegistry.Register(mcpserver.ToolRegistryEntry{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
			Handler:     def.Handler,
		}); err != nil {
			return nil, fmt.Errorf("register in-process tool: %w", err)
		}
	}
	serverName := opts.ToolServerName
	if serverName == "" {
		serverName = "agentsdk"
	}
	session.tools = mcpserver.NewServer(serverName, sdkVersion, toolRegistry)

	session.hooks = hooks.NewDispatcher()
	session.hooks.SetMode(opts.permissionMode())
	session.hooks.SetPermissionCallback(opts.Permission)
	for _, sub := range opts.Hooks {
		session.hooks.RegisterHook(sub.Event, sub.Matcher, sub.Timeout, sub.Handler)
	}

	session.control = control.New(session.transport)
	session.control.RegisterHandler("can_use_tool", session.hooks.HandlePermissionRequest)
	session.control.RegisterHandler("hook_callback", session.hooks.HandleHookCallback)
	session.control.RegisterHandler("mcp_message", session.handleMCPMessage)

	args, err := cliargs.Render(cliargs.Options{
		Model:                  opts.Model,
		FallbackModel:          opts.FallbackModel,
		Tools:                  opts.Tools,
		AllowedTools:           opts.AllowedTools,
		DisallowedTools:        opts.DisallowedTools,
		SystemPrompt:           opts.SystemPrompt,
		AppendSystemPrompt:     opts.AppendSystemPrompt,
		PermissionMode:         string(opts.permissionMode()),
		MaxTurns:               opts.MaxTurns,
		MaxBudgetUSD:           opts.MaxBudgetUSD,
		MaxThinkingTokens:      opts.MaxThinkingTokens,
		MCPServers:             opts.ExternalMCPServers,
		Agents:                 opts.Agents,
		Plugins:                opts.Plugins,
		Sandbox:                opts.Sandbox,
		SandboxConfig:          opts.SandboxConfig,
		Resume:                 opts.Resume,
		ForkSession:            opts.ForkSession,
		Continue:               opts.Continue,
		IncludePartialMessages: opts.IncludePartialMessages,
		JSONSchema:             opts.JSONSchema,
		HasInProcessTools:      len(opts.InProcessTools) > 0 || opts.Permission != nil,
	})
	if err != nil {
		session.state.transition(stateClosed)
		return nil, err
	}

	env := cliargs.Environment(os.Environ(), sdkVersion)

	if err := session.transport.Connect(ctx, args, env); err != nil {
		session.state.transition(stateClosed)
		switch {
		case isExecutableNotFound(err):
			return nil, &ExecutableNotFoundError{Cause: err}
		default:
			return nil, &SpawnFailedError{Cause: err}
		}
	}

	if err := session.state.transition(stateInitializing); err != nil {
		return nil, err
	}

	readCtx, cancel := context.WithCancel(context.Background())
	session.cancelRead = cancel
	session.wg.Add(1)
	go session.readLoop(readCtx)

	if _, err := session.control.Send(ctx, "initialize", map[string]any{
		"hooks": session.hooks.RegistrationsForInitialize(),
	}); err != nil {
		logger.Warnw("initialize control request failed", "error", err)
		_ = session.Close()
		return nil, wrapControlError(err)
	}
	// The init frame may already have moved the state to Ready.
	_ = session.state.transition(stateReady)

	return session, nil
}

func isExecutableNotFound(err error) bool {
	return containsErrExecutableNotFound(err)
}

func containsErrExecutableNotFound(err error) bool {
	for err != nil {
		if err == transport.ErrExecutableNotFound {
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// readLoop is the Session Runtime's single reader: it owns the only call to
// transport.Lines, decodes every line, and routes control traffic inline
// while Agent Messages flow through the bounded channel. Inbound control
// requests are dispatched onto their own goroutine so a slow hook/permission
// callback cannot stall delivery of subsequent Agent Messages.
func (s *Session) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.messages)

	logger := s.opts.logger()

	for line, err := range s.transport.Lines(ctx) {
		if err != nil {
			s.readErr <- err
			return
		}

		frame, parseErr := wire.ParseFrame(line)
		if parseErr != nil {
			logger.Warnw("malformed frame, aborting session", "error", parseErr, "raw", string(line))
			_ = s.state.transition(stateClosed)
			s.readErr <- &MalformedFrameError{Raw: string(line)}
			return
		}

		switch f := frame.(type) {
		case wire.KeepAliveFrame:
			continue
		case wire.UnknownFrame:
			logger.Debugw("dropping unrecognized frame", "type", f.RawType)
			continue
		case wire.ControlResponseFrame:
			envelope, ok := f.Response.(wire.ControlResponseEnvelope)
			if !ok {
				envelope = decodeControlResponseEnvelope(f.Response)
			}
			s.control.HandleResponse(envelope)
			continue
		case wire.ControlRequestFrame:
			requestMap, _ := f.Request.(map[string]any)
			s.wg.Add(1)
			go func(requestID string, request map[string]any) {
				defer s.wg.Done()
				s.control.HandleRequest(ctx, requestID, request)
			}(f.RequestID, requestMap)
			continue
		case wire.SystemInitFrame:
			s.sessionIDMu.Lock()
			s.sessionID = f.SessionID
			s.sessionIDMu.Unlock()
			_ = s.state.transition(stateReady)
		}

		if msg, ok := fromFrame(frame); ok {
			select {
			case s.messages <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func decodeControlResponseEnvelope(raw any) wire.ControlResponseEnvelope {
	asMap, ok := raw.(map[string]any)
	if !ok {
		return wire.ControlResponseEnvelope{}
	}
	envelope := wire.ControlResponseEnvelope{}
	if subtype, ok := asMap["subtype"].(string); ok {
		envelope.Subtype = subtype
	}
	if requestID, ok := asMap["request_id"].(string); ok {
		envelope.RequestID = requestID
	}
	if errMsg, ok := asMap["error"].(string); ok {
		envelope.Error = errMsg
	}
	if response, ok := asMap["response"]; ok {
		if raw, err := marshalAny(response); err == nil {
			envelope.Response = raw
		}
	}
	return envelope
}

// handleMCPMessage implements control.Handler for the "mcp_message" subtype,
// forwarding the already-demultiplexed JSON-RPC envelope to the in-process
// tool server.
func (s *Session) handleMCPMessage(ctx context.Context, requestID string, request map[string]any) (any, error) {
	rawMessage, err := marshalAny(request["message"])
	if err != nil {
		return nil, fmt.Errorf("encode mcp_message payload: %w", err)
	}
	response, err := s.tools.HandleMessage(ctx, rawMessage)
	if err != nil {
		return nil, err
	}
	var value any
	if len(response) > 0 {
		if err := unmarshalAny(response, &value); err != nil {
			return nil, fmt.Errorf("decode mcp response: %w", err)
		}
	}
	return map[string]any{"message": value}, nil
}

// Send delivers a user-authored prompt to an already-running session.
func (s *Session) Send(ctx context.Context, text string) error {
	if current := s.state.current(); current == stateClosed {
		return &InvalidStateError{From: current.String(), To: "Ready"}
	}
	frame := wire.UserMessageFrame{
		Type:    "user",
		UUID:    wire.NewUUID(),
		Message: wire.NewUserTextMessage("user", text),
	}
	if err := s.transport.Write(frame); err != nil {
		if errors.Is(err, transport.ErrNotWritable) {
			return &NotWritableError{}
		}
		return fmt.Errorf("send user message: %w", err)
	}
	return nil
}

// Receive returns the next Agent Message, blocking until one arrives, the
// session closes, or ctx is done.
func (s *Session) Receive(ctx context.Context) (Message, error) {
	select {
	case msg, ok := <-s.messages:
		if !ok {
			return nil, s.terminalError()
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) terminalError() error {
	select {
	case err := <-s.readErr:
		var malformed *MalformedFrameError
		if errors.As(err, &malformed) {
			return malformed
		}
		return &PeerExitedError{Cause: err}
	default:
		return &PeerExitedError{Cause: nil}
	}
}

// Interrupt asks the running turn to stop as soon as possible.
func (s *Session) Interrupt(ctx context.Context) error {
	if err := s.state.transition(stateInterrupting); err != nil {
		return err
	}
	_, err := s.control.Send(ctx, "interrupt", nil)
	_ = s.state.transition(stateReady)
	return wrapControlError(err)
}

// SetModel changes the active model mid-session.
func (s *Session) SetModel(ctx context.Context, model string) error {
	_, err := s.control.Send(ctx, "set_model", map[string]any{"model": model})
	return wrapControlError(err)
}

// SetPermissionMode changes the active permission mode mid-session,
// normalizing the supplied spelling against the canonical set.
func (s *Session) SetPermissionMode(ctx context.Context, mode string) error {
	normalized, corrected, ok := wire.ParsePermissionMode(mode)
	if !ok {
		return &ProtocolViolationError{Detail: fmt.Sprintf("unknown permission mode %q", mode)}
	}
	if corrected {
		s.opts.logger().Warnw("permission mode casing corrected", "requested", mode, "normalized", string(normalized))
	}
	s.hooks.SetMode(normalized)
	_, err := s.control.Send(ctx, "set_permission_mode", map[string]any{"mode": string(normalized)})
	return wrapControlError(err)
}

// SetMaxThinkingTokens changes the model's thinking token budget mid-session.
func (s *Session) SetMaxThinkingTokens(ctx context.Context, tokens int) error {
	_, err := s.control.Send(ctx, "set_max_thinking_tokens", map[string]any{"maxThinkingTokens": tokens})
	return wrapControlError(err)
}

// RewindFilesResult is the response of RewindFiles. Its file/insertion/
// deletion fields are optional and stay nil when the CLI omits them.
type RewindFilesResult struct {
	FilesChanged *[]string
	Insertions   *int
	Deletions    *int
}

// RewindFiles reverts file edits made after checkpointID.
func (s *Session) RewindFiles(ctx context.Context, checkpointID string) (RewindFilesResult, error) {
	value, err := s.control.Send(ctx, "rewind_files", map[string]any{"checkpointId": checkpointID})
	if err != nil {
		return RewindFilesResult{}, wrapControlError(err)
	}
	asMap, _ := value.(map[string]any)
	result := RewindFilesResult{}
	if raw, ok := asMap["files_changed"].([]any); ok {
		files := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				files = append(files, s)
			}
		}
		result.FilesChanged = &files
	}
	if raw, ok := asMap["insertions"].(float64); ok {
		v := int(raw)
		result.Insertions = &v
	}
	if raw, ok := asMap["deletions"].(float64); ok {
		v := int(raw)
		result.Deletions = &v
	}
	return result, nil
}

// SessionID returns the CLI-assigned session identifier, populated once the
// init frame has been received.
func (s *Session) SessionID() string {
	s.sessionIDMu.RLock()
	defer s.sessionIDMu.RUnlock()
	return s.sessionID
}

// Close shuts the session down: it cancels the reader, stops the transport,
// and fails any outstanding control requests.
func (s *Session) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		_ = s.state.transition(stateClosing)
		if s.cancelRead != nil {
			s.cancelRead()
		}
		s.control.CancelAll()
		closeErr = s.transport.Close()
		s.wg.Wait()
		_ = s.state.transition(stateClosed)
	})
	return closeErr
}

func wrapControlError(err error) error {
	if err == nil {
		return nil
	}
	var timeoutErr *control.TimeoutError
	if errors.As(err, &timeoutErr) {
		return &ControlTimeoutError{RequestID: timeoutErr.RequestID, Cause: timeoutErr.Cause}
	}
	if errors.Is(err, control.ErrCancelled) {
		return &CancelledError{}
	}
	return &HandlerFailureError{Cause: err}
}

func marshalAny(v any) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshalAny(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
