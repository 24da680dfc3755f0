package wire

import "testing"

func TestParseFrameDispatchesOnType(t *testing.T) {
	cases := []struct {
		name string
		line string
		want string
	}{
		{"user", `{"type":"user","message":{"role":"user","content":"hi"}}`, "user"},
		{"assistant", `{"type":"assistant","message":{"role":"assistant","content":"hi"}}`, "assistant"},
		{"system-init", `{"type":"system","subtype":"init","cwd":"/tmp"}`, "system:init"},
		{"system-other", `{"type":"system","subtype":"compact_boundary"}`, "system"},
		{"result", `{"type":"result","subtype":"success"}`, "result"},
		{"stream_event", `{"type":"stream_event","event":{}}`, "stream_event"},
		{"control_request", `{"type":"control_request","request_id":"r1","request":{}}`, "control_request"},
		{"control_response", `{"type":"control_response","response":{}}`, "control_response"},
		{"control_cancel_request", `{"type":"control_cancel_request","request_id":"r1"}`, "control_cancel_request"},
		{"keep_alive", `{"type":"keep_alive"}`, "keep_alive"},
		{"unknown", `{"type":"something_new"}`, "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := ParseFrame([]byte(tc.line))
			if err != nil {
				t.Fatalf("ParseFrame(%q): %v", tc.line, err)
			}
			if frame.frameType() != tc.want {
				t.Fatalf("frameType() = %q, want %q", frame.frameType(), tc.want)
			}
		})
	}
}

func TestParseFrameRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseFrame([]byte(`{"type":`)); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestParseFrameUnknownPreservesRawLine(t *testing.T) {
	line := []byte(`{"type":"future_event","payload":42}`)
	frame, err := ParseFrame(line)
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	unknown, ok := frame.(UnknownFrame)
	if !ok {
		t.Fatalf("expected UnknownFrame, got %T", frame)
	}
	if unknown.RawType != "future_event" {
		t.Fatalf("RawType = %q, want future_event", unknown.RawType)
	}
	if string(unknown.Raw) != string(line) {
		t.Fatalf("Raw = %q, want %q", unknown.Raw, line)
	}
}
