package wire

import "testing"

func TestExtractTextFromBlockList(t *testing.T) {
	content := []ContentBlock{
		{Type: ContentBlockText, Text: "hello "},
		{Type: ContentBlockToolUse, Name: "Bash"},
		{Type: ContentBlockText, Text: "world"},
	}
	if got := ExtractText(content); got != "hello world" {
		t.Fatalf("ExtractText = %q, want %q", got, "hello world")
	}
}

func TestExtractTextFromBareString(t *testing.T) {
	if got := ExtractText("plain"); got != "plain" {
		t.Fatalf("ExtractText = %q, want %q", got, "plain")
	}
}

func TestDecodeContentBlocksNormalizesString(t *testing.T) {
	blocks, err := DecodeContentBlocks("hi")
	if err != nil {
		t.Fatalf("DecodeContentBlocks: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Type != ContentBlockText || blocks[0].Text != "hi" {
		t.Fatalf("unexpected blocks: %+v", blocks)
	}
}

func TestNewToolResultMessageShape(t *testing.T) {
	msg := NewToolResultMessage("call_1", "done", false)
	blocks, ok := msg.Content.([]ContentBlock)
	if !ok || len(blocks) != 1 {
		t.Fatalf("unexpected content: %+v", msg.Content)
	}
	if blocks[0].ToolUseID != "call_1" || blocks[0].IsError {
		t.Fatalf("unexpected block: %+v", blocks[0])
	}
}

func TestParsePermissionModeNormalizesCasing(t *testing.T) {
	mode, corrected, ok := ParsePermissionMode("acceptedits")
	if !ok || mode != PermissionModeAcceptEdits || !corrected {
		t.Fatalf("got mode=%q corrected=%v ok=%v", mode, corrected, ok)
	}

	mode, corrected, ok = ParsePermissionMode("plan")
	if !ok || mode != PermissionModePlan || corrected {
		t.Fatalf("got mode=%q corrected=%v ok=%v", mode, corrected, ok)
	}

	if _, _, ok := ParsePermissionMode("not-a-mode"); ok {
		t.Fatalf("expected unknown mode to fail")
	}
}
