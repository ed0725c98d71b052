package telegram

import (
	"strings"
	"testing"

	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

func TestSplitTextShort(t *testing.T) {
	got := splitText("hello", 100, "")
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("splitText short = %#v", got)
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	text := strings.Repeat("aaaa aaaa\n", 30)
	chunks := splitText(text, 100, "")
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Fatalf("chunk %d over limit: %d runes", i, len([]rune(c)))
		}
		if c == "" {
			t.Fatalf("chunk %d is empty", i)
		}
		// Newline-preferred splits should end on a full line.
		if strings.Contains(c, "\n") && !strings.HasSuffix(c, "aaaa") {
			t.Fatalf("chunk %d not cut on a line boundary: %q", i, c)
		}
	}
	joined := strings.Join(chunks, "\n") + "\n"
	if strings.ReplaceAll(joined, "\n", "") != strings.ReplaceAll(text, "\n", "") {
		t.Fatalf("chunks lost content")
	}
}

func TestSplitTextAvoidsDanglingHTMLTag(t *testing.T) {
	// 98 filler runes put the window cut right inside the opening tag.
	text := strings.Repeat("x", 98) + "<b>bold</b>"
	chunks := splitText(text, 100, "HTML")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %#v", len(chunks), chunks)
	}
	if strings.ContainsAny(chunks[0], "<>") {
		t.Fatalf("first chunk should stop before the tag: %q", chunks[0])
	}
	if chunks[1] != "<b>bold</b>" {
		t.Fatalf("second chunk = %q", chunks[1])
	}
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Config{Token: "   "}, logx.Nop()); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
