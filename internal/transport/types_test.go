package transport

import (
	"errors"
	"testing"
)

func TestParseChannelRef(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		ref  string
		want ChatTarget
	}{
		{name: "chat only", ref: "123456789", want: ChatTarget{ChatID: 123456789}},
		{name: "negative group chat", ref: "-1001234567890", want: ChatTarget{ChatID: -1001234567890}},
		{name: "chat with thread", ref: "-100555:42", want: ChatTarget{ChatID: -100555, ThreadID: 42}},
		{name: "surrounding spaces", ref: "  77  ", want: ChatTarget{ChatID: 77}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChannelRef(tt.ref)
			if err != nil {
				t.Fatalf("ParseChannelRef(%q) error: %v", tt.ref, err)
			}
			if got != tt.want {
				t.Fatalf("ParseChannelRef(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestParseChannelRefInvalid(t *testing.T) {
	t.Parallel()
	for _, ref := range []string{"", "abc", "12:xx", "12:-5", ":42"} {
		if _, err := ParseChannelRef(ref); !errors.Is(err, ErrBadChannelRef) {
			t.Fatalf("ParseChannelRef(%q): expected ErrBadChannelRef, got %v", ref, err)
		}
	}
}

func TestChatTargetString(t *testing.T) {
	t.Parallel()
	if got := (ChatTarget{ChatID: -100555, ThreadID: 42}).String(); got != "-100555:42" {
		t.Fatalf("String() = %q", got)
	}
	if got := (ChatTarget{ChatID: 99}).String(); got != "99" {
		t.Fatalf("String() = %q", got)
	}
}
