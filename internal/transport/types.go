package transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ChatTarget addresses a concrete chat (and optional forum topic thread) on
// the delivery platform.
type ChatTarget struct {
	ChatID   int64
	ThreadID int // 0 if none
}

func (t ChatTarget) String() string {
	if t.ThreadID != 0 {
		return fmt.Sprintf("%d:%d", t.ChatID, t.ThreadID)
	}
	return strconv.FormatInt(t.ChatID, 10)
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Adapter is the outbound half of a chat platform. The scheduling core only
// ever sends; inbound command handling lives outside this repository.
type Adapter interface {
	Send(ctx context.Context, to ChatTarget, text string, opt *SendOptions) error
	Close(ctx context.Context) error
}

var ErrBadChannelRef = errors.New("malformed channel reference")

// ParseChannelRef decodes the opaque channel references stored on reminder
// jobs and announcement configs: "<chatID>" or "<chatID>:<threadID>".
func ParseChannelRef(ref string) (ChatTarget, error) {
	s := strings.TrimSpace(ref)
	if s == "" {
		return ChatTarget{}, fmt.Errorf("%w: empty", ErrBadChannelRef)
	}
	chatPart, threadPart, hasThread := strings.Cut(s, ":")
	chatID, err := strconv.ParseInt(chatPart, 10, 64)
	if err != nil {
		return ChatTarget{}, fmt.Errorf("%w: %q", ErrBadChannelRef, ref)
	}
	if !hasThread {
		return ChatTarget{ChatID: chatID}, nil
	}
	threadID, err := strconv.Atoi(threadPart)
	if err != nil || threadID < 0 {
		return ChatTarget{}, fmt.Errorf("%w: %q", ErrBadChannelRef, ref)
	}
	return ChatTarget{ChatID: chatID, ThreadID: threadID}, nil
}
