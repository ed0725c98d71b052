// Package console writes outbound messages to a local writer instead of a
// chat platform. Used for dry runs and in tests.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	kit "github.com/lukadfagundes/bwaincell-sub001/internal/transport"
)

type Adapter struct {
	mu sync.Mutex
	w  io.Writer
}

func New(w io.Writer) *Adapter {
	return &Adapter{w: w}
}

func (a *Adapter) Send(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := fmt.Fprintf(a.w, "[%s] %s\n", to, text)
	return err
}

func (a *Adapter) Close(ctx context.Context) error { return nil }
