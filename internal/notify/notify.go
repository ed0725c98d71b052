// Package notify delivers scheduler output through a transport adapter with
// rate limiting and bounded retry.
package notify

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lukadfagundes/bwaincell-sub001/internal/transport"
	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

// Config tunes delivery pacing and retry behavior. Zero values get safe
// defaults in Apply.
type Config struct {
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	SendTimeout   time.Duration
}

// HistoryItem records one delivery outcome for the status surface.
type HistoryItem struct {
	At      time.Time
	Channel string
	Text    string
	Err     string
}

const historyCap = 300

// Service resolves opaque channel refs and delivers text to them. Safe for
// concurrent use; fire callbacks from many jobs share one instance.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	adapter transport.Adapter
	log     logx.Logger

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, adapter transport.Adapter, log logx.Logger) *Service {
	s := &Service{adapter: adapter, log: log}
	if s.log.IsZero() {
		s.log = logx.Nop()
	}
	s.applyLocked(cfg)
	return s
}

// Apply swaps delivery limits at runtime. In-flight sends keep the snapshot
// they started with.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	s.cfg = cfg
	// Burst equals the per-second rate so a burst of due jobs doesn't stall.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Send delivers text to the channel named by ref ("<chatID>" or
// "<chatID>:<threadID>"), retrying transient failures with exponential
// backoff. The returned error is the last attempt's.
func (s *Service) Send(ctx context.Context, channelID, text string) error {
	to, err := transport.ParseChannelRef(channelID)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	maxAttempts := 1 + cfg.RetryMax

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
		err := s.adapter.Send(callCtx, to, text, &transport.SendOptions{DisablePreview: true})
		cancel()
		if err == nil {
			s.appendHistory(HistoryItem{At: time.Now(), Channel: channelID, Text: text})
			return nil
		}
		lastErr = err
		s.log.Debug("send failed",
			logx.Err(err),
			logx.String("channel", channelID),
			logx.Int("attempt", attempt),
			logx.Int("max", maxAttempts),
		)

		if attempt >= maxAttempts {
			break
		}
		t := time.NewTimer(retryDelay(cfg, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return ctx.Err()
		}
	}

	s.appendHistory(HistoryItem{At: time.Now(), Channel: channelID, Text: text, Err: lastErr.Error()})
	return fmt.Errorf("notify: %w", lastErr)
}

// History returns a copy of recent delivery records, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func (s *Service) appendHistory(it HistoryItem) {
	s.hmu.Lock()
	s.history = append(s.history, it)
	if len(s.history) > historyCap {
		s.history = s.history[len(s.history)-historyCap:]
	}
	s.hmu.Unlock()
}

// retryDelay is exponential from RetryBase capped at RetryMaxDelay, with
// 0.7..1.3 jitter so colliding jobs spread out.
func retryDelay(cfg Config, attempt int) time.Duration {
	d := cfg.RetryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cfg.RetryMaxDelay {
			d = cfg.RetryMaxDelay
			break
		}
	}
	j := 0.7 + rand.Float64()*0.6
	d = time.Duration(float64(d) * j)
	if d > cfg.RetryMaxDelay {
		d = cfg.RetryMaxDelay
	}
	return d
}
