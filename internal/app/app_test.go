package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lukadfagundes/bwaincell-sub001/internal/config"
	"github.com/lukadfagundes/bwaincell-sub001/internal/transport/console"
	logx "github.com/lukadfagundes/bwaincell-sub001/pkg/logx"
)

func writeAppConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	raw := fmt.Sprintf(`{
  "bot": {"driver": "console"},
  "logging": {"level": "error", "console": false, "file": {"enabled": false}, "ops": {"enabled": false}},
  "storage": {"path": %q},
  "scheduler": {"timezone": "UTC", "fire_timeout": "5s"}
}`, filepath.Join(dir, "bwaincell.db"))
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestAppLifecycle(t *testing.T) {
	a, err := New(writeAppConfig(t, t.TempDir()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if snap := a.sched.Snapshot(); !snap.Running {
		t.Fatal("scheduler not running after Start")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := a.Stop(stopCtx, StopSignal); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if snap := a.sched.Snapshot(); snap.Running {
		t.Fatal("scheduler still running after Stop")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	// telegram driver without a token fails validation
	raw := `{"bot": {"driver": "telegram"}, "storage": {"path": "./db"}}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := New(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildAdapterConsole(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Bot: config.BotConfig{Driver: "console"}}
	ad, err := buildAdapter(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("buildAdapter: %v", err)
	}
	if _, ok := ad.(*console.Adapter); !ok {
		t.Fatalf("adapter = %T, want *console.Adapter", ad)
	}
}

func TestBuildEventSourceDisabled(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	src, err := buildEventSource(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("buildEventSource: %v", err)
	}
	if _, err := src.Discover(context.Background(), "Portland", time.Now(), time.Now()); err == nil {
		t.Fatal("disabled source must refuse discovery")
	}
}

func TestBuildEventSourceConfigured(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Events: config.EventsConfig{BaseURL: "https://events.example.com", Timeout: "5s"}}
	src, err := buildEventSource(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("buildEventSource: %v", err)
	}
	if _, ok := src.(disabledEvents); ok {
		t.Fatal("got the disabled source for a configured base_url")
	}
}

func TestMapNotifyConfig(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Notify.RatePerSec = 7
	cfg.Notify.RetryBase = "250ms"
	nc, err := mapNotifyConfig(cfg)
	if err != nil {
		t.Fatalf("mapNotifyConfig: %v", err)
	}
	if nc.RatePerSec != 7 || nc.RetryBase != 250*time.Millisecond {
		t.Fatalf("mapped = %+v", nc)
	}

	cfg.Notify.RetryBase = "bogus"
	if _, err := mapNotifyConfig(cfg); err == nil {
		t.Fatal("bad duration accepted")
	}
}

func TestMapStorageConfig(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	if _, err := mapStorageConfig(cfg); err == nil {
		t.Fatal("missing path accepted")
	}

	cfg.Storage.Path = "./x.db"
	sc, err := mapStorageConfig(cfg)
	if err != nil {
		t.Fatalf("mapStorageConfig: %v", err)
	}
	if sc.BusyTimeout != 5*time.Second {
		t.Fatalf("busy timeout default = %v", sc.BusyTimeout)
	}
}
