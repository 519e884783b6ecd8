package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mpickett/artfetch/internal/logging"
)

func writeConfig(t *testing.T, path, level string) {
	t.Helper()
	content := "logging:\n  level: " + level + "\n  format: text\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestConfigChangeReloadsLogging(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "info")

	mgr, logger := logging.NewManager(logging.Config{Level: "info", Format: "text"})
	defer mgr.Close() //nolint:errcheck

	svc := New(path, mgr, logger)
	svc.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx)
	time.Sleep(100 * time.Millisecond) // let watcher initialize

	writeConfig(t, path, "debug")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if mgr.Config().Level == "debug" {
			if !logger.Enabled(context.Background(), slog.LevelDebug) {
				t.Error("expected debug to be enabled after reload")
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("config change was not applied before deadline")
}

func TestInvalidConfigKeepsCurrentSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "info")

	mgr, logger := logging.NewManager(logging.Config{Level: "info", Format: "text"})
	defer mgr.Close() //nolint:errcheck

	svc := New(path, mgr, logger)
	svc.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	writeConfig(t, path, "loud") // fails validation

	time.Sleep(300 * time.Millisecond)
	if mgr.Config().Level != "info" {
		t.Errorf("expected level to stay info, got %s", mgr.Config().Level)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "info")

	mgr, logger := logging.NewManager(logging.Config{Level: "info", Format: "text"})
	defer mgr.Close() //nolint:errcheck

	svc := New(path, mgr, logger)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}
