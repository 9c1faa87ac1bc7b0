package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Watcher:
// - A write to a source file triggers a debounced rescan and OnRescan
// - Non-source writes are ignored
// - Run returns when the context is cancelled

func TestWatcher_RescansOnWrite(t *testing.T) {
	f := newFixture(t)

	w, err := NewWatcher(f.scanner, []string{f.appDir})
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	rescanned := make(chan *Stats, 1)
	w.OnRescan = func(s *Stats) {
		select {
		case rescanned <- s:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watch loop a moment before generating events.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(f.mainFile, []byte("import Lib\nrun()\n"), 0o644))

	select {
	case stats := <-rescanned:
		assert.Equal(t, 1, stats.FilesScanned)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rescan")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher shutdown")
	}
}

func TestWatcher_IgnoresNonSourceFiles(t *testing.T) {
	f := newFixture(t)

	w, err := NewWatcher(f.scanner, []string{f.appDir})
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	rescanned := make(chan *Stats, 1)
	w.OnRescan = func(s *Stats) { rescanned <- s }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(f.appDir, "notes.txt"), []byte("x"), 0o644))

	select {
	case <-rescanned:
		t.Fatal("unexpected rescan for non-source file")
	case <-time.After(300 * time.Millisecond):
	}
}
