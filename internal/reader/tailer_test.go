package reader

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// S4. Rotation boundary.
func TestRotationBoundary(t *testing.T) {
	dir := t.TempDir()
	hour10 := filepath.Join(dir, "hourly", "20240101", "10")
	mustWriteFile(t, hour10, "a\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr, err := NewTailReader(ctx, dir, testLogger())
	if err != nil {
		t.Fatalf("NewTailReader: %v", err)
	}
	defer tr.Close()

	appendTo(t, hour10, "b\n")
	line := mustNextLine(t, tr, "b")
	if line != "b" {
		t.Fatalf("line = %q, want %q (no re-emission of 'a')", line, "b")
	}

	hour11 := filepath.Join(dir, "hourly", "20240101", "11")
	mustWriteFile(t, hour11, "c\n")
	line = mustNextLine(t, tr, "c")
	if line != "c" {
		t.Fatalf("line = %q, want %q", line, "c")
	}
}

func mustNextLine(t *testing.T, tr *TailReader, want string) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		line, err := tr.NextEvent(ctx)
		cancel()
		if err == nil {
			return line
		}
	}
	t.Fatalf("timed out waiting for line %q", want)
	return ""
}

func TestRotationTiesKeepEarlierObservedFile(t *testing.T) {
	dir := t.TempDir()
	firstPath := filepath.Join(dir, "hourly", "20240101", "10")
	mustWriteFile(t, firstPath, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr, err := NewTailReader(ctx, dir, testLogger())
	if err != nil {
		t.Fatalf("NewTailReader: %v", err)
	}
	defer tr.Close()

	if tr.currentPath != firstPath {
		t.Fatalf("currentPath = %q, want %q", tr.currentPath, firstPath)
	}

	// A second file with the same rotation timestamp (date*100+hour)
	// must not trigger rotation away from the earlier-observed file.
	tiedPath := filepath.Join(dir, "hourly", "20240101", "010")
	mustWriteFile(t, tiedPath, "tied\n")
	time.Sleep(200 * time.Millisecond)

	appendTo(t, firstPath, "first\n")
	line := mustNextLine(t, tr, "first")
	if line != "first" {
		t.Fatalf("line = %q, want %q (tie must not rotate away from first-observed file)", line, "first")
	}
	if tr.currentPath != firstPath {
		t.Fatalf("currentPath = %q after tie, want unchanged %q", tr.currentPath, firstPath)
	}
}
