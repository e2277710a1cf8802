package snapshot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hlnodefeed/internal/orderbook"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestCleanupRemovesStaleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	l := NewLoader(Config{HostPath: path}, testLogger())
	if err := l.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("stale file still present after Cleanup")
	}
}

func TestCleanupMissingFileIsNotAnError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	l := NewLoader(Config{HostPath: filepath.Join(dir, "missing.json")}, testLogger())
	if err := l.Cleanup(); err != nil {
		t.Fatalf("Cleanup on missing file: %v", err)
	}
}

func TestWaitTimesOutBeforeFileAppears(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	l := NewLoader(Config{HostPath: filepath.Join(dir, "never.json")}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("Wait returned nil, want timeout error")
	}
}

func TestWaitSucceedsOncePastThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	l := NewLoader(Config{HostPath: path}, testLogger())

	go func() {
		time.Sleep(150 * time.Millisecond)
		big := make([]byte, sizeThreshold+1)
		os.WriteFile(path, big, 0o644)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestLoadInstallsBooksFromSnapshotFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	body := `[42,[["BTC",[[["0xAAA",{"coin":"BTC","side":"B","limitPx":"100","sz":"2","oid":1,"timestamp":0}]],[["0xBBB",{"coin":"BTC","side":"A","limitPx":"101","sz":"1","oid":2,"timestamp":0}]]]]]]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	l := NewLoader(Config{HostPath: path}, testLogger())
	svc := orderbook.NewOrderBookService()

	height, err := l.Load(svc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if height != 42 {
		t.Fatalf("height = %d, want 42", height)
	}

	book, ok := svc.Get("BTC")
	if !ok {
		t.Fatal("BTC book not installed")
	}
	if !book.Contains(1) || !book.Contains(2) {
		t.Fatal("snapshot orders missing from installed book")
	}
	bid, _ := book.BestBid()
	ask, _ := book.BestAsk()
	if bid.String() != "100" || ask.String() != "101" {
		t.Fatalf("bid/ask = %s/%s, want 100/101", bid, ask)
	}
}
