package feed

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hlnodefeed/internal/protocol"
	"hlnodefeed/pkg/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestRunBookDiffsForwardsToBothChannels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hourly", "20240101", "10")
	mustWriteFile(t, path, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	diffs := make(chan schema.BookDiff, 4)
	evs := make(chan protocol.Event, 4)

	done := make(chan error, 1)
	go func() { done <- RunBookDiffs(ctx, dir, diffs, evs, testLogger()) }()

	time.Sleep(100 * time.Millisecond)
	appendLine(t, path, `{"user":"0xabc","oid":1,"coin":"BTC","side":"B","px":"100","kind":"new","size":"2"}`)

	deadline := time.Now().Add(3 * time.Second)
	var gotDiff schema.BookDiff
	var gotEvent protocol.Event
	haveDiff, haveEvent := false, false
	for (!haveDiff || !haveEvent) && time.Now().Before(deadline) {
		select {
		case d := <-diffs:
			gotDiff = d
			haveDiff = true
		case e := <-evs:
			gotEvent = e
			haveEvent = true
		case <-time.After(200 * time.Millisecond):
		}
	}
	if !haveDiff {
		t.Fatal("no book diff delivered to diffs channel")
	}
	if !haveEvent {
		t.Fatal("no event delivered to events channel")
	}
	if gotDiff.Oid != 1 || gotDiff.Coin != "BTC" {
		t.Fatalf("unexpected diff: %+v", gotDiff)
	}
	if gotEvent.Address != "0xabc" || gotEvent.BookDiff == nil || gotEvent.BookDiff.Kind != "new" {
		t.Fatalf("unexpected event: %+v", gotEvent)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunBookDiffs did not exit after cancellation")
	}
}

func TestRunEventRecordsConvertsEachLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hourly", "20240101", "10")
	mustWriteFile(t, path, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan protocol.Event, 4)
	done := make(chan error, 1)
	go func() { done <- RunEventRecords(ctx, dir, FillConverter, out, testLogger()) }()

	time.Sleep(100 * time.Millisecond)
	appendLine(t, path, `["0xabc",{"coin":"BTC","px":"100","sz":"1","side":"B","time":0,"hash":"0xh","oid":1,"crossed":false,"tid":9}]`)

	select {
	case ev := <-out:
		if ev.Address != "0xabc" || ev.Fill == nil || ev.Fill.Oid != 1 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunEventRecords did not exit after cancellation")
	}
}
