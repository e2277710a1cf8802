package reader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// lineQueueSize bounds the in-memory queue of parsed lines awaiting a
// consumer; the watcher's own goroutine blocks on a full queue rather
// than dropping lines, since upstream files are append-only and the
// consumer will catch up once space frees.
const lineQueueSize = 4096

// TailReader watches a directory laid out as <base>/hourly/<date>/<hour>,
// follows the current file, and rotates to a newer hourly file as one
// appears. It is a single-consumer component: NextEvent delivers lines
// FIFO, including across rotation boundaries.
type TailReader struct {
	base    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	current     *TrackedFile
	currentPath string
	currentTs   int64

	lines chan string
	errCh chan error

	ctx    context.Context
	cancel context.CancelFunc
}

// NewTailReader starts watching <base>/hourly. If a valid hourly file
// already exists, it is opened at end (steady-state tail, no
// re-emission of old content); otherwise the reader waits for one to
// appear.
func NewTailReader(ctx context.Context, base string, logger *slog.Logger) (*TailReader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	hourly := HourlyDir(base)
	if err := os.MkdirAll(hourly, 0o755); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("ensure hourly dir: %w", err)
	}
	if err := watcher.Add(hourly); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", hourly, err)
	}
	if dateDirs, err := os.ReadDir(hourly); err == nil {
		for _, d := range dateDirs {
			if d.IsDir() {
				_ = watcher.Add(filepath.Join(hourly, d.Name()))
			}
		}
	}

	tctx, cancel := context.WithCancel(ctx)
	t := &TailReader{
		base:    base,
		watcher: watcher,
		logger:  logger.With("component", "tailer", "base", base),
		lines:   make(chan string, lineQueueSize),
		errCh:   make(chan error, 1),
		ctx:     tctx,
		cancel:  cancel,
	}

	if path, ts, ok, err := FindLatestFile(base); err != nil {
		watcher.Close()
		cancel()
		return nil, fmt.Errorf("find latest file: %w", err)
	} else if ok {
		tf, err := OpenAtEnd(path)
		if err != nil {
			watcher.Close()
			cancel()
			return nil, err
		}
		t.current = tf
		t.currentPath = path
		t.currentTs = ts
	}

	go t.run()
	return t, nil
}

// NextEvent blocks until a line is available, the reader hits a fatal
// error, or ctx is cancelled.
func (t *TailReader) NextEvent(ctx context.Context) (string, error) {
	select {
	case line, ok := <-t.lines:
		if !ok {
			return "", fmt.Errorf("tailer closed")
		}
		return line, nil
	case err := <-t.errCh:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the watcher and background goroutine.
func (t *TailReader) Close() error {
	t.cancel()
	return t.watcher.Close()
}

func (t *TailReader) run() {
	defer close(t.lines)

	if t.current != nil {
		t.drainCurrent()
	}

	for {
		select {
		case <-t.ctx.Done():
			return

		case ev, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			t.handleEvent(ev)

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			select {
			case t.errCh <- fmt.Errorf("watcher error: %w", err):
			default:
			}
			return
		}
	}
}

func (t *TailReader) handleEvent(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = t.watcher.Add(ev.Name)
			return
		}
		ts, valid := RotationTimestamp(ev.Name)
		if !valid {
			return
		}
		if t.current == nil || ts > t.currentTs {
			t.rotate(ev.Name, ts)
		}
		// Tie or stale timestamp: the earlier-observed file is
		// retained, this create is ignored.

	case ev.Has(fsnotify.Write):
		if t.current != nil && ev.Name == t.currentPath {
			t.drainCurrent()
			return
		}
		if t.current == nil {
			if ts, valid := RotationTimestamp(ev.Name); valid {
				t.adopt(ev.Name, ts)
			}
		}
		// Modify on a path that is neither the current file nor a
		// fresh adoption candidate (e.g. the old file after
		// rotation) is ignored.
	}
}

func (t *TailReader) adopt(path string, ts int64) {
	tf, err := OpenAtEnd(path)
	if err != nil {
		t.logger.Warn("adopt hourly file failed", "path", path, "error", err)
		return
	}
	t.current = tf
	t.currentPath = path
	t.currentTs = ts
	t.drainCurrent()
}

func (t *TailReader) rotate(path string, ts int64) {
	if t.current != nil {
		t.drainCurrent()
		t.current.DiscardPartial()
		t.current.Close()
	}

	tf, err := OpenFromBeginning(path)
	if err != nil {
		t.logger.Warn("rotate to new hourly file failed", "path", path, "error", err)
		return
	}
	if err := t.watcher.Add(path); err != nil {
		t.logger.Warn("watch new hourly file failed", "path", path, "error", err)
	}
	t.current = tf
	t.currentPath = path
	t.currentTs = ts
	t.drainCurrent()
}

func (t *TailReader) drainCurrent() {
	lines, err := t.current.ReadLines()
	if err != nil {
		select {
		case t.errCh <- err:
		default:
		}
		return
	}
	for _, line := range lines {
		select {
		case t.lines <- line:
		case <-t.ctx.Done():
			return
		}
	}
}
