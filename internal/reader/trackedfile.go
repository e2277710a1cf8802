// Package reader implements rotation-aware tailing of the upstream
// node's hourly log directories.
package reader

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// TrackedFile is a positioned, line-oriented forward reader bound to
// one path. Writes to the upstream file are not atomic at line
// boundaries, so a read may end mid-line; those bytes are held as a
// partial buffer and prepended to the next read rather than emitted.
type TrackedFile struct {
	path    string
	f       *os.File
	partial []byte
}

// OpenAtEnd opens path and seeks to its current end, so only content
// appended after this call is ever read. Used on steady-state startup
// to avoid re-emitting old content.
func OpenAtEnd(path string) (*TrackedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek end %s: %w", path, err)
	}
	return &TrackedFile{path: path, f: f}, nil
}

// OpenFromBeginning opens path at offset zero. Used after rotation, to
// read the new file in full.
func OpenFromBeginning(path string) (*TrackedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &TrackedFile{path: path, f: f}, nil
}

// Path returns the file path this TrackedFile is bound to.
func (t *TrackedFile) Path() string { return t.path }

// ReadLines reads until EOF and returns complete lines with the
// trailing newline stripped. Empty lines are discarded. A trailing
// run of bytes with no terminating newline is retained internally and
// prepended to the next call's read.
func (t *TrackedFile) ReadLines() ([]string, error) {
	data, err := io.ReadAll(t.f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	buf := data
	if len(t.partial) > 0 {
		buf = append(append([]byte(nil), t.partial...), data...)
	}

	var lines []string
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		line := buf[:i]
		buf = buf[i+1:]
		if len(line) > 0 {
			lines = append(lines, string(line))
		}
	}
	t.partial = append([]byte(nil), buf...)
	return lines, nil
}

// DiscardPartial drops any held partial-line bytes. Called on
// rotation: the previous file is closed by its writer and the partial
// tail will never gain a terminating newline.
func (t *TrackedFile) DiscardPartial() {
	t.partial = nil
}

// Close releases the underlying file handle.
func (t *TrackedFile) Close() error {
	if t.f == nil {
		return nil
	}
	return t.f.Close()
}
