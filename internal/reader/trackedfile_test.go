package reader

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestTrackedFileOpenAtEndSkipsExistingContent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	mustWriteFile(t, path, "old\n")

	tf, err := OpenAtEnd(path)
	if err != nil {
		t.Fatalf("OpenAtEnd: %v", err)
	}
	defer tf.Close()

	lines, err := tf.ReadLines()
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("lines = %v, want none (opened at end)", lines)
	}

	appendTo(t, path, "new\n")
	lines, err = tf.ReadLines()
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"new"}) {
		t.Fatalf("lines = %v, want [new]", lines)
	}
}

func TestTrackedFilePartialLineRetained(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	mustWriteFile(t, path, "")

	tf, err := OpenFromBeginning(path)
	if err != nil {
		t.Fatalf("OpenFromBeginning: %v", err)
	}
	defer tf.Close()

	appendTo(t, path, "abc")
	lines, err := tf.ReadLines()
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("lines = %v, want none (no terminating newline yet)", lines)
	}

	appendTo(t, path, "def\n")
	lines, err = tf.ReadLines()
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"abcdef"}) {
		t.Fatalf("lines = %v, want [abcdef]", lines)
	}
}

func TestTrackedFileEmptyLinesDiscarded(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	mustWriteFile(t, path, "a\n\nb\n")

	tf, err := OpenFromBeginning(path)
	if err != nil {
		t.Fatalf("OpenFromBeginning: %v", err)
	}
	defer tf.Close()

	lines, err := tf.ReadLines()
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"a", "b"}) {
		t.Fatalf("lines = %v, want [a b]", lines)
	}
}

func TestTrackedFileDiscardPartial(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	mustWriteFile(t, path, "abc")

	tf, err := OpenFromBeginning(path)
	if err != nil {
		t.Fatalf("OpenFromBeginning: %v", err)
	}
	defer tf.Close()

	if _, err := tf.ReadLines(); err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	tf.DiscardPartial()

	appendTo(t, path, "def\n")
	lines, err := tf.ReadLines()
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"def"}) {
		t.Fatalf("lines = %v, want [def] (partial discarded, not abcdef)", lines)
	}
}

func appendTo(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write: %v", err)
	}
}
