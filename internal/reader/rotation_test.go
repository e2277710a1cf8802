package reader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRotationTimestamp(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path    string
		want    int64
		wantOk  bool
	}{
		{"/base/hourly/20240101/10", 2024010100 + 10, true},
		{"/base/hourly/20240101/23", 2024010100 + 23, true},
		{"/base/hourly/20240101/24", 0, false},
		{"/base/hourly/20240101/abc", 0, false},
		{"/base/hourly/abc/10", 0, false},
	}
	for _, c := range cases {
		ts, ok := RotationTimestamp(c.path)
		if ok != c.wantOk {
			t.Errorf("RotationTimestamp(%q) ok = %v, want %v", c.path, ok, c.wantOk)
			continue
		}
		if ok && ts != c.want {
			t.Errorf("RotationTimestamp(%q) = %d, want %d", c.path, ts, c.want)
		}
	}
}

func TestFindLatestFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "hourly", "20240101", "10"), "a\n")
	mustWriteFile(t, filepath.Join(dir, "hourly", "20240101", "11"), "b\n")
	mustWriteFile(t, filepath.Join(dir, "hourly", "20240102", "0"), "c\n")

	path, ts, ok, err := FindLatestFile(dir)
	if err != nil {
		t.Fatalf("FindLatestFile: %v", err)
	}
	if !ok {
		t.Fatal("ok = false, want true")
	}
	wantTs := int64(2024010200)
	if ts != wantTs {
		t.Fatalf("ts = %d, want %d", ts, wantTs)
	}
	if filepath.Base(path) != "0" || filepath.Base(filepath.Dir(path)) != "20240102" {
		t.Fatalf("path = %s, want .../20240102/0", path)
	}
}

func TestFindLatestFileMissingDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, _, ok, err := FindLatestFile(dir)
	if err != nil {
		t.Fatalf("FindLatestFile: %v", err)
	}
	if ok {
		t.Fatal("ok = true, want false for missing hourly dir")
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
