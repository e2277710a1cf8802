package reader

import (
	"os"
	"path/filepath"
	"strconv"
)

// RotationTimestamp returns the sortable timestamp date*100+hour for a
// path of the form <base>/hourly/<YYYYMMDD>/<hour>, and false if the
// path doesn't fit that layout (missing/non-integer components, or
// hour >= 24).
func RotationTimestamp(path string) (int64, bool) {
	hourStr := filepath.Base(path)
	dateStr := filepath.Base(filepath.Dir(path))

	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour >= 24 {
		return 0, false
	}
	date, err := strconv.ParseInt(dateStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return date*100 + int64(hour), true
}

// HourlyDir returns <base>/hourly.
func HourlyDir(base string) string {
	return filepath.Join(base, "hourly")
}

// FindLatestFile scans <base>/hourly/<date>/<hour> and returns the
// path with the maximum rotation timestamp. ok is false if no valid
// hourly file exists under base.
func FindLatestFile(base string) (path string, ts int64, ok bool, err error) {
	hourly := HourlyDir(base)
	dateDirs, err := os.ReadDir(hourly)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, false, nil
		}
		return "", 0, false, err
	}

	var bestPath string
	var bestTs int64 = -1
	for _, d := range dateDirs {
		if !d.IsDir() {
			continue
		}
		dateDir := filepath.Join(hourly, d.Name())
		hourEntries, err := os.ReadDir(dateDir)
		if err != nil {
			continue
		}
		for _, h := range hourEntries {
			if h.IsDir() {
				continue
			}
			p := filepath.Join(dateDir, h.Name())
			t, valid := RotationTimestamp(p)
			if !valid {
				continue
			}
			if t > bestTs {
				bestTs = t
				bestPath = p
			}
		}
	}
	if bestPath == "" {
		return "", 0, false, nil
	}
	return bestPath, bestTs, true, nil
}
