package health

import (
	"errors"
	"os"
	"time"
)

func inspectUploadDir(path string) *UploadsInfo {
	info := &UploadsInfo{Path: path}

	entries, err := os.ReadDir(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			info.InspectErr = err.Error()
		}
		return info
	}
	info.Exists = true

	var oldest time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info.Files++
		info.TotalBytes += fi.Size()
		if oldest.IsZero() || fi.ModTime().Before(oldest) {
			oldest = fi.ModTime()
		}
	}
	if !oldest.IsZero() {
		info.OldestAt = oldest.Format(time.RFC3339)
	}
	return info
}
