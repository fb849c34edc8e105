package job

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
)

func lockPath(dir string) string {
	return filepath.Join(dir, config.LockFileName)
}

func writeLock(dir string, payload extractionModel.LockPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	tmp := lockPath(dir) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, lockPath(dir))
}

// createLock writes the lock only if none exists yet.
func createLock(dir string, payload extractionModel.LockPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(lockPath(dir), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func removeLock(dir string) error {
	err := os.Remove(lockPath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// readLock returns the lock payload. Locks that only hold a timestamp, or
// garbage, report the file's modification time as their heartbeat.
func readLock(dir string) (extractionModel.LockPayload, bool, error) {
	var payload extractionModel.LockPayload
	info, err := os.Stat(lockPath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return payload, false, nil
	} else if err != nil {
		return payload, false, err
	}
	data, err := os.ReadFile(lockPath(dir))
	if err != nil {
		return payload, true, err
	}
	if json.Unmarshal(data, &payload) == nil && !payload.HeartbeatAt.IsZero() {
		return payload, true, nil
	}
	payload = extractionModel.LockPayload{HeartbeatAt: info.ModTime()}
	if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(data))); err == nil {
		payload.StartedAt = t
	}
	return payload, true, nil
}

func lockExists(dir string) bool {
	_, err := os.Stat(lockPath(dir))
	return err == nil
}

// readStatusMarker looks for the tool's status file at the extraction root,
// then one folder down.
func readStatusMarker(dir string) string {
	if data, err := os.ReadFile(filepath.Join(dir, config.StatusFileName)); err == nil {
		return strings.TrimSpace(string(data))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if data, err := os.ReadFile(filepath.Join(dir, e.Name(), config.StatusFileName)); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}

// clearStatusMarkers removes every status file readStatusMarker would find.
func clearStatusMarkers(dir string) error {
	paths := []string{filepath.Join(dir, config.StatusFileName)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			paths = append(paths, filepath.Join(dir, e.Name(), config.StatusFileName))
		}
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
