package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var ErrNotFound = errors.New("audio file not found")

// Manager owns the directory of generated audio files and reclaims disk
// space once files outlive the retention window.
type Manager struct {
	dir       string
	retention time.Duration
	interval  time.Duration
}

func NewManager(dir string, retention, interval time.Duration) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Manager{dir: dir, retention: retention, interval: interval}, nil
}

// Dir returns the managed audio directory.
func (m *Manager) Dir() string { return m.dir }

// Path resolves a bare filename inside the audio directory. Names carrying
// path separators are rejected as not found.
func (m *Manager) Path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", ErrNotFound
	}
	path := filepath.Join(m.dir, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// Delete removes the named file if present.
func (m *Manager) Delete(name string) error {
	path, err := m.Path(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Stats reports the count and aggregate size of stored WAV files.
func (m *Manager) Stats() (count int, totalBytes int64, err error) {
	files, err := filepath.Glob(filepath.Join(m.dir, "*.wav"))
	if err != nil {
		return 0, 0, err
	}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		count++
		totalBytes += info.Size()
	}
	return count, totalBytes, nil
}

// Start launches the periodic sweep for the lifetime of ctx. The sweep runs
// independently of request traffic.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.SweepOnce()
			}
		}
	}()
}

// SweepOnce deletes every WAV file strictly older than the retention window.
// A file aged exactly the window survives until the next pass. Failures on
// individual files are logged and do not abort the sweep.
func (m *Manager) SweepOnce() {
	files, err := filepath.Glob(filepath.Join(m.dir, "*.wav"))
	if err != nil {
		log.Error("audio sweep failed", "error", err)
		return
	}

	cutoff := time.Now().Add(-m.retention)
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if !expired(info.ModTime(), cutoff) {
			continue
		}
		if err := os.Remove(f); err != nil {
			log.Error("failed to clean up audio file", "file", f, "error", err)
			continue
		}
		log.Info("cleaned up old audio file", "file", f)
	}
}

// expired reports whether a file has outlived the retention window. The
// comparison is strict: a file aged exactly the window is kept.
func expired(modTime, cutoff time.Time) bool {
	return modTime.Before(cutoff)
}
