package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const backupStamp = "20060102-150405.000"

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// MaxSize is the size in bytes at which the file is rotated.
	// Zero selects the default of 5MB.
	MaxSize int64 `mapstructure:"max_size"`

	// MaxAge is the number of days rotated files are kept. Zero keeps them
	// regardless of age.
	MaxAge int `mapstructure:"max_age"`

	// MaxBackups is the number of rotated files kept. Zero keeps all.
	MaxBackups int `mapstructure:"max_backups"`

	// Daily rotates the file on the first write of a new day.
	Daily bool `mapstructure:"daily"`
}

// DefaultRotationConfig returns the rotation defaults.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    5 << 20,
		MaxAge:     14,
		MaxBackups: 3,
		Daily:      false,
	}
}

// RotatingWriter is an io.WriteCloser over a log file that rotates by size
// and, optionally, by day. Writes hold an advisory flock so several wsanon
// processes can share one log file.
type RotatingWriter struct {
	mu     sync.Mutex
	path   string
	cfg    RotationConfig
	file   *os.File
	size   int64
	opened time.Time
}

// NewRotatingWriter opens path for appending, creating parent directories.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultRotationConfig().MaxSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{path: path, cfg: cfg}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.prune()
	return w, nil
}

// Write appends p, rotating first when p would overflow the file or the day
// has changed.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}

	if w.due(int64(len(p)), time.Now()) {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotating log file: %w", err)
		}
	}

	fd := int(w.file.Fd())
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		return 0, fmt.Errorf("locking log file: %w", err)
	}
	defer func() { _ = unix.Flock(fd, unix.LOCK_UN) }()

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing log file: %w", err)
	}
	return n, nil
}

// Close syncs and closes the file. It is safe to call more than once.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	w.file = nil
	if syncErr != nil {
		return fmt.Errorf("syncing log file: %w", syncErr)
	}
	return closeErr
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	w.opened = info.ModTime()
	if w.size == 0 {
		w.opened = time.Now()
	}
	return nil
}

// due reports whether the file must be rotated before writing n bytes.
// An empty file is never rotated for size.
func (w *RotatingWriter) due(n int64, now time.Time) bool {
	if w.size > 0 && w.size+n > w.cfg.MaxSize {
		return true
	}
	if w.cfg.Daily && w.size > 0 {
		y1, m1, d1 := w.opened.Date()
		y2, m2, d2 := now.Date()
		return y1 != y2 || m1 != m2 || d1 != d2
	}
	return false
}

func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	w.file = nil

	if err := os.Rename(w.path, w.backupName(time.Now())); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("renaming log file: %w", err)
	}
	if err := w.open(); err != nil {
		return err
	}
	w.prune()
	return nil
}

// backupName returns an unused name of the form base.stamp.ext.
func (w *RotatingWriter) backupName(now time.Time) string {
	ext := filepath.Ext(w.path)
	stem := strings.TrimSuffix(w.path, ext)
	name := fmt.Sprintf("%s.%s%s", stem, now.Format(backupStamp), ext)
	for i := 1; ; i++ {
		if _, err := os.Lstat(name); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s.%s-%d%s", stem, now.Format(backupStamp), i, ext)
	}
}

// backups lists rotated files for this log, newest first.
func (w *RotatingWriter) backups() []string {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	type backup struct {
		path string
		mod  time.Time
	}
	var found []backup
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == base || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, backup{path: filepath.Join(dir, name), mod: info.ModTime()})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].mod.Equal(found[j].mod) {
			return found[i].path > found[j].path
		}
		return found[i].mod.After(found[j].mod)
	})

	paths := make([]string, len(found))
	for i, b := range found {
		paths[i] = b.path
	}
	return paths
}

// prune removes backups beyond MaxBackups or older than MaxAge days.
// Failures are ignored.
func (w *RotatingWriter) prune() {
	cutoff := time.Time{}
	if w.cfg.MaxAge > 0 {
		cutoff = time.Now().Add(-time.Duration(w.cfg.MaxAge) * 24 * time.Hour)
	}

	for i, p := range w.backups() {
		drop := w.cfg.MaxBackups > 0 && i >= w.cfg.MaxBackups
		if !drop && !cutoff.IsZero() {
			if info, err := os.Stat(p); err == nil && info.ModTime().Before(cutoff) {
				drop = true
			}
		}
		if drop {
			_ = os.Remove(p)
		}
	}
}
