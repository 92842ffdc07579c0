// Package rotatelog provides a size-bounded log file with numbered
// backups. When an append would push the active file past its limit,
// backups shift upward (file.1 -> file.2, ...), the oldest is dropped,
// the active file becomes backup 1 and a fresh file receives the
// triggering record.
package rotatelog

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Writer is an io.Writer with rotation. A failed rotation is logged and
// the write proceeds on the existing file, so a full disk or permission
// problem never costs a record.
type Writer struct {
	path        string
	maxSize     int64
	backupCount int
	logger      zerolog.Logger

	mu   sync.Mutex
	file *os.File
	size int64
}

// New opens (or creates) the log file at path. maxSize is the rotation
// limit in bytes; backupCount is the number of rotated files to keep.
// backupCount of zero means the active file is simply truncated on
// rotation.
func New(path string, maxSize int64, backupCount int, logger zerolog.Logger) (*Writer, error) {
	w := &Writer{
		path:        path,
		maxSize:     maxSize,
		backupCount: backupCount,
		logger:      logger,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", w.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file %s: %w", w.path, err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// Write appends p, rotating first if the append would exceed the size
// limit. The triggering record always lands exactly once: either at the
// head of the fresh file or, if rotation failed, appended to the old one.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			w.logger.Warn().Err(err).Str("path", w.path).Msg("Log rotation failed, continuing on existing file")
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// rotate shifts backups upward and reopens a fresh active file. Callers
// hold w.mu.
func (w *Writer) rotate() error {
	if err := w.file.Close(); err != nil {
		// reopen so the pending write still has a destination
		_ = w.openOrKeep()
		return fmt.Errorf("closing active log: %w", err)
	}

	if w.backupCount > 0 {
		// drop the oldest, then shift the rest up by one
		_ = os.Remove(w.backupName(w.backupCount))
		for i := w.backupCount - 1; i >= 1; i-- {
			src := w.backupName(i)
			if _, err := os.Stat(src); err == nil {
				_ = os.Rename(src, w.backupName(i+1))
			}
		}
		if err := os.Rename(w.path, w.backupName(1)); err != nil {
			_ = w.openOrKeep()
			return fmt.Errorf("renaming active log: %w", err)
		}
	} else {
		if err := os.Remove(w.path); err != nil {
			_ = w.openOrKeep()
			return fmt.Errorf("removing active log: %w", err)
		}
	}

	return w.open()
}

// openOrKeep restores a usable file handle after a failed rotation step.
func (w *Writer) openOrKeep() error {
	if err := w.open(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to reopen log file after rotation error")
		return err
	}
	return nil
}

func (w *Writer) backupName(i int) string {
	return fmt.Sprintf("%s.%d", w.path, i)
}

// Size returns the current size of the active file in bytes.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Close closes the active file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
