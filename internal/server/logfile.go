// logfile.go - Hourly rolling log files.
//
// Log lines are mirrored to files named YYYY-MM-DD-HH.<suffix> under
// LOG_DIR, rotating on the hour. Only the newest maxLogFiles files are kept.
package server

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const maxLogFiles = 48

// rollingWriter is an io.Writer that switches to a new file every hour and
// prunes old files past the retention count.
type rollingWriter struct {
	mu     sync.Mutex
	dir    string
	suffix string

	file     *os.File
	fileHour time.Time

	// injectable clock for tests
	now func() time.Time
}

// newRollingWriter creates the log directory if needed. suffix defaults to
// "log" when empty.
func newRollingWriter(dir, suffix string) (*rollingWriter, error) {
	if dir == "" {
		dir = "./logs"
	}
	if suffix == "" {
		suffix = "log"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &rollingWriter{dir: dir, suffix: suffix, now: time.Now}, nil
}

func (w *rollingWriter) filename(hour time.Time) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s.%s", hour.Format("2006-01-02-15"), w.suffix))
}

func (w *rollingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Truncate(time.Hour)
	if w.file == nil || !hour.Equal(w.fileHour) {
		if err := w.rotate(hour); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

func (w *rollingWriter) rotate(hour time.Time) error {
	if w.file != nil {
		_ = w.file.Close()
	}

	f, err := os.OpenFile(w.filename(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.fileHour = hour

	w.prune()
	return nil
}

// prune removes the oldest files beyond the retention count. Filenames sort
// chronologically, so lexical order is enough.
func (w *rollingWriter) prune() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "."+w.suffix) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) <= maxLogFiles {
		return
	}

	sort.Strings(names)
	for _, name := range names[:len(names)-maxLogFiles] {
		_ = os.Remove(filepath.Join(w.dir, name))
	}
}

func (w *rollingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// InitFileLogging attaches a rolling file writer (configured by LOG_DIR and
// LOG_SUFFIX) to both the structured logger and the stdlib logger used for
// request lines, keeping stdout as a second sink. Returns a closer for
// shutdown.
func InitFileLogging(dir, suffix string) (func() error, error) {
	rw, err := newRollingWriter(dir, suffix)
	if err != nil {
		return nil, err
	}

	sink := io.MultiWriter(os.Stdout, rw)
	DefaultLogger.SetOutput(sink)
	log.SetOutput(sink)
	return rw.Close, nil
}
