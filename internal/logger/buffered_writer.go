package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tphakala/zclstore/internal/errors"
)

const (
	// DefaultFlushInterval applies when logging.file_output.flush_interval is unset.
	DefaultFlushInterval = 5 * time.Second

	// LogFilePermissions is the mode of created log files.
	LogFilePermissions = 0o600

	logDirPermissions = 0o700
	logBufferSize     = 32 * 1024
)

var errWriterClosed = errors.NewStd("log file is closed")

// BufferedFileWriter is an append-only log file behind a buffer that a
// background goroutine flushes every flush interval. Close flushes, fsyncs
// and closes the file. Files are not rotated; use logrotate with copytruncate.
type BufferedFileWriter struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewBufferedFileWriter opens path for appending, creating missing parent
// directories. A non-positive flushInterval means DefaultFlushInterval.
func NewBufferedFileWriter(path string, flushInterval time.Duration) (*BufferedFileWriter, error) {
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, logDirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions) //nolint:gosec // path comes from the logging configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	w := &BufferedFileWriter{
		file: file,
		buf:  bufio.NewWriterSize(file, logBufferSize),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.flushEvery(flushInterval)
	return w, nil
}

func (w *BufferedFileWriter) flushEvery(interval time.Duration) {
	defer close(w.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			// A failed flush resurfaces on the next Write.
			_ = w.Flush()
		}
	}
}

// Write buffers p.
func (w *BufferedFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, errWriterClosed
	}
	return w.buf.Write(p)
}

// Flush hands buffered records to the OS without fsync.
func (w *BufferedFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush log buffer: %w", err)
	}
	return nil
}

// Buffered returns the number of bytes waiting for the next flush.
func (w *BufferedFileWriter) Buffered() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0
	}
	return w.buf.Buffered()
}

// Close stops the flush goroutine and closes the file. Later calls return
// the result of the first one.
func (w *BufferedFileWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.stop)
		<-w.done

		w.mu.Lock()
		defer w.mu.Unlock()

		w.closeErr = errors.Join(w.buf.Flush(), w.file.Sync(), w.file.Close())
		w.file = nil
	})
	return w.closeErr
}
