package audit

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Audit file format: one line per received message,
//
//	<unix_seconds>,<source_label>,<raw_message>
//
// The raw message is written as received and may itself contain commas.
// The file is opened in append mode on the first write and is never
// truncated or rotated here.

// Logger appends raw messages to an audit file. It is safe for concurrent use.
type Logger struct {
	path string
	now  func() time.Time

	mu     sync.Mutex
	f      *os.File
	closed bool
}

func NewLogger(path string) (*Logger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("audit path is required")
	}
	return &Logger{path: path, now: time.Now}, nil
}

func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Write appends one record. A failed open is retried on the next call.
// A nil Logger discards records.
func (l *Logger) Write(label, raw string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("audit logger is closed")
	}
	if l.f == nil {
		f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		l.f = f
	}
	line := fmt.Sprintf("%d,%s,%s\n", l.now().Unix(), label, raw)
	if _, err := l.f.WriteString(line); err != nil {
		// Reopen next time; the file may have been removed or the disk
		// may have recovered.
		_ = l.f.Close()
		l.f = nil
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
