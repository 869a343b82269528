package diag

import (
	"fmt"
	"sync"
)

// Log accumulates per-request diagnostic messages. It is safe for concurrent
// use. A nil *Log discards everything, so callers can thread one through
// unconditionally and only pay for it when diagnostics were requested.
type Log struct {
	mu    sync.Mutex
	lines []string
}

// New returns a Log when enabled, nil otherwise.
func New(enabled bool) *Log {
	if !enabled {
		return nil
	}
	return &Log{}
}

// Printf appends a formatted line to the log.
func (l *Log) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

// Lines returns a copy of the accumulated lines, or nil for a nil Log.
func (l *Log) Lines() []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}
