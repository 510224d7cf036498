// Package cmdlog records the commands issued to backing stores: command
// text, elapsed time and outcome. It is the observability collaborator the
// keyspace engine reports into; display and persistence stay in the UI.
package cmdlog

import (
	"sync"
	"time"

	"KeyNavi-Wails/internal/logger"
)

// maxEntries bounds the in-memory ring; older records are dropped.
const maxEntries = 500

// Entry is one recorded store command.
type Entry struct {
	Command   string `json:"command"`
	ElapsedMs int64  `json:"elapsedMs"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	At        string `json:"at"`
}

// Log is a fixed-size ring of command records. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// New returns an empty command log.
func New() *Log {
	return &Log{entries: make([]Entry, maxEntries)}
}

// Record implements keyspace.Monitor.
func (l *Log) Record(command string, elapsed time.Duration, err error) {
	entry := Entry{
		Command:   command,
		ElapsedMs: elapsed.Milliseconds(),
		Success:   err == nil,
		At:        time.Now().Format(time.RFC3339),
	}
	if err != nil {
		entry.Error = err.Error()
		logger.Error(err, "存储命令失败：%s 耗时=%s", command, elapsed)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = entry
	l.next++
	if l.next == len(l.entries) {
		l.next = 0
		l.full = true
	}
}

// Recent returns the recorded entries, oldest first.
func (l *Log) Recent() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		out := make([]Entry, l.next)
		copy(out, l.entries[:l.next])
		return out
	}
	out := make([]Entry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	out = append(out, l.entries[:l.next]...)
	return out
}
