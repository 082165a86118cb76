package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log entry with its attributes flattened,
// including those added through Logger.With
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type logStore struct {
	mu      sync.Mutex
	records []LogRecord
}

// LogCapture is a slog.Handler that keeps every record in memory
type LogCapture struct {
	store  *logStore
	attrs  []slog.Attr
	prefix string
	t      *testing.T
}

// NewTestLogger returns a logger backed by a LogCapture. Records are also
// echoed to the test log.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	h := &LogCapture{store: &logStore{}, t: t}
	return slog.New(h), h
}

func (h *LogCapture) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.prefix+a.Key] = a.Value.Any()
		return true
	})

	h.store.mu.Lock()
	h.store.records = append(h.store.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.store.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &next
}

func (h *LogCapture) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// Records returns a copy of everything captured so far
func (h *LogCapture) Records() []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return append([]LogRecord(nil), h.store.records...)
}

// RecordsAt returns the records logged at level
func (h *LogCapture) RecordsAt(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range h.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the first record whose message contains msg
func (h *LogCapture) Find(msg string) (LogRecord, bool) {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, msg) {
			return r, true
		}
	}
	return LogRecord{}, false
}

// HasAttr reports whether any record carries key with the given value
func (h *LogCapture) HasAttr(key string, value any) bool {
	for _, r := range h.Records() {
		if v, ok := r.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Reset drops all captured records
func (h *LogCapture) Reset() {
	h.store.mu.Lock()
	h.store.records = nil
	h.store.mu.Unlock()
}

// AssertLogContains fails the test unless a record at level contains msg
func AssertLogContains(t *testing.T, h *LogCapture, level slog.Level, msg string) {
	t.Helper()
	for _, r := range h.RecordsAt(level) {
		if strings.Contains(r.Message, msg) {
			return
		}
	}
	t.Errorf("no %s log containing %q", level, msg)
	dump(t, h)
}

// AssertLogAttr fails the test unless some record has key=value. slog
// stores ints as int64, so compare against int64 values.
func AssertLogAttr(t *testing.T, h *LogCapture, key string, value any) {
	t.Helper()
	if !h.HasAttr(key, value) {
		t.Errorf("no log with %s=%v (%T)", key, value, value)
		dump(t, h)
	}
}

// AssertNoErrors fails the test if anything was logged at error level
func AssertNoErrors(t *testing.T, h *LogCapture) {
	t.Helper()
	for _, r := range h.RecordsAt(slog.LevelError) {
		t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
	}
}

func dump(t *testing.T, h *LogCapture) {
	t.Helper()
	for _, r := range h.Records() {
		t.Logf("  [%s] %s %v", r.Level, r.Message, r.Attrs)
	}
}
