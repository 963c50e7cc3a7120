package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestLogger captures logs for testing and verification
type TestLogger struct {
	mu      sync.Mutex
	entries []TestLogEntry
	buffer  bytes.Buffer
}

// TestLogEntry represents a captured log entry
type TestLogEntry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	RequestID string
	Operation string
	Error     string
	Attrs     map[string]interface{}
}

// NewTestLogger creates a new test logger that captures log output
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

// Write implements io.Writer so the JSON handler can write into the buffer
func (tl *TestLogger) Write(p []byte) (int, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.buffer.Write(p)
}

// GetHandler returns a slog.Handler that writes to this test logger
func (tl *TestLogger) GetHandler() slog.Handler {
	return slog.NewJSONHandler(tl, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// GetLogger returns a slog.Logger that writes to this test logger
func (tl *TestLogger) GetLogger() *slog.Logger {
	return slog.New(tl.GetHandler())
}

// GetEntries returns all captured log entries
func (tl *TestLogger) GetEntries() []TestLogEntry {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.parseBuffer()

	entries := make([]TestLogEntry, len(tl.entries))
	copy(entries, tl.entries)
	return entries
}

// GetEntriesWithLevel returns log entries matching the specified level
func (tl *TestLogger) GetEntriesWithLevel(level string) []TestLogEntry {
	var filtered []TestLogEntry
	for _, entry := range tl.GetEntries() {
		if strings.EqualFold(entry.Level, level) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// GetEntriesWithMessage returns log entries containing the specified message
func (tl *TestLogger) GetEntriesWithMessage(message string) []TestLogEntry {
	var filtered []TestLogEntry
	for _, entry := range tl.GetEntries() {
		if strings.Contains(entry.Message, message) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// parseBuffer moves complete JSON lines from the buffer into entries.
// Callers hold tl.mu.
func (tl *TestLogger) parseBuffer() {
	if tl.buffer.Len() == 0 {
		return
	}

	lines := strings.Split(strings.TrimSpace(tl.buffer.String()), "\n")
	tl.buffer.Reset()

	for _, line := range lines {
		if line == "" {
			continue
		}

		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			continue
		}

		entry := TestLogEntry{Attrs: make(map[string]interface{})}
		for key, value := range raw {
			str, _ := value.(string)
			switch key {
			case "time":
				if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
					entry.Time = t
				}
			case "level":
				entry.Level = str
			case "msg":
				entry.Message = str
			case "component":
				entry.Component = str
			case "request_id":
				entry.RequestID = str
			case "operation":
				entry.Operation = str
			case "error":
				entry.Error = str
			default:
				entry.Attrs[key] = value
			}
		}

		tl.entries = append(tl.entries, entry)
	}
}

// Clear resets all captured entries and buffer
func (tl *TestLogger) Clear() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.entries = tl.entries[:0]
	tl.buffer.Reset()
}

// Count returns the total number of captured entries
func (tl *TestLogger) Count() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.parseBuffer()
	return len(tl.entries)
}

// AssertLogged verifies that a log entry with the specified level and message was captured
func (tl *TestLogger) AssertLogged(t *testing.T, level, message string) {
	t.Helper()

	entries := tl.GetEntries()
	for _, entry := range entries {
		if strings.EqualFold(entry.Level, level) && strings.Contains(entry.Message, message) {
			return
		}
	}

	t.Errorf("Expected log entry with level=%s message=%s not found. Captured entries:", level, message)
	for i, entry := range entries {
		t.Errorf("  [%d] %s: %s", i, entry.Level, entry.Message)
	}
}

// AssertNotLogged verifies that no log entry with the specified level and message was captured
func (tl *TestLogger) AssertNotLogged(t *testing.T, level, message string) {
	t.Helper()

	for _, entry := range tl.GetEntries() {
		if strings.EqualFold(entry.Level, level) && strings.Contains(entry.Message, message) {
			t.Errorf("Unexpected log entry found with level=%s message=%s", level, message)
			return
		}
	}
}

// AssertLogCount verifies the expected number of log entries
func (tl *TestLogger) AssertLogCount(t *testing.T, expected int) {
	t.Helper()

	if count := tl.Count(); count != expected {
		t.Errorf("Expected %d log entries, got %d", expected, count)
	}
}

// CreateTestFactory creates a factory whose loggers write into a TestLogger
func CreateTestFactory(config *Config) (*Factory, *TestLogger, error) {
	if config == nil {
		config = &Config{
			Level:  LogLevelDebug,
			Format: LogFormatJSON,
			Output: LogOutputStderr,
		}
	}

	testLogger := NewTestLogger()
	factory, err := NewFactoryWithWriter(config, testLogger)
	if err != nil {
		return nil, nil, err
	}
	return factory, testLogger, nil
}
