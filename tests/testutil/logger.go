package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/ogsetup/internal/logging"
)

// TestLogger is a logging.Logger whose output is kept in memory, so tests can
// check what was logged and that secrets were not.
//
// Example usage:
//
//	logger := NewTestLogger(t)
//	orchestrator := setup.NewOrchestrator(s, r, settings, logger.Logger)
//	...
//	logger.AssertNotContains(t, apiKey)
type TestLogger struct {
	*logging.Logger
	buffer *lockedBuffer
}

// NewTestLogger creates a TestLogger with debug output enabled and colors
// disabled.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()

	buf := &lockedBuffer{}
	return &TestLogger{
		Logger: logging.NewWithWriter(buf, true, true),
		buffer: buf,
	}
}

// String returns everything logged so far.
func (l *TestLogger) String() string {
	return l.buffer.String()
}

// Clear drops the captured output.
func (l *TestLogger) Clear() {
	l.buffer.Reset()
}

// AssertContains asserts that the log output contains substr.
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()

	assert.Contains(t, l.String(), substr, "Expected log output to contain %q", substr)
}

// AssertNotContains asserts that the log output does NOT contain substr.
//
// This is the check for secrets leaking into logs.
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()

	assert.NotContains(t, l.String(), substr, "Expected log output to NOT contain %q", substr)
}

// Lines returns the non-empty log lines.
func (l *TestLogger) Lines() []string {
	lines := strings.Split(l.String(), "\n")

	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}

// lockedBuffer is a bytes.Buffer safe for the server goroutines that log.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *lockedBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}
