package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// DefaultExecTimeout bounds commands run through TestLogger.Exec. A watch
// or dashboard that never returns must fail the test, not hang it.
const DefaultExecTimeout = 30 * time.Second

// maxLoggedOutput caps how much command output is copied into the log.
const maxLoggedOutput = 2000

// TestLogger writes timestamped entries to a log file and the test output.
type TestLogger struct {
	t       *testing.T
	w       io.Writer
	startTs time.Time
	mu      sync.Mutex
}

// NewTestLogger creates a logger writing to the test output and to a file
// in logDir named after the test. The file is closed when the test ends.
func NewTestLogger(t *testing.T, logDir string) *TestLogger {
	t.Helper()

	if err := os.MkdirAll(logDir, 0755); err != nil {
		t.Fatalf("failed to create log directory: %v", err)
	}

	safeName := strings.ReplaceAll(t.Name(), "/", "_")
	filename := fmt.Sprintf("%s_%s.log", safeName, time.Now().Format("20060102_150405"))
	logPath := filepath.Join(logDir, filename)

	f, err := os.Create(logPath)
	if err != nil {
		t.Fatalf("failed to create log file: %v", err)
	}
	t.Cleanup(func() {
		f.Close()
	})

	logger := &TestLogger{
		t:       t,
		w:       io.MultiWriter(f, &testWriter{t: t}),
		startTs: time.Now(),
	}
	logger.Log("=== TEST START: %s ===", t.Name())
	logger.Log("Log file: %s", logPath)
	return logger
}

// NewTestLoggerStdout creates a logger that only writes to test output.
func NewTestLoggerStdout(t *testing.T) *TestLogger {
	t.Helper()
	return &TestLogger{
		t:       t,
		w:       &testWriter{t: t},
		startTs: time.Now(),
	}
}

// Log writes a timestamped log entry.
func (l *TestLogger) Log(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().Format(time.RFC3339)
	elapsed := time.Since(l.startTs).Round(time.Millisecond)
	fmt.Fprintf(l.w, "[%s] [+%s] %s\n", ts, elapsed, fmt.Sprintf(format, args...))
}

// LogSection writes a section header for grouping related log entries.
func (l *TestLogger) LogSection(name string) {
	l.Log("--- %s ---", name)
}

// Exec runs a command with DefaultExecTimeout and returns its stdout.
// Stderr is logged only.
func (l *TestLogger) Exec(cmd string, args ...string) ([]byte, error) {
	return l.ExecContext(DefaultExecTimeout, cmd, args...)
}

// ExecContext runs a command, killing it after timeout.
func (l *TestLogger) ExecContext(timeout time.Duration, cmd string, args ...string) ([]byte, error) {
	l.Log("EXEC (timeout=%s): %s %s", timeout, cmd, strings.Join(args, " "))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stderr strings.Builder
	c := exec.CommandContext(ctx, cmd, args...)
	c.Stderr = &stderr
	out, err := c.Output()

	l.logOutput("STDOUT", string(out))
	l.logOutput("STDERR", stderr.String())

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		l.Log("EXIT: timeout after %s", timeout)
		return out, fmt.Errorf("command timed out after %s", timeout)
	case err != nil:
		l.Log("EXIT: error: %v", err)
	default:
		l.Log("EXIT: success (exit 0)")
	}
	return out, err
}

func (l *TestLogger) logOutput(label, s string) {
	if s == "" {
		return
	}
	if len(s) > maxLoggedOutput {
		s = s[:maxLoggedOutput] + "\n... (truncated)"
	}
	l.Log("%s:\n%s", label, s)
}

// testWriter wraps testing.T to implement io.Writer
type testWriter struct {
	t *testing.T
}

func (tw *testWriter) Write(p []byte) (n int, err error) {
	tw.t.Helper()
	tw.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
