package testutil

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// AssertCommandSuccess runs a command and verifies it succeeds (exit 0).
func AssertCommandSuccess(t *testing.T, logger *TestLogger, cmd string, args ...string) []byte {
	t.Helper()
	logger.Log("VERIFY: Command succeeds: %s %s", cmd, strings.Join(args, " "))

	out, err := logger.Exec(cmd, args...)
	if err != nil {
		logger.Log("FAIL: Command failed: %v", err)
		t.Errorf("command %s %s failed: %v\nOutput: %s", cmd, strings.Join(args, " "), err, string(out))
		return out
	}

	logger.Log("PASS: Command succeeded")
	return out
}

// AssertCommandFails runs a command and verifies it fails (non-zero exit).
func AssertCommandFails(t *testing.T, logger *TestLogger, cmd string, args ...string) []byte {
	t.Helper()
	logger.Log("VERIFY: Command fails: %s %s", cmd, strings.Join(args, " "))

	out, err := logger.Exec(cmd, args...)
	if err == nil {
		logger.Log("FAIL: Command succeeded but should have failed")
		t.Errorf("command %s %s should have failed but succeeded\nOutput: %s", cmd, strings.Join(args, " "), string(out))
		return out
	}

	logger.Log("PASS: Command failed as expected: %v", err)
	return out
}

// AssertJSONOutput verifies that command output is valid JSON.
func AssertJSONOutput(t *testing.T, logger *TestLogger, output []byte) {
	t.Helper()
	logger.Log("VERIFY: Output is valid JSON")

	var v any
	if err := json.Unmarshal(output, &v); err != nil {
		logger.Log("FAIL: Invalid JSON: %v", err)
		logger.Log("Output: %s", string(output))
		t.Errorf("output is not valid JSON: %v\nOutput: %s", err, string(output))
	} else {
		logger.Log("PASS: Output is valid JSON")
	}
}

// AssertJSONField verifies a field in JSON output has the expected value.
func AssertJSONField(t *testing.T, logger *TestLogger, output []byte, field string, expected any) {
	t.Helper()
	logger.Log("VERIFY: JSON field %q equals %v", field, expected)

	var data map[string]any
	if err := json.Unmarshal(output, &data); err != nil {
		logger.Log("FAIL: Invalid JSON: %v", err)
		t.Errorf("failed to parse JSON: %v", err)
		return
	}

	actual, ok := data[field]
	if !ok {
		logger.Log("FAIL: Field %q not found in JSON", field)
		t.Errorf("field %q not found in JSON output", field)
		return
	}

	// Compare as strings for simplicity
	if actual != expected {
		logger.Log("FAIL: Field %q = %v, expected %v", field, actual, expected)
		t.Errorf("field %q = %v, expected %v", field, actual, expected)
	} else {
		logger.Log("PASS: Field %q = %v", field, actual)
	}
}

// AssertEventually retries an assertion until it passes or timeout.
func AssertEventually(t *testing.T, logger *TestLogger, timeout time.Duration, interval time.Duration, description string, assertion func() bool) {
	t.Helper()
	logger.Log("VERIFY (eventually, timeout=%s): %s", timeout, description)

	deadline := time.Now().Add(timeout)
	attempt := 0
	for time.Now().Before(deadline) {
		attempt++
		if assertion() {
			logger.Log("PASS: %s (attempt %d)", description, attempt)
			return
		}
		time.Sleep(interval)
	}

	logger.Log("FAIL: %s (timed out after %d attempts)", description, attempt)
	t.Errorf("%s: timed out after %s (%d attempts)", description, timeout, attempt)
}

// AssertRequestCount verifies the backend served request ("METHOD /path")
// exactly n times.
func AssertRequestCount(t *testing.T, logger *TestLogger, b *Backend, request string, n int) {
	t.Helper()
	logger.Log("VERIFY: backend served %q %d times", request, n)

	if got := b.Count(request); got != n {
		logger.Log("FAIL: served %d times, requests: %v", got, b.Requests())
		t.Errorf("backend served %q %d times, expected %d", request, got, n)
	} else {
		logger.Log("PASS: served %d times", got)
	}
}
