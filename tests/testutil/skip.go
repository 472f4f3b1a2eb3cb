package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// RequireVodumBinary ensures tests run against a repo-built vodum binary.
//
// The binary is built once per test process and its directory is prepended
// to PATH, so exec.Command("vodum") never picks up an installed copy that
// does not match the workspace source.
func RequireVodumBinary(t *testing.T) {
	t.Helper()

	binary := BuildLocalVodum(t)
	binDir := filepath.Dir(binary)

	sep := string(os.PathListSeparator)
	existing := os.Getenv("PATH")
	if strings.HasPrefix(existing, binDir+sep) || existing == binDir {
		return
	}
	t.Setenv("PATH", binDir+sep+existing)
}

// RequireUnix skips the test on non-Unix systems (Windows).
func RequireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test requires Unix-like system")
	}
}

// RequireIntegration skips the test unless integration tests are enabled.
// Set VODUM_INTEGRATION_TESTS=1 to run integration tests.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("VODUM_INTEGRATION_TESTS") == "" {
		t.Skip("integration tests disabled, set VODUM_INTEGRATION_TESTS=1 to enable")
	}
}

// SkipShort skips the test if -short flag is passed.
func SkipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
}

// IntegrationTestPrecheck runs the common prechecks for tests that drive
// the vodum binary: integration tests enabled, not -short, binary built
// and on PATH, and state and config isolated in temp dirs.
func IntegrationTestPrecheck(t *testing.T) {
	t.Helper()
	RequireIntegration(t)
	SkipShort(t)
	RequireVodumBinary(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("VODUM_CONFIG", "")
	t.Setenv("VODUM_URL", "")
	t.Setenv("VODUM_TOKEN", "")
}
