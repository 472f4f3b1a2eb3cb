package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// BinaryVersion is stamped into binaries built by BuildLocalVodum, so a
// test can tell them apart from an installed vodum.
const BinaryVersion = "0.0.0-test"

type localBuild struct {
	once sync.Once
	path string
	err  error
}

var vodumBuild localBuild

// BuildLocalVodum returns the path of a vodum binary built from this
// module, building it on first use.
func BuildLocalVodum(t *testing.T) string {
	t.Helper()

	vodumBuild.once.Do(func() {
		vodumBuild.path, vodumBuild.err = buildVodum()
	})

	if vodumBuild.err != nil {
		t.Fatalf("vodum binary unavailable: %v", vodumBuild.err)
	}
	return vodumBuild.path
}

func buildVodum() (string, error) {
	gomod, err := exec.Command("go", "env", "GOMOD").Output()
	if err != nil {
		return "", fmt.Errorf("go env GOMOD: %w", err)
	}
	modFile := strings.TrimSpace(string(gomod))
	if modFile == "" || modFile == os.DevNull {
		return "", fmt.Errorf("not inside a Go module")
	}
	root := filepath.Dir(modFile)

	dir, err := os.MkdirTemp("", "vodum-bin-*")
	if err != nil {
		return "", err
	}
	name := "vodum"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	out := filepath.Join(dir, name)

	ldflags := "-X github.com/vodum/console/internal/cli.Version=" + BinaryVersion
	cmd := exec.Command("go", "build", "-ldflags", ldflags, "-o", out, "./cmd/vodum")
	cmd.Dir = root
	if msg, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("go build in %s: %w\n%s", root, err, strings.TrimSpace(string(msg)))
	}
	return out, nil
}
