package cli

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsInteractive returns true when f is a terminal. Anything that is not an
// *os.File (a test buffer, a pipe wrapper) is not.
func IsInteractive(f any) bool {
	file, ok := f.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
