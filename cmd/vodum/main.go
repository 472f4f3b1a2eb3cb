package main

import (
	"os"

	"github.com/vodum/console/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
