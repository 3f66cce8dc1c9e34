package main

import (
	"os"

	"github.com/corpdrive/server/internal/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
