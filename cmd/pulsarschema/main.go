package main

import (
	"os"

	"github.com/reoring/pulsarschema/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
