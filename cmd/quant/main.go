package main

import (
	"os"

	"github.com/wonny/premarket-signals/cmd/quant/commands"
)

// main is the entry point for the premarket signals CLI
// ⭐ Unified CLI entry point: go run ./cmd/quant [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
