// Package main is the entry point for the agent-cost CLI.
package main

import (
	"os"

	"agent-cost/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
