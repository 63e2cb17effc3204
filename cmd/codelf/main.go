// Package main provides the entry point for the codelf CLI.
package main

import (
	"os"

	"github.com/dasmlab/codelf/cmd/codelf/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
