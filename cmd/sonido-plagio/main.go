// Package main is the entry point for the sonido-plagio CLI.
//
// Usage:
//
//	sonido-plagio [flags] <command> [args]
//
// Commands:
//
//	compare      - Score two audio files
//	fingerprint  - Print the fingerprint of one file
//	batch        - Rank candidates against a reference
//	serve        - Run the HTTP service
//	config       - Print the effective settings
//	version      - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-plagio/cmd/sonido-plagio/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
