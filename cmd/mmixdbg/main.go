// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command mmixdbg is a source-level debugger for MMIX programs. It drives
// the interactive mmix simulator and maps addresses back to the lines of the
// assembly source.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mmixdbg: %v\n", err)
		os.Exit(1)
	}
}
