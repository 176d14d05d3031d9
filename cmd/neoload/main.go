package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/neoload/internal/cli"
	"github.com/vvka-141/neoload/pkg/neoload"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(neoload.ExitPanic)
		}
	}()

	if os.Getenv("NEOLOAD_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(neoload.ExitCodeForError(err))
	}
}
