package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/brmicrodata/enemgap/internal/cli"
	"github.com/brmicrodata/enemgap/pkg/enemgap"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(enemgap.ExitPanic)
		}
	}()

	if os.Getenv("ENEMGAP_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(enemgap.ExitCodeForError(err))
	}
}
