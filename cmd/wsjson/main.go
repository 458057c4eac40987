// Command wsjson sorts, checksums, extracts from and re-streams JSON
// documents.
//
//	wsjson [--config FILE] [--verbose] <command> [flags] [FILE...]
//
// Compressed inputs (zstd, s2/snappy, lz4, gzip) are recognized from their
// first bytes and decompressed on the fly. A missing FILE or "-" reads from
// standard input.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	// Do not handle SIGPIPE, we'll do it ourselves (see error handling at the bottom of main).
	signal.Ignore(syscall.SIGPIPE)

	// Display a stack trace on panic
	defer func() {
		if e := recover(); e != nil {
			fmt.Fprintf(os.Stderr, "%s: %s", e, debug.Stack())
			os.Exit(2)
		}
	}()

	terminal := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	var stdout io.Writer = os.Stdout
	if terminal {
		stdout = colorable.NewColorableStdout()
	}
	a := &app{
		stdin:    os.Stdin,
		stdout:   stdout,
		stderr:   os.Stderr,
		terminal: terminal,
	}
	if err := a.run(os.Args[1:]); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			return
		}
		fmt.Fprintf(os.Stderr, "wsjson: %s\n", err)
		os.Exit(1)
	}
}
