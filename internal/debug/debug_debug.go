//go:build debug

// Package debug traces internals when built with the debug tag.
package debug

import (
	"fmt"
	"log"
	"os"
)

var logger = log.New(os.Stderr, "wsjson debug: ", log.Lmicroseconds|log.Lshortfile)

// Printf logs a trace line.
func Printf(msg string, args ...any) {
	logger.Output(2, fmt.Sprintf(msg, args...))
}

// On is true in debug builds.
const On = true
