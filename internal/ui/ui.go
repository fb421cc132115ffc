// Package ui prints the one-line status output dehydrated relays to its own
// user-facing log. Progress lines carry a " + " prefix; terminal DNS
// operations report as "<key>: success" or "<key>: failure".
package ui

import (
	"fmt"
	"io"
	"os"
)

// Out and ErrOut are swappable so tests can capture output.
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

func Progress(format string, a ...interface{}) {
	fmt.Fprintf(Out, " + "+format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	fmt.Fprintf(Out, "# INFO: "+format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	fmt.Fprintf(Out, " + WARNING: "+format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	fmt.Fprintf(ErrOut, " + ERROR: "+format+"\n", a...)
}

// Result reports the outcome of a terminal operation, e.g.
// "record_added: success".
func Result(key string, ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	fmt.Fprintf(Out, " + %s: %s\n", key, status)
}
