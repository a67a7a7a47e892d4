// Package logging implements the warn/fail diagnostic discipline used
// throughout this module: recoverable problems are reported once and
// the offending block is skipped, unrecoverable ones end the process.
package logging

import (
	"fmt"
	"os"
)

// Warn prints a diagnostic to stderr and continues. Used for anything
// the renderer can route around: an unsupported block, a size mismatch
// it can shrug off, an ignored TZX block.
func Warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// Fatal prints a diagnostic to stderr and terminates the process with a
// non-zero exit code. Reserved for I/O failures and structural errors a
// caller cannot recover from.
func Fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
