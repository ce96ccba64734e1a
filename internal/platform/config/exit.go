package config

import (
	"fmt"
	"io"
	"os"
)

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Fatal reports err on stderr prefixed with the program name and exits
// with status 1.
func Fatal(program string, err error) {
	fmt.Fprintf(stderr, "%s: %v\n", program, err)
	exit(1)
}
