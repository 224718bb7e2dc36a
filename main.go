// Command highway maintains an index of service stations along a highway and
// plans forward routes between them. It reads one command per line from
// standard input and writes one response line per command to standard output.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
