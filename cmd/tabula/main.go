// Command tabula inspects, retypes and aggregates tabular files from the
// command line. Every command prints JSON on stdout; logs go to stderr.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
