// Command enrollctl drives the enrollment API from a terminal.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "enrollctl:", err)
		os.Exit(1)
	}
}
