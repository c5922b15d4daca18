// Command scieval runs the classifier evaluation helpers from the command
// line against a CSV dataset or a synthetic one.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "scieval: %v\n", err)
		os.Exit(1)
	}
}
