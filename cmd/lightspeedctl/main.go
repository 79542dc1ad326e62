// Command lightspeedctl runs maintenance tasks against the lightspeed database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(newViper()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
