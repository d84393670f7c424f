// Command pantryctl inspects and edits pantries directly against the database.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(openEnvironment).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
