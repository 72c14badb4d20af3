// dlgtool inspects and edits conversation files from the command line:
// counts and word totals, structural validation, orphan pruning, a YAML
// text form for diffing, and a scripted walk for previewing a dialog
// without the game.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
