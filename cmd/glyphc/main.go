// Command glyphc is the Glyph compiler's command-line front end.
package main

import (
	"fmt"
	"os"

	"github.com/glyphlang/glyphc/cmd/glyphc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
