package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// verbose is shared by every subcommand via rootCmd's persistent flag.
var verbose bool

// searchPathFlag collects `-I` import directories (spec §6 import
// resolution order: current directory, then these, then the install-time
// default).
var searchPathFlag []string

var rootCmd = &cobra.Command{
	Use:   "glyphc",
	Short: "Glyph compiler",
	Long: `glyphc is the compiler for Glyph, a small S-expression-based
systems language with compile-time macros.

Glyph programs are built from a handful of file-level forms — module,
import, include, once, namespace, using-namespace, def, do — described in
full in this repository's specification. glyphc turns a tree of .gly
files into LLVM IR (and, via its backend, object code), emitting a .dtm
module summary for anything other than the main module so other files can
import it without recompiling it from source.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringArrayVarP(&searchPathFlag, "include", "I", nil, "additional import search directory (repeatable)")
}
