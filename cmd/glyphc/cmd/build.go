package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glyphlang/glyphc/internal/driver"
	"github.com/glyphlang/glyphc/internal/ir/llvmbuilder"
	"github.com/spf13/cobra"
)

var buildOutput string

var buildCmd = &cobra.Command{
	Use:   "build FILE...",
	Short: "Compile one or more Glyph files",
	Long: `Compile one or more .gly files into a single LLVM bitcode file (no
-nomacros.bc variant is written). When the module name set by the last
(module NAME) form is non-empty and not "main", one .dtm module summary
named after that module is also written.

Errors reported during compilation are printed with source context; per
spec's exit-code policy, a non-zero exit from this command means the
driver itself aborted (e.g. a file could not be read), not that the
compiled program had compile errors — those are inspected in the
reported error stream.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (default: <first input>.bc)")
}

func runBuild(_ *cobra.Command, args []string) error {
	d := driver.New(llvmbuilder.New())
	d.SearchPaths = searchPathFlag

	for _, file := range args {
		if verbose {
			fmt.Fprintf(os.Stderr, "compiling %s...\n", file)
		}
		d.CompileFile(file)
	}

	if errs := d.Sess.Reporter.Errors(); len(errs) > 0 {
		src := readAllOrEmpty(args[0])
		fmt.Fprint(os.Stderr, d.Sess.Reporter.Format(args[0], src))
		fmt.Fprintf(os.Stderr, "\ncompilation reported %d error(s)\n", len(errs))
	}

	bc, err := d.Sess.Builder.EmitBitcode()
	if err != nil {
		return fmt.Errorf("emitting bitcode: %w", err)
	}

	out := buildOutput
	if out == "" {
		ext := filepath.Ext(args[0])
		base := strings.TrimSuffix(filepath.Base(args[0]), ext)
		out = base + ".bc"
	}
	if err := os.WriteFile(out, bc, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	if d.Sess.ModuleName != "" && d.Sess.ModuleName != "main" {
		mod := d.SnapshotDTM()
		if err := driver.WriteDTM(d.Sess.ModuleName, mod); err != nil {
			return fmt.Errorf("writing .dtm for %s: %w", d.Sess.ModuleName, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "wrote %s (module summary)\n", d.Sess.ModuleName)
		}
	}

	fmt.Printf("built %s -> %s\n", strings.Join(args, ", "), out)
	return nil
}

func readAllOrEmpty(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}
