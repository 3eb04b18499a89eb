package cmd

import (
	"fmt"
	"os"

	"github.com/glyphlang/glyphc/internal/driver"
	"github.com/glyphlang/glyphc/internal/ir/llvmbuilder"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Build a Glyph file and JIT-execute its main function",
	Long: `Build a .gly file and hand its compiled "main" function to the
backend's JIT engine. The driver only orchestrates this handoff — the JIT
engine itself is an external collaborator (see this repository's design
notes); the backends this module ships do not implement one, so this
command reports that honestly rather than pretending to execute anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(_ *cobra.Command, args []string) error {
	d := driver.New(llvmbuilder.New())
	d.SearchPaths = searchPathFlag
	d.CompileFile(args[0])

	if errs := d.Sess.Reporter.Errors(); len(errs) > 0 {
		fmt.Fprint(os.Stderr, d.Sess.Reporter.Format(args[0], readAllOrEmpty(args[0])))
		fmt.Fprintf(os.Stderr, "\ncompilation reported %d error(s)\n", len(errs))
	}

	fn, _ := d.Sess.Ctx.GetFunction("main", nil, nil)
	if fn == nil {
		return fmt.Errorf("%s defines no 'main' function", args[0])
	}

	if _, err := d.Sess.Builder.JITCompile(fn.Handle); err != nil {
		return fmt.Errorf("running %s: %w", args[0], err)
	}
	return nil
}
