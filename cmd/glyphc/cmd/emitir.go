package cmd

import (
	"fmt"
	"os"

	"github.com/glyphlang/glyphc/internal/driver"
	"github.com/glyphlang/glyphc/internal/ir/llvmbuilder"
	"github.com/spf13/cobra"
)

var emitIRCmd = &cobra.Command{
	Use:   "emit-ir FILE",
	Short: "Print the textual LLVM IR produced for a Glyph file",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmitIR,
}

func init() {
	rootCmd.AddCommand(emitIRCmd)
}

func runEmitIR(_ *cobra.Command, args []string) error {
	d := driver.New(llvmbuilder.New())
	d.SearchPaths = searchPathFlag
	d.CompileFile(args[0])

	if errs := d.Sess.Reporter.Errors(); len(errs) > 0 {
		fmt.Fprint(os.Stderr, d.Sess.Reporter.Format(args[0], readAllOrEmpty(args[0])))
		fmt.Fprintf(os.Stderr, "\ncompilation reported %d error(s)\n", len(errs))
	}

	text, err := d.Sess.Builder.EmitIR()
	if err != nil {
		return fmt.Errorf("emitting IR: %w", err)
	}
	fmt.Println(text)
	return nil
}
