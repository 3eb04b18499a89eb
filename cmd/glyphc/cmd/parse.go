package cmd

import (
	"fmt"
	"os"

	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/reader"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Parse a Glyph file and print the resulting node tree",
	Long: `Parse a Glyph source file into its S-expression node tree and print
it, exercising the reference reader in internal/reader. Every top-level
form (module, import, def, ...) is printed as one subtree.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}

	forms, errs := reader.Parse(string(data))
	for i, f := range forms {
		fmt.Printf("form %d:\n", i)
		dumpNode(f, 1)
	}

	if len(errs) > 0 {
		for _, msg := range errs {
			fmt.Fprintf(os.Stderr, "parse error: %s\n", msg)
		}
		return fmt.Errorf("parsing failed with %d error(s)", len(errs))
	}
	return nil
}

func dumpNode(n *node.Node, indent int) {
	pad := ""
	for i := 0; i < indent; i++ {
		pad += "  "
	}
	if n.IsToken() {
		fmt.Printf("%s%s %q\n", pad, n.TokenKind, n.Text)
		return
	}
	fmt.Printf("%s(\n", pad)
	for _, c := range n.Children {
		dumpNode(c, indent+1)
	}
	fmt.Printf("%s)\n", pad)
}
