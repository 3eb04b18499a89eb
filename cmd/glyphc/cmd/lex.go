package cmd

import (
	"fmt"
	"os"

	"github.com/glyphlang/glyphc/internal/reader"
	"github.com/spf13/cobra"
)

var showPos bool

var lexCmd = &cobra.Command{
	Use:   "lex FILE",
	Short: "Tokenize a Glyph file and print the resulting tokens",
	Long: `Tokenize (lex) a Glyph source file and print the resulting tokens,
exercising the reference lexer in internal/reader.

Examples:
  glyphc lex demo.gly
  glyphc lex --show-pos demo.gly`,
	Args: cobra.ExactArgs(1),
	RunE: runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)
	lexCmd.Flags().BoolVar(&showPos, "show-pos", false, "show token positions (line:column)")
}

func runLex(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}

	l := reader.New(string(data))
	count := 0
	for {
		tok := l.NextToken()
		printLexToken(tok)
		count++
		if tok.Kind == reader.TEOF || tok.Kind == reader.TIllegal {
			break
		}
	}

	if errs := l.Errors(); len(errs) > 0 {
		for _, msg := range errs {
			fmt.Fprintf(os.Stderr, "lex error: %s\n", msg)
		}
		return fmt.Errorf("lexing failed with %d error(s)", len(errs))
	}

	if verbose {
		fmt.Printf("--- %d token(s)\n", count)
	}
	return nil
}

func printLexToken(tok reader.Token) {
	out := fmt.Sprintf("[%-6s] %q", tok.Kind, tok.Text)
	if showPos {
		out += fmt.Sprintf(" @%d:%d", tok.Span.Start.Line, tok.Span.Start.Column)
	}
	fmt.Println(out)
}
