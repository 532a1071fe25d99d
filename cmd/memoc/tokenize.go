package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"memoc/internal/lexer"
	"memoc/internal/source"
	"memoc/internal/token"
)

var tokenizeInput string

func init() {
	tokenizeCmd.Flags().StringVar(&tokenizeInput, "input", "", "source file to tokenize")
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize",
	Short: "Dump the token stream of a source file",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := tokenizeInput
		if input == "" && len(args) == 1 {
			input = args[0]
		}
		if input == "" {
			return errors.New("missing --input <path>")
		}

		fs := source.NewFileSet()
		file, err := fs.Load(input)
		if err != nil {
			return err
		}
		lx := lexer.New(file, lexer.Options{})
		for {
			tok := lx.Next()
			if tok.Kind == token.EOF {
				break
			}
			fmt.Printf("%-16s %-12s %q\n", tok.Kind, tok.Span, tok.Text)
		}
		return nil
	},
}
