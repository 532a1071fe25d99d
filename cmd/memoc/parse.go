package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"memoc/internal/diag"
	"memoc/internal/diagfmt"
	"memoc/internal/lexer"
	"memoc/internal/parser"
	"memoc/internal/source"
)

var parseInput string

func init() {
	parseCmd.Flags().StringVar(&parseInput, "input", "", "source file to parse")
}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a source file and report its top-level functions",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := parseInput
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

		maxDiags, _ := cmd.Flags().GetInt("max-diagnostics")
		bag := diag.NewBag(maxDiags)
		rep := diag.BagReporter{Bag: bag}
		lx := lexer.New(file, lexer.Options{Reporter: rep})
		res := parser.ParseFile(lx, parser.Options{MaxErrors: uint(maxDiags), Reporter: rep})

		if bag.HasErrors() {
			bag.Sort()
			diagfmt.Render(os.Stderr, fs, bag, diagfmt.Options{Color: useColor(cmd), Context: true})
			os.Exit(1)
		}

		for _, fn := range res.Program.Functions() {
			fmt.Printf("function %s (%d params, %d statements)\n", fn.Name, len(fn.Params), len(fn.Body))
		}
		return nil
	},
}
