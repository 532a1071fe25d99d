package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"memoc/internal/diag"
	"memoc/internal/hir"
	"memoc/internal/lexer"
	"memoc/internal/parser"
	"memoc/internal/source"
)

var (
	hirInput string
	hirSSA   bool
)

func init() {
	hirCmd.Flags().StringVar(&hirInput, "input", "", "source file to lower")
	hirCmd.Flags().BoolVar(&hirSSA, "ssa", false, "dump after SSA construction")
}

var hirCmd = &cobra.Command{
	Use:   "hir",
	Short: "Dump the lowered CFG of every function in a source file",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := hirInput
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

		bag := diag.NewBag(100)
		rep := diag.BagReporter{Bag: bag}
		lx := lexer.New(file, lexer.Options{Reporter: rep})
		res := parser.ParseFile(lx, parser.Options{MaxErrors: 100, Reporter: rep})
		if bag.HasErrors() {
			return errors.New("parse failed")
		}

		for _, astFn := range res.Program.Functions() {
			f, err := hir.Lower(astFn)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", astFn.Name, err)
				continue
			}
			if hirSSA {
				hir.EnterSSA(f)
				hir.EliminateRedundantPhis(f)
			}
			fmt.Print(hir.Print(f))
			fmt.Println()
		}
		return nil
	},
}
