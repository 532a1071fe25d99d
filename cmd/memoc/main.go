package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"memoc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "memoc",
	Short: "Memoizing compiler for declarative UI functions",
	Long:  `memoc rewrites UI functions so re-invocations with unchanged inputs reuse cached results`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// `memoc --input file.js` behaves like `memoc compile --input`.
		input, _ := cmd.Flags().GetString("input")
		if input != "" {
			return runCompile(cmd, input)
		}
		return cmd.Help()
	},
}

func main() {
	rootCmd.Version = version.Version
	rootCmd.Flags().String("input", "", "source file to compile")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(hirCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color tri-state against the output terminal.
func useColor(cmd *cobra.Command) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stderr)
	}
}
