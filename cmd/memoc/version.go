package main

import (
	"os"

	"github.com/spf13/cobra"

	"memoc/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the compiler version",
	Run: func(cmd *cobra.Command, args []string) {
		version.Banner(os.Stdout, useColor(cmd))
	},
}
