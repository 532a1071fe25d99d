package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"memoc/internal/diagfmt"
	"memoc/internal/driver"
	"memoc/internal/project"
	"memoc/internal/source"
)

var (
	compileInput       string
	compileFileType    string
	compilePassThrough bool
	compileNoCache     bool
)

func init() {
	compileCmd.Flags().StringVar(&compileInput, "input", "", "source file to compile")
	compileCmd.Flags().StringVar(&compileFileType, "file-type", "", "parser dialect (js|jsx|ts|tsx), default from extension")
	compileCmd.Flags().BoolVar(&compilePassThrough, "pass-through", false, "emit the original source on unsupported syntax")
	compileCmd.Flags().BoolVar(&compileNoCache, "no-cache", false, "bypass the on-disk result cache")
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a source file and write the transformed source to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := compileInput
		if input == "" && len(args) == 1 {
			input = args[0]
		}
		if input == "" {
			return errors.New("missing --input <path>")
		}
		return runCompile(cmd, input)
	},
}

// fileTypeOf derives the dialect from an extension.
func fileTypeOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsx":
		return "jsx"
	case ".ts":
		return "ts"
	case ".tsx":
		return "tsx"
	default:
		return "js"
	}
}

func runCompile(cmd *cobra.Command, input string) error {
	manifest, err := project.Find(filepath.Dir(input))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		manifest = project.Default()
	}

	fileType := compileFileType
	if fileType == "" {
		fileType = fileTypeOf(input)
	}
	if fileType == "js" && manifest.Dialect != "" {
		fileType = manifest.Dialect
	}
	maxDiags, _ := cmd.Flags().GetInt("max-diagnostics")

	fs := source.NewFileSet()
	file, err := fs.Load(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var cache *driver.DiskCache
	if manifest.Cache && !compileNoCache {
		cache, err = driver.OpenDiskCache("memoc")
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: disk cache unavailable: %v\n", err)
		}
	}
	key := driver.Key(string(file.Content), fileType)
	if cache != nil {
		if hit, err := cache.Get(key); err == nil && hit != nil {
			fmt.Print(hit.Code)
			return nil
		}
	}

	opts := driver.Options{
		FileType:       fileType,
		PassThrough:    compilePassThrough || manifest.PassThrough,
		MaxDiagnostics: maxDiags,
	}
	res, cerr := driver.CompileSource(fs, file, opts)
	if cerr != nil {
		reportCompileError(cmd, fs, res, cerr)
		var derr *driver.Error
		if opts.PassThrough && errors.As(cerr, &derr) && derr.Kind == driver.KindUnsupportedSyntax {
			fmt.Print(string(file.Content))
		}
		os.Exit(1)
	}

	if cache != nil {
		if err := cache.Put(key, &driver.DiskPayload{FileType: fileType, Code: res.Code}); err != nil {
			fmt.Fprintf(os.Stderr, "warning: disk cache write failed: %v\n", err)
		}
	}
	fmt.Print(res.Code)
	return nil
}

func reportCompileError(cmd *cobra.Command, fs *source.FileSet, res *driver.Result, cerr error) {
	quiet, _ := cmd.Flags().GetBool("quiet")
	colorize := useColor(cmd)

	var derr *driver.Error
	if errors.As(cerr, &derr) {
		fmt.Fprintln(os.Stderr, derr.Format(fs))
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", cerr)
	}
	if quiet || res == nil || res.Bag == nil {
		return
	}
	res.Bag.Sort()
	res.Bag.Dedup()
	diagfmt.Render(os.Stderr, fs, res.Bag, diagfmt.Options{Color: colorize, Context: true})
}
