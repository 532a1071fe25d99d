package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"memoc/internal/source"
)

// DirResult is the compilation outcome of one file in a directory run.
type DirResult struct {
	Path string
	Code string
	Err  error
}

// listSourceFiles returns the sorted *.js/*.jsx files under dir.
func listSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".jsx"):
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CompileDir compiles every source file under dir in parallel. Each file
// compiles in isolation; a failing file does not abort the others.
func CompileDir(ctx context.Context, dir string, opts Options, jobs int) (*source.FileSet, []DirResult, error) {
	files, err := listSourceFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	fileSet := source.NewFileSet()
	loaded := make([]*source.File, len(files))
	for i, path := range files {
		f, err := fileSet.Load(path)
		if err != nil {
			return nil, nil, err
		}
		loaded[i] = f
	}

	results := make([]DirResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, cerr := CompileSource(fileSet, loaded[i], opts)
			results[i] = DirResult{Path: path, Err: cerr}
			if res != nil {
				results[i].Code = res.Code
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}
