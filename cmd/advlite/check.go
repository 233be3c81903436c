package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/murenne/ADVLite/internal/config"
	"github.com/murenne/ADVLite/internal/scripting"
	"golang.org/x/sync/errgroup"
)

// runCheck compiles every .lua file under the script directory and reports
// each one that fails.
func runCheck(ctx context.Context, cfg *config.Config) error {
	printBanner("", 0)
	printSection("scripts")

	files, err := luaFiles(cfg.Script.Dir)
	if err != nil {
		return err
	}

	failures, err := compileAll(ctx, files)
	if err != nil {
		return err
	}
	printStat("scripts", len(files))
	for _, f := range failures {
		printFail(f.Error())
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d scripts failed to compile", len(failures), len(files))
	}
	printOK("all scripts compile")
	return nil
}

func luaFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".lua" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	slices.Sort(files)
	return files, nil
}

// compileAll compiles files in parallel. The returned slice holds one
// error per broken file in file order; the error reports cancellation.
func compileAll(ctx context.Context, files []string) ([]error, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	errs := make([]error, len(files))
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			errs[i] = scripting.CompileFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.DeleteFunc(errs, func(err error) bool { return err == nil }), nil
}
