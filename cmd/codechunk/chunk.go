package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/codechunk/internal/cache"
	"github.com/dshills/codechunk/internal/chunker"
	"github.com/dshills/codechunk/internal/config"
	"github.com/dshills/codechunk/internal/output"
	"github.com/dshills/codechunk/pkg/types"
)

type chunkOptions struct {
	lang    string
	maxSize int
	minSize int
	unit    string
	format  string
	workers int
	noCache bool
	noColor bool
	content bool
}

func (a *app) chunkCmd() *cobra.Command {
	var opts chunkOptions
	cmd := &cobra.Command{
		Use:   "chunk <file>...",
		Short: "Chunk source files and print the result",
		Long: `Chunk one or more source files and print the chunks.

The language is detected from the file extension unless --lang is given.
The command exits with a non-zero status when any file cannot be chunked;
the other files are still printed.

Examples:
  codechunk chunk src/parser.cpp
  codechunk chunk --format jsonl --max-size 200 src/*.cpp
  codechunk chunk --lang cpp --unit lines include/config.h`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChunk(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.lang, "lang", "l", "", "force the language of every file")
	f.IntVar(&opts.maxSize, "max-size", 0, "maximum chunk size in the budget unit")
	f.IntVar(&opts.minSize, "min-size", 0, "merge sibling chunks below this size")
	f.StringVar(&opts.unit, "unit", "", "budget unit (tokens, lines, bytes)")
	f.StringVarP(&opts.format, "format", "f", "text", "output format (text, json, jsonl, msgpack)")
	f.IntVarP(&opts.workers, "workers", "w", 0, "parallel workers (0 = configured or NumCPU)")
	f.BoolVar(&opts.noCache, "no-cache", false, "bypass the result cache")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored text output")
	f.BoolVar(&opts.content, "content", false, "print chunk content in text output")
	return cmd
}

func (a *app) runChunk(cmd *cobra.Command, paths []string, opts chunkOptions) error {
	ctx := cmd.Context()

	cfg := *a.cfg
	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.Chunking.Language = opts.lang
	}
	if flags.Changed("max-size") {
		cfg.Chunking.MaxSize = opts.maxSize
	}
	if flags.Changed("min-size") {
		cfg.Chunking.MinSize = opts.minSize
	}
	if flags.Changed("unit") {
		cfg.Chunking.Unit = opts.unit
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	engines, err := cfg.Engines()
	if err != nil {
		return err
	}

	var resultCache *cache.Cache
	if cfg.Cache.Enabled && !opts.noCache {
		resultCache, err = openCache(&cfg)
		if err != nil {
			return err
		}
		defer resultCache.Close()
	}

	workers := opts.workers
	if workers <= 0 {
		workers = cfg.Chunking.Workers
	}

	results := make([]*types.FileResult, len(paths))
	var (
		pending []chunker.Input
		slots   []int
		keys    []string
	)
	for i, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			results[i] = &types.FileResult{Path: path, Chunks: []types.Chunk{}, Err: err.Error()}
			continue
		}

		key := ""
		if resultCache != nil {
			if engine, err := engines.ForPath(path); err == nil {
				key = cache.Key(path, src, fingerprint(engines, engine))
				if res, ok, err := resultCache.Get(key); err == nil && ok {
					results[i] = res
					continue
				}
			}
		}
		pending = append(pending, chunker.Input{Path: path, Src: src})
		slots = append(slots, i)
		keys = append(keys, key)
	}

	chunked, err := engines.ChunkFiles(ctx, pending, workers)
	if err != nil {
		return err
	}
	for j, res := range chunked {
		results[slots[j]] = res
		if resultCache == nil || keys[j] == "" || !res.OK() {
			continue
		}
		if err := resultCache.Put(keys[j], res); err != nil {
			a.log.Warn("failed to cache result", "path", res.Path, "error", err)
		}
	}

	err = output.Write(cmd.OutOrStdout(), format, results, output.Options{
		Color:   !opts.noColor && !color.NoColor,
		Content: opts.content,
	})
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
			a.log.Warn("file not chunked", "path", res.Path, "error", res.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errFailedFiles, failed, len(results))
	}
	return nil
}

// fingerprint identifies the configuration an engine chunks with
func fingerprint(engines *chunker.Engines, engine *chunker.Engine) string {
	cc := engines.Config()
	cc.Language = engine.Language()
	return cache.Fingerprint(cc)
}

func openCache(cfg *config.Config) (*cache.Cache, error) {
	path, err := config.ExpandPath(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	c, err := cache.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result cache: %w", err)
	}
	return c, nil
}
