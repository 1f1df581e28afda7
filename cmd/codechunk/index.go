package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dshills/codechunk/internal/config"
	"github.com/dshills/codechunk/internal/indexer"
	"github.com/dshills/codechunk/internal/storage"
)

type indexOptions struct {
	db         string
	workers    int
	include    []string
	exclude    []string
	force      bool
	noProgress bool
}

func (a *app) indexCmd() *cobra.Command {
	var opts indexOptions
	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Chunk and index a project for search",
		Long: `Chunk every supported source file under a directory and store the
chunks in the index database. Unchanged files are skipped on later runs.

Examples:
  codechunk index .
  codechunk index --exclude 'third_party/**' /path/to/project
  codechunk index --force --db /tmp/index.db .`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIndex(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.db, "db", "", "index database path")
	f.IntVarP(&opts.workers, "workers", "w", 0, "parallel workers (0 = configured or NumCPU)")
	f.StringSliceVar(&opts.include, "include", nil, "only index files matching these globs")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "skip files matching these globs")
	f.BoolVar(&opts.force, "force", false, "re-chunk every file even if unchanged")
	f.BoolVar(&opts.noProgress, "no-progress", false, "hide the progress bar")
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, args []string, opts indexOptions) error {
	root, err := projectRoot(args)
	if err != nil {
		return err
	}

	cfg := *a.cfg
	if opts.db != "" {
		cfg.Storage.Path = opts.db
	}

	engines, err := cfg.Engines()
	if err != nil {
		return err
	}
	store, err := openStorage(&cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	icfg := &indexer.Config{
		Workers:      cfg.Index.Workers,
		BatchSize:    cfg.Index.BatchSize,
		Include:      cfg.Index.Include,
		Exclude:      cfg.Index.Exclude,
		MaxFileBytes: cfg.Index.MaxFileBytes,
		Force:        opts.force,
	}
	if opts.workers > 0 {
		icfg.Workers = opts.workers
	}
	if len(opts.include) > 0 {
		icfg.Include = opts.include
	}
	if len(opts.exclude) > 0 {
		icfg.Exclude = opts.exclude
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning %s...\n", root)

	var bar *progressbar.ProgressBar
	if !opts.noProgress {
		var mu sync.Mutex
		var start time.Time
		icfg.Progress = func(done, total int) {
			mu.Lock()
			defer mu.Unlock()

			if bar == nil {
				start = time.Now()
				bar = newProgressBar(cmd, total)
			}
			_ = bar.Set(done)

			if done > 0 && done < total {
				rate := float64(done) / time.Since(start).Seconds()
				if rate > 0 {
					eta := time.Duration(float64(total-done)/rate) * time.Second
					bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] ETA: %s", formatDuration(eta)))
				}
			}
		}
	}

	stats, err := indexer.New(store, engines, a.log).IndexProject(cmd.Context(), root, icfg)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(out, "\nIndexing complete:\n")
	fmt.Fprintf(out, "  Files indexed:  %d\n", stats.FilesIndexed)
	fmt.Fprintf(out, "  Files skipped:  %d (unchanged or too large)\n", stats.FilesSkipped)
	fmt.Fprintf(out, "  Files removed:  %d\n", stats.FilesRemoved)
	fmt.Fprintf(out, "  Files failed:   %d\n", stats.FilesFailed)
	fmt.Fprintf(out, "  Chunks created: %d\n", stats.ChunksCreated)
	if stats.OversizedChunks > 0 || stats.TruncatedFiles > 0 {
		fmt.Fprintf(out, "  Oversized:      %d chunks\n", stats.OversizedChunks)
		fmt.Fprintf(out, "  Truncated:      %d files\n", stats.TruncatedFiles)
	}
	fmt.Fprintf(out, "  Duration:       %s\n", formatDuration(stats.Duration))

	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", msg)
	}
	return nil
}

func newProgressBar(cmd *cobra.Command, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// projectRoot resolves the optional path argument to an absolute directory
func projectRoot(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", abs)
	}
	return abs, nil
}

func openStorage(cfg *config.Config) (*storage.SQLiteStorage, error) {
	path, err := config.ExpandPath(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	if d < time.Minute {
		return d.Round(100 * time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
