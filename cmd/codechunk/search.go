package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/codechunk/internal/searcher"
	"github.com/dshills/codechunk/internal/storage"
	"github.com/dshills/codechunk/pkg/types"
)

type searchOptions struct {
	db      string
	root    string
	kinds   []string
	scope   string
	file    string
	limit   int
	json    bool
	content bool
}

func (a *app) searchCmd() *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed chunks",
		Long: `Run a keyword search over the chunks of an indexed project.

Examples:
  codechunk search "parse header"
  codechunk search --kind function --scope net::http "read body"
  codechunk search --file 'src/**/*.cpp' --limit 5 allocator`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.db, "db", "", "index database path")
	f.StringVarP(&opts.root, "root", "r", ".", "indexed project directory")
	f.StringSliceVarP(&opts.kinds, "kind", "k", nil, "only return chunks of these kinds")
	f.StringVar(&opts.scope, "scope", "", "only return chunks under this scope (e.g. net::http)")
	f.StringVar(&opts.file, "file", "", "only return chunks of files matching this glob")
	f.IntVarP(&opts.limit, "limit", "n", 0, "maximum number of results")
	f.BoolVar(&opts.json, "json", false, "print results as JSON")
	f.BoolVar(&opts.content, "content", false, "print chunk content")
	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	ctx := cmd.Context()

	root, err := projectRoot([]string{opts.root})
	if err != nil {
		return err
	}

	filters := &storage.SearchFilters{
		ScopePrefix: opts.scope,
		FilePattern: opts.file,
	}
	for _, k := range opts.kinds {
		kind, err := types.ParseDeclKind(k)
		if err != nil {
			return err
		}
		filters.Kinds = append(filters.Kinds, kind)
	}

	limit := opts.limit
	if limit <= 0 {
		limit = a.cfg.Search.DefaultLimit
	}
	if limit > searcher.MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", searcher.MaxLimit)
	}

	cfg := *a.cfg
	if opts.db != "" {
		cfg.Storage.Path = opts.db
	}
	store, err := openStorage(&cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	project, err := store.GetProject(ctx, root)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s is not indexed; run 'codechunk index' first", root)
	}
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	resp, err := searcher.NewSearcher(store, 1).Search(ctx, searcher.SearchRequest{
		Query:     query,
		Limit:     limit,
		Filters:   filters,
		ProjectID: project.ID,
	})
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return writeSearchText(cmd.OutOrStdout(), resp, opts.content)
}

func writeSearchText(w io.Writer, resp *searcher.SearchResponse, content bool) error {
	path := color.New(color.Bold)
	kind := color.New(color.FgCyan)
	dim := color.New(color.Faint)

	if len(resp.Results) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}

	var b strings.Builder
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "%2d. %s:%d-%d %s", r.Rank, path.Sprint(r.File.Path), r.File.StartLine, r.File.EndLine, kind.Sprint(r.Kind))
		if len(r.ScopePath) > 0 {
			b.WriteString(" " + strings.Join(r.ScopePath, "::"))
		}
		fmt.Fprintf(&b, " %s\n", dim.Sprintf("score=%.3f", r.RelevanceScore))
		if r.Signature != "" {
			b.WriteString("    " + dim.Sprint(r.Signature) + "\n")
		}
		if content {
			for _, line := range strings.Split(strings.TrimRight(r.Content, "\n"), "\n") {
				b.WriteString("    | " + line + "\n")
			}
		}
	}
	fmt.Fprintf(&b, "%d results in %s\n", resp.TotalResults, resp.Duration.Round(time.Microsecond))
	_, err := io.WriteString(w, b.String())
	return err
}
