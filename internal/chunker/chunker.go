package chunker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/internal/lexer"
	"github.com/dshills/codechunk/pkg/types"
)

const (
	// DefaultMaxSize is the default maximum chunk size
	DefaultMaxSize = 512

	// DefaultMinSize disables sibling merging by default
	DefaultMinSize = 0
)

// Config contains the chunking configuration. It is read-only once an
// Engine is built and may be shared by any number of workers.
type Config struct {
	Language  string // language name or alias; empty means detect by path
	Tokenizer string // lexer.Builtin (default) or lexer.TreeSitter
	MaxSize   int
	MinSize   int
	Unit      Unit
	// MergeAcrossKinds allows merging siblings of different kinds
	MergeAcrossKinds bool
	// DropTruncated discards chunks closed at end of file
	DropTruncated bool
}

// DefaultConfig returns the default chunking configuration
func DefaultConfig() Config {
	return Config{
		Tokenizer:        lexer.Builtin,
		MaxSize:          DefaultMaxSize,
		MinSize:          DefaultMinSize,
		Unit:             UnitTokens,
		MergeAcrossKinds: true,
	}
}

// Budget returns the size budget of the configuration
func (c Config) Budget() Budget {
	unit := c.Unit
	if unit == "" {
		unit = UnitTokens
	}
	return Budget{Max: c.MaxSize, Min: c.MinSize, Unit: unit, MergeAcrossKinds: c.MergeAcrossKinds}
}

// Fingerprint summarizes every setting that affects the chunking output.
// Results produced under equal fingerprints are interchangeable.
func (c Config) Fingerprint() string {
	b := c.Budget()
	tokenizer := c.Tokenizer
	if tokenizer == "" {
		tokenizer = lexer.Builtin
	}
	return fmt.Sprintf("%s|%s|%d|%d|%s|%t|%t", strings.ToLower(c.Language), tokenizer,
		b.Max, b.Min, b.Unit, b.MergeAcrossKinds, c.DropTruncated)
}

// Engine chunks files of a single language
type Engine struct {
	table         *lang.Table
	tokenizer     lexer.Tokenizer
	budget        Budget
	dropTruncated bool
}

// New builds an engine for cfg.Language. An unknown language or an invalid
// budget fails here, before any file is read.
func New(cfg Config, reg *lang.Registry) (*Engine, error) {
	if reg == nil {
		reg = lang.Builtin()
	}
	budget := cfg.Budget()
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	table, err := reg.Lookup(cfg.Language)
	if err != nil {
		return nil, err
	}
	tok, err := lexer.New(cfg.Tokenizer, table)
	if err != nil {
		return nil, err
	}
	return &Engine{table: table, tokenizer: tok, budget: budget, dropTruncated: cfg.DropTruncated}, nil
}

// Language returns the canonical name of the engine's language
func (e *Engine) Language() string {
	return e.table.Name
}

// Chunk tokenizes and chunks one file
func (e *Engine) Chunk(ctx context.Context, path string, src []byte) (*types.FileResult, error) {
	toks, err := e.tokenizer.Tokenize(ctx, src)
	if err != nil {
		return e.failed(path, err), fmt.Errorf("tokenize %s: %w", path, err)
	}
	return e.ChunkTokens(ctx, path, src, toks)
}

// ChunkTokens chunks one file from an externally produced token stream.
// Malformed nesting fails the file: the result carries the diagnostic and
// the error is returned as well.
func (e *Engine) ChunkTokens(ctx context.Context, path string, src []byte, toks []types.Token) (*types.FileResult, error) {
	stream, err := Normalize(src, toks, e.table)
	if err != nil {
		return e.failed(path, err), fmt.Errorf("%s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := Build(Scan(stream, e.table))
	if err != nil {
		return e.failed(path, err), fmt.Errorf("%s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	drafts := balance(tree, Extract(tree, stream), stream, e.table, e.budget)
	if e.dropTruncated {
		kept := drafts[:0]
		for _, d := range drafts {
			if !d.truncated {
				kept = append(kept, d)
			}
		}
		drafts = kept
	}
	chunks, err := emit(path, stream, drafts, !e.dropTruncated)
	if err != nil {
		return e.failed(path, err), err
	}

	res := &types.FileResult{Path: path, Language: e.table.Name, Chunks: chunks}
	res.Flags.Repaired = stream.Repaired
	for _, b := range tree.Nodes {
		if b.Boundary.Truncated() {
			res.Flags.Truncated = true
		}
	}
	for _, c := range chunks {
		if c.Flags.Oversized {
			res.Flags.Oversized++
		}
	}
	return res, nil
}

func (e *Engine) failed(path string, err error) *types.FileResult {
	return &types.FileResult{Path: path, Language: e.table.Name, Chunks: []types.Chunk{}, Err: err.Error()}
}

// Engines lazily builds one Engine per language from a shared configuration
type Engines struct {
	cfg Config
	reg *lang.Registry

	mu      sync.Mutex
	engines map[string]*Engine
}

// NewEngines validates cfg and returns an engine set. When cfg.Language is
// set every file uses that language, and an unknown name fails here.
func NewEngines(cfg Config, reg *lang.Registry) (*Engines, error) {
	if reg == nil {
		reg = lang.Builtin()
	}
	if err := cfg.Budget().Validate(); err != nil {
		return nil, err
	}
	es := &Engines{cfg: cfg, reg: reg, engines: make(map[string]*Engine)}
	if cfg.Language != "" {
		if _, err := es.ForLanguage(cfg.Language); err != nil {
			return nil, err
		}
	}
	return es, nil
}

// Config returns the shared chunking configuration
func (es *Engines) Config() Config {
	return es.cfg
}

// Registry returns the language registry backing the engines
func (es *Engines) Registry() *lang.Registry {
	return es.reg
}

// ForLanguage returns the engine for a language name or alias
func (es *Engines) ForLanguage(name string) (*Engine, error) {
	table, err := es.reg.Lookup(name)
	if err != nil {
		return nil, err
	}

	es.mu.Lock()
	defer es.mu.Unlock()
	if e, ok := es.engines[table.Name]; ok {
		return e, nil
	}
	cfg := es.cfg
	cfg.Language = table.Name
	e, err := New(cfg, es.reg)
	if err != nil {
		return nil, err
	}
	es.engines[table.Name] = e
	return e, nil
}

// ForPath returns the engine for a file, using the configured language or
// detecting it from the file extension
func (es *Engines) ForPath(path string) (*Engine, error) {
	if es.cfg.Language != "" {
		return es.ForLanguage(es.cfg.Language)
	}
	table, ok := es.reg.DetectByPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: cannot detect language of %s", types.ErrUnknownLanguage, path)
	}
	return es.ForLanguage(table.Name)
}

// Input is one file to chunk
type Input struct {
	Path     string
	Src      []byte
	Language string // optional override of detection
}

// ChunkFiles chunks files concurrently with at most workers goroutines.
// Results are returned in input order. Per-file failures are reported in
// the FileResult; only cancellation aborts the run.
func (es *Engines) ChunkFiles(ctx context.Context, inputs []Input, workers int) ([]*types.FileResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]*types.FileResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := es.chunkOne(gctx, in)
			if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (es *Engines) chunkOne(ctx context.Context, in Input) (*types.FileResult, error) {
	var e *Engine
	var err error
	if in.Language != "" {
		e, err = es.ForLanguage(in.Language)
	} else {
		e, err = es.ForPath(in.Path)
	}
	if err != nil {
		return &types.FileResult{Path: in.Path, Chunks: []types.Chunk{}, Err: err.Error()}, err
	}
	res, err := e.Chunk(ctx, in.Path, in.Src)
	if res == nil {
		res = e.failed(in.Path, err)
	}
	return res, err
}
