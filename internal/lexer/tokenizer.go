package lexer

import (
	"context"
	"fmt"

	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/pkg/types"
)

// Tokenizer names accepted by New
const (
	Builtin    = "builtin"
	TreeSitter = "treesitter"
)

// Tokenizer turns source bytes into a gapless token stream
type Tokenizer interface {
	Name() string
	Tokenize(ctx context.Context, src []byte) ([]types.Token, error)
}

// New returns the named tokenizer for a language table
func New(name string, table *lang.Table) (Tokenizer, error) {
	switch name {
	case "", Builtin:
		return NewLexer(table), nil
	case TreeSitter:
		return newTreeSitter(table)
	default:
		return nil, fmt.Errorf("%w: unknown tokenizer %q", types.ErrInvalidConfig, name)
	}
}
