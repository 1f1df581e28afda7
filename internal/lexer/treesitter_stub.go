//go:build !cgo

package lexer

import (
	"fmt"

	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/pkg/types"
)

// TreeSitterAvailable reports whether this build links the tree-sitter grammars
const TreeSitterAvailable = false

func newTreeSitter(table *lang.Table) (Tokenizer, error) {
	return nil, fmt.Errorf("%w: tree-sitter tokenizer for %q requires a cgo build", types.ErrInvalidConfig, table.Name)
}
