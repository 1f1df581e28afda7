//go:build cgo

package lexer

import (
	"context"
	"fmt"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/pkg/types"
)

// TreeSitterAvailable reports whether this build links the tree-sitter grammars
const TreeSitterAvailable = true

func grammar(name string) *sitter.Language {
	switch name {
	case "c":
		return c.GetLanguage()
	case "cpp":
		return cpp.GetLanguage()
	case "csharp":
		return csharp.GetLanguage()
	case "go":
		return golang.GetLanguage()
	case "java":
		return java.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "rust":
		return rust.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	default:
		return nil
	}
}

// treeSitterTokenizer flattens the leaves of a tree-sitter syntax tree into
// a token stream. Literals and comments stay atomic; gaps between leaves are
// filled with whitespace or other tokens.
type treeSitterTokenizer struct {
	table    *lang.Table
	language *sitter.Language
}

func newTreeSitter(table *lang.Table) (Tokenizer, error) {
	language := grammar(table.Name)
	if language == nil {
		return nil, fmt.Errorf("%w: no tree-sitter grammar for %q", types.ErrInvalidConfig, table.Name)
	}
	return &treeSitterTokenizer{table: table, language: language}, nil
}

func (t *treeSitterTokenizer) Name() string {
	return TreeSitter
}

func (t *treeSitterTokenizer) Tokenize(ctx context.Context, src []byte) ([]types.Token, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(t.language)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	f := &flattener{table: t.table, src: src, line: 1}
	if err := f.walk(tree.RootNode()); err != nil {
		return nil, err
	}
	f.fill(len(src))
	return f.tokens, nil
}

type flattener struct {
	table  *lang.Table
	src    []byte
	pos    int
	line   int
	tokens []types.Token
}

// atomic reports whether a node is emitted as one token without descending
func atomic(n *sitter.Node) bool {
	typ := n.Type()
	switch {
	case strings.Contains(typ, "comment"):
		return true
	case strings.Contains(typ, "string") || strings.Contains(typ, "char_literal") || typ == "rune_literal":
		return true
	case strings.HasSuffix(typ, "number_literal") || strings.HasSuffix(typ, "_literal") && strings.Contains(typ, "int"):
		return true
	case typ == "preproc_include" || typ == "preproc_def" || typ == "preproc_function_def" || typ == "preproc_call":
		return true
	}
	return false
}

func (f *flattener) walk(n *sitter.Node) error {
	if n == nil {
		return nil
	}
	if n.ChildCount() == 0 || atomic(n) {
		start, err := safecast.Conv[int](n.StartByte())
		if err != nil {
			return fmt.Errorf("node start offset: %w", err)
		}
		end, err := safecast.Conv[int](n.EndByte())
		if err != nil {
			return fmt.Errorf("node end offset: %w", err)
		}
		if start < f.pos || end <= start {
			return nil
		}
		f.fill(start)
		f.emit(f.classify(n), end)
		return nil
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if err := f.walk(n.Child(i)); err != nil {
			return err
		}
	}
	return nil
}

func (f *flattener) classify(n *sitter.Node) types.TokenKind {
	typ := n.Type()
	text := string(f.src[n.StartByte():n.EndByte()])
	switch {
	case strings.Contains(typ, "comment"):
		return types.TokenComment
	case strings.HasPrefix(typ, "preproc") || strings.HasPrefix(typ, "#"):
		return types.TokenPreprocessor
	case strings.Contains(typ, "string") || strings.Contains(typ, "char_literal") || typ == "rune_literal":
		return types.TokenString
	case strings.Contains(typ, "number") || strings.HasSuffix(typ, "int_literal") || strings.HasSuffix(typ, "float_literal"):
		return types.TokenNumber
	case f.table.IsKeyword(text) || typ == "primitive_type":
		return types.TokenKeyword
	case strings.HasSuffix(typ, "identifier") || typ == "identifier":
		return types.TokenIdent
	case !n.IsNamed():
		return types.TokenPunct
	}
	return types.TokenOther
}

// fill covers src[pos:end] with whitespace and other tokens
func (f *flattener) fill(end int) {
	for f.pos < end {
		i := f.pos
		if isSpace(f.src[i]) {
			for i < end && isSpace(f.src[i]) {
				i++
			}
			f.emit(types.TokenWhitespace, i)
			continue
		}
		for i < end && !isSpace(f.src[i]) {
			i++
		}
		f.emit(types.TokenOther, i)
	}
}

func (f *flattener) emit(kind types.TokenKind, end int) {
	text := string(f.src[f.pos:end])
	f.tokens = append(f.tokens, types.Token{Kind: kind, Text: text, Start: f.pos, End: end, Line: f.line})
	f.line += strings.Count(text, "\n")
	f.pos = end
}
