package lexer

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/pkg/types"
)

// operators are matched longest first
var operators = func() []string {
	ops := []string{
		"<<=", ">>=", "...", "->*", "<=>", "===", "!==", "**=", "&&=", "||=", "??=", ">>>",
		"::", "->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
		"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "=>", ":=", "??", "?.",
		".*", "**", "<-", "..",
	}
	sort.SliceStable(ops, func(i, j int) bool { return len(ops[i]) > len(ops[j]) })
	return ops
}()

// rawPrefixes introduce C++ raw string literals
var rawPrefixes = map[string]bool{"R": true, "LR": true, "uR": true, "UR": true, "u8R": true}

const ctxCheckInterval = 4096

// Lexer is a table-driven tokenizer for brace-delimited languages. It
// produces a gapless stream: every byte of the input belongs to a token.
type Lexer struct {
	table *lang.Table
}

// NewLexer creates a lexer for the given language table
func NewLexer(table *lang.Table) *Lexer {
	return &Lexer{table: table}
}

// Name identifies the tokenizer
func (l *Lexer) Name() string {
	return "builtin"
}

// Tokenize splits src into tokens
func (l *Lexer) Tokenize(ctx context.Context, src []byte) ([]types.Token, error) {
	s := &scanState{
		table:       l.table,
		src:         src,
		line:        1,
		atLineStart: true,
		tokens:      make([]types.Token, 0, len(src)/4+1),
	}

	for s.pos < len(src) {
		if len(s.tokens)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		s.next()
	}
	return s.tokens, nil
}

type scanState struct {
	table       *lang.Table
	src         []byte
	pos         int
	line        int
	atLineStart bool
	tokens      []types.Token
}

func (s *scanState) emit(kind types.TokenKind, end int) {
	text := string(s.src[s.pos:end])
	s.tokens = append(s.tokens, types.Token{
		Kind:  kind,
		Text:  text,
		Start: s.pos,
		End:   end,
		Line:  s.line,
	})
	newlines := strings.Count(text, "\n")
	s.line += newlines
	if kind == types.TokenWhitespace {
		if newlines > 0 {
			s.atLineStart = true
		}
	} else {
		s.atLineStart = false
	}
	s.pos = end
}

func (s *scanState) hasPrefix(p string) bool {
	return p != "" && bytes.HasPrefix(s.src[s.pos:], []byte(p))
}

func (s *scanState) next() {
	c := s.src[s.pos]

	switch {
	case isSpace(c):
		end := s.pos
		for end < len(s.src) && isSpace(s.src[end]) {
			end++
		}
		s.emit(types.TokenWhitespace, end)
		return
	case c == '#' && s.table.Preprocessor && s.atLineStart:
		s.emit(types.TokenPreprocessor, s.directiveEnd())
		return
	}

	for _, lc := range s.table.LineComments {
		if s.hasPrefix(lc) {
			s.emit(types.TokenComment, s.lineEnd(s.pos))
			return
		}
	}
	for _, bc := range s.table.BlockComments {
		if s.hasPrefix(bc.Open) {
			end := len(s.src)
			if i := bytes.Index(s.src[s.pos+len(bc.Open):], []byte(bc.Close)); i >= 0 {
				end = s.pos + len(bc.Open) + i + len(bc.Close)
			}
			s.emit(types.TokenComment, end)
			return
		}
	}
	for _, d := range s.table.RawStringDelims {
		if s.hasPrefix(d) {
			end := len(s.src)
			if i := bytes.Index(s.src[s.pos+len(d):], []byte(d)); i >= 0 {
				end = s.pos + len(d) + i + len(d)
			}
			s.emit(types.TokenString, end)
			return
		}
	}
	for _, d := range s.table.StringDelims {
		if s.hasPrefix(d) {
			if d == "'" && s.table.Lifetimes && !s.isCharLiteral() {
				s.emit(types.TokenPunct, s.pos+1)
				return
			}
			s.emit(types.TokenString, s.stringEnd(d))
			return
		}
	}

	switch {
	case isDigit(c) || (c == '.' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1])):
		s.emit(types.TokenNumber, s.numberEnd())
	case isIdentStart(s.src[s.pos:]):
		end := s.identEnd()
		word := string(s.src[s.pos:end])
		if s.table.PrefixedRawStrings && rawPrefixes[word] && end < len(s.src) && s.src[end] == '"' {
			s.emit(types.TokenString, s.rawStringEnd(end))
			return
		}
		kind := types.TokenIdent
		if s.table.IsKeyword(word) {
			kind = types.TokenKeyword
		}
		s.emit(kind, end)
	default:
		for _, op := range operators {
			if s.hasPrefix(op) {
				s.emit(types.TokenPunct, s.pos+len(op))
				return
			}
		}
		r, size := utf8.DecodeRune(s.src[s.pos:])
		kind := types.TokenPunct
		if r == utf8.RuneError || !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			kind = types.TokenOther
		}
		s.emit(kind, s.pos+size)
	}
}

// lineEnd returns the offset of the next newline at or after from, or EOF
func (s *scanState) lineEnd(from int) int {
	if i := bytes.IndexByte(s.src[from:], '\n'); i >= 0 {
		end := from + i
		if end > from && s.src[end-1] == '\r' {
			end--
		}
		return end
	}
	return len(s.src)
}

// directiveEnd follows backslash continuations of a preprocessor line
func (s *scanState) directiveEnd() int {
	end := s.pos
	for {
		end = s.lineEnd(end)
		if end >= len(s.src) {
			return end
		}
		j := end - 1
		for j > s.pos && (s.src[j] == ' ' || s.src[j] == '\t') {
			j--
		}
		if s.src[j] != '\\' {
			return end
		}
		if s.src[end] == '\r' {
			end++
		}
		if end < len(s.src) && s.src[end] == '\n' {
			end++
		}
	}
}

// stringEnd scans an escaped literal; an unterminated literal stops at the
// end of the line
func (s *scanState) stringEnd(delim string) int {
	i := s.pos + len(delim)
	for i < len(s.src) {
		switch {
		case s.src[i] == '\\':
			i += 2
		case s.src[i] == '\n':
			return i
		case bytes.HasPrefix(s.src[i:], []byte(delim)):
			return i + len(delim)
		default:
			i++
		}
	}
	return len(s.src)
}

// isCharLiteral distinguishes 'x' and '\n' from lifetimes such as 'a
func (s *scanState) isCharLiteral() bool {
	rest := s.src[s.pos+1:]
	if len(rest) == 0 {
		return false
	}
	if rest[0] == '\\' {
		return true
	}
	_, size := utf8.DecodeRune(rest)
	return size < len(rest) && rest[size] == '\''
}

func (s *scanState) numberEnd() int {
	i := s.pos
	for i < len(s.src) {
		c := s.src[i]
		switch {
		case isDigit(c) || isLetter(c) || c == '_' || c == '.':
			i++
		case c == '\'' && i > s.pos && i+1 < len(s.src) && isDigit(s.src[i+1]):
			i++
		case (c == '+' || c == '-') && i > s.pos && strings.ContainsRune("eEpP", rune(s.src[i-1])):
			i++
		default:
			return i
		}
	}
	return i
}

func (s *scanState) identEnd() int {
	i := s.pos
	for i < len(s.src) {
		r, size := utf8.DecodeRune(s.src[i:])
		if r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			i += size
			continue
		}
		break
	}
	return i
}

// rawStringEnd scans R"delim( ... )delim" starting at the opening quote
func (s *scanState) rawStringEnd(quote int) int {
	open := bytes.IndexByte(s.src[quote:], '(')
	if open < 0 {
		return s.lineEnd(quote)
	}
	delim := string(s.src[quote+1 : quote+open])
	closing := ")" + delim + `"`
	if i := bytes.Index(s.src[quote+open:], []byte(closing)); i >= 0 {
		return quote + open + i + len(closing)
	}
	return len(s.src)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(b []byte) bool {
	r, _ := utf8.DecodeRune(b)
	return r == '_' || r == '$' || unicode.IsLetter(r)
}
