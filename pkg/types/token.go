package types

import "fmt"

// TokenKind is the language-independent classification of a token
type TokenKind uint8

const (
	TokenOther TokenKind = iota
	TokenWhitespace
	TokenComment
	TokenIdent
	TokenKeyword
	TokenNumber
	TokenString
	TokenPunct
	TokenPreprocessor
)

var tokenKindNames = [...]string{
	TokenOther:        "other",
	TokenWhitespace:   "whitespace",
	TokenComment:      "comment",
	TokenIdent:        "ident",
	TokenKeyword:      "keyword",
	TokenNumber:       "number",
	TokenString:       "string",
	TokenPunct:        "punct",
	TokenPreprocessor: "preprocessor",
}

// String returns the lower-case kind name
func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", uint8(k))
}

// IsTrivia reports whether tokens of this kind carry no structure
func (k TokenKind) IsTrivia() bool {
	return k == TokenWhitespace || k == TokenComment
}

// Token is a single lexical unit with its byte range in the source.
// Line is 1-based and refers to the line holding Start.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int
	Line  int
}

// Span returns the byte range of the token
func (t Token) Span() Span {
	return Span{Start: t.Start, End: t.End}
}

// Is reports whether the token is punctuation or a keyword with the given text
func (t Token) Is(text string) bool {
	return (t.Kind == TokenPunct || t.Kind == TokenKeyword) && t.Text == text
}

// Span is a half-open byte range [Start, End)
type Span struct {
	Start int `json:"start_offset"`
	End   int `json:"end_offset"`
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether o lies entirely inside s
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Overlaps reports whether s and o share at least one byte
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}
