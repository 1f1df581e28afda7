package chunker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/pkg/types"
)

// Stream is a normalized, gapless token stream over one file
type Stream struct {
	Src    []byte
	Tokens []types.Token
	// Repaired is set when gaps in the input tokens were filled
	Repaired bool

	lineStarts []int
}

// Normalize turns a tokenizer's output into the uniform stream consumed by
// the scanner. Tokens must be ordered and non-overlapping; gaps are filled
// with whitespace or other tokens, identifiers that are keywords of the
// table are reclassified, and adjacent whitespace is coalesced.
func Normalize(src []byte, toks []types.Token, table *lang.Table) (*Stream, error) {
	s := &Stream{
		Src:        src,
		Tokens:     make([]types.Token, 0, len(toks)),
		lineStarts: lineStarts(src),
	}

	pos := 0
	for i, t := range toks {
		if t.Start < pos || t.End < t.Start || t.End > len(src) {
			return nil, fmt.Errorf("%w: token %d %s overlaps or exceeds the source (at %d of %d)",
				types.ErrInvalidTokenStream, i, t.Span(), pos, len(src))
		}
		if t.Start == t.End {
			continue
		}
		if t.Start > pos {
			s.fillGap(pos, t.Start)
			s.Repaired = true
		}
		kind := t.Kind
		text := string(src[t.Start:t.End])
		if kind == types.TokenIdent && table != nil && table.IsKeyword(text) {
			kind = types.TokenKeyword
		}
		s.push(types.Token{Kind: kind, Text: text, Start: t.Start, End: t.End})
		pos = t.End
	}
	if pos < len(src) {
		s.fillGap(pos, len(src))
		s.Repaired = true
	}
	return s, nil
}

func (s *Stream) fillGap(start, end int) {
	for start < end {
		i := start
		ws := isBlank(s.Src[i])
		for i < end && isBlank(s.Src[i]) == ws {
			i++
		}
		kind := types.TokenOther
		if ws {
			kind = types.TokenWhitespace
		}
		s.push(types.Token{Kind: kind, Text: string(s.Src[start:i]), Start: start, End: i})
		start = i
	}
}

// push appends a token, merging consecutive whitespace
func (s *Stream) push(t types.Token) {
	t.Line = s.LineOf(t.Start)
	if n := len(s.Tokens); n > 0 && t.Kind == types.TokenWhitespace && s.Tokens[n-1].Kind == types.TokenWhitespace {
		prev := &s.Tokens[n-1]
		prev.End = t.End
		prev.Text += t.Text
		return
	}
	s.Tokens = append(s.Tokens, t)
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// LineOf returns the 1-based line holding offset
func (s *Stream) LineOf(offset int) int {
	return sort.SearchInts(s.lineStarts, offset+1)
}

// IndexAt returns the index of the token starting at or containing offset.
// An offset at the end of the source maps to len(Tokens).
func (s *Stream) IndexAt(offset int) int {
	i := sort.Search(len(s.Tokens), func(i int) bool { return s.Tokens[i].End > offset })
	return i
}

// Text returns the source bytes of a span
func (s *Stream) Text(span types.Span) string {
	return string(s.Src[span.Start:span.End])
}

// newlines counts line breaks in token i
func (s *Stream) newlines(i int) int {
	return strings.Count(s.Tokens[i].Text, "\n")
}

// separated reports whether the tokens strictly between i and j hold a
// blank line or anything other than whitespace
func (s *Stream) separated(i, j int) bool {
	for k := i + 1; k < j; k++ {
		t := s.Tokens[k]
		if t.Kind != types.TokenWhitespace || s.newlines(k) > 1 {
			return true
		}
	}
	return false
}

// trailing reports whether comment token i shares its line with preceding
// code
func (s *Stream) trailing(i int) bool {
	for k := i - 1; k >= 0; k-- {
		t := s.Tokens[k]
		switch {
		case t.Kind == types.TokenWhitespace:
			if s.newlines(k) > 0 {
				return false
			}
		case t.Kind == types.TokenComment:
			return s.trailing(k)
		default:
			return true
		}
	}
	return false
}

// significant reports whether token i carries structure
func (s *Stream) significant(i int) bool {
	k := s.Tokens[i].Kind
	return k != types.TokenWhitespace && k != types.TokenComment && k != types.TokenPreprocessor
}
