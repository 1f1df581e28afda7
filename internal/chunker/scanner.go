package chunker

import (
	"sort"
	"strings"

	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/pkg/types"
)

// levelKind identifies the kind of body being scanned for declarations
type levelKind int

const (
	levelFile levelKind = iota
	levelNamespace
	levelClass
	levelAtomic // bodies that are not scanned
)

// modifierWords are keywords reported as boundary modifiers
var modifierWords = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
	"static": true, "virtual": true, "inline": true, "explicit": true,
	"constexpr": true, "consteval": true, "abstract": true, "final": true,
	"override": true, "async": true, "export": true, "pub": true,
	"extern": true, "friend": true, "sealed": true, "unsafe": true,
}

// Scan walks a normalized stream and returns the detected boundaries,
// ordered by start ascending and end descending.
func Scan(s *Stream, table *lang.Table) []types.Boundary {
	sc := &scanner{
		s:      s,
		toks:   s.Tokens,
		table:  table,
		starts: make(map[int]bool),
	}
	sc.level(0, levelFile)
	sc.commentBlocks()

	sort.SliceStable(sc.out, func(i, j int) bool {
		if sc.out[i].Start != sc.out[j].Start {
			return sc.out[i].Start < sc.out[j].Start
		}
		return sc.out[i].End > sc.out[j].End
	})
	return sc.out
}

type scanner struct {
	s     *Stream
	toks  []types.Token
	table *lang.Table
	out   []types.Boundary

	// starts holds the token index of every declaration boundary start
	starts map[int]bool
	// comments holds declaration-level comment tokens in order
	comments []int
}

// level scans declarations until the closing brace of the current body or
// the end of the stream. It returns the index after the closing brace and
// whether the body was closed.
func (sc *scanner) level(i int, kind levelKind) (int, bool) {
	access := ""
	for i < len(sc.toks) {
		t := sc.toks[i]
		switch {
		case t.Kind == types.TokenWhitespace || t.Kind == types.TokenPreprocessor:
			i++
		case t.Kind == types.TokenComment:
			sc.comments = append(sc.comments, i)
			i++
		case t.Is("}"):
			if kind != levelFile {
				return i + 1, true
			}
			i++
		case t.Kind == types.TokenPunct && sc.table.IsTerminator(t.Text):
			i++
		default:
			var label string
			i, label = sc.statement(i, kind, access)
			if label != "" {
				access = label
			}
		}
	}
	return i, false
}

// head is one declaration-level statement up to its body or terminator
type head struct {
	start int
	// sig holds the significant tokens of the statement, terminator included
	sig    []int
	body   int
	next   int
	paren  int // position in sig of the first top-level '('
	assign int // position in sig of the first top-level '='
	label  string
}

func (h *head) hasBody() bool {
	return h.body >= 0
}

func (sc *scanner) head(i int) head {
	h := head{start: i, body: -1, paren: -1, assign: -1}
	paren, bracket, angle := 0, 0, 0

	for j := i; j < len(sc.toks); j++ {
		t := sc.toks[j]
		if !sc.s.significant(j) {
			if sc.table.NewlineTerminates && t.Kind == types.TokenWhitespace &&
				paren == 0 && bracket == 0 && sc.s.newlines(j) > 0 && !sc.continues(h, j) {
				h.next = j
				return h
			}
			continue
		}
		top := paren == 0 && bracket == 0
		if t.Kind == types.TokenPunct {
			switch t.Text {
			case "(":
				if top && angle == 0 && h.paren < 0 {
					h.paren = len(h.sig)
				}
				paren++
			case ")":
				if paren > 0 {
					paren--
				}
			case "[":
				bracket++
			case "]":
				if bracket > 0 {
					bracket--
				}
			case "<":
				if top && sc.opensAngle(h) {
					angle++
				}
			case ">":
				if top && angle > 0 {
					angle--
				}
			case ">>":
				if top && angle > 0 {
					angle = max(0, angle-2)
				}
			case "=":
				if top && angle == 0 && h.assign < 0 {
					h.assign = len(h.sig)
				}
			case ":":
				if top && len(h.sig) == 1 && sc.table.IsAccess(sc.toks[h.sig[0]].Text) {
					h.label = sc.toks[h.sig[0]].Text
					h.next = j + 1
					return h
				}
			case "{":
				if !top {
					break
				}
				if h.assign >= 0 {
					end, ok := sc.matchBrace(j)
					h.sig = append(h.sig, j)
					if !ok {
						h.next = len(sc.toks)
						return h
					}
					h.sig = append(h.sig, end)
					j = end
					continue
				}
				h.body = j
				h.next = j + 1
				return h
			case "}":
				if top {
					h.next = j
					return h
				}
			}
			if top && sc.table.IsTerminator(t.Text) {
				h.sig = append(h.sig, j)
				h.next = j + 1
				return h
			}
		}
		h.sig = append(h.sig, j)
	}
	h.next = len(sc.toks)
	return h
}

// continues reports whether a newline at j continues the statement, as
// after a binary operator or before a leading '.'
func (sc *scanner) continues(h head, j int) bool {
	if len(h.sig) == 0 {
		return true
	}
	last := sc.toks[h.sig[len(h.sig)-1]]
	if last.Kind == types.TokenPunct {
		switch last.Text {
		case ")", "]", "}", "++", "--":
		default:
			return true
		}
	}
	for k := j + 1; k < len(sc.toks); k++ {
		if sc.s.significant(k) {
			return sc.toks[k].Is(".") || sc.toks[k].Is("?.")
		}
	}
	return false
}

// opensAngle reports whether a '<' following the current head opens a
// template or generic argument list
func (sc *scanner) opensAngle(h head) bool {
	if len(h.sig) == 0 {
		return false
	}
	prev := sc.toks[h.sig[len(h.sig)-1]]
	switch prev.Kind {
	case types.TokenIdent:
		return true
	case types.TokenKeyword:
		return prev.Text != sc.table.OperatorKeyword
	}
	return false
}

// matchBrace returns the index of the brace closing the one at open. At end
// of stream it returns the last index and false.
func (sc *scanner) matchBrace(open int) (int, bool) {
	depth := 0
	for j := open; j < len(sc.toks); j++ {
		t := sc.toks[j]
		if t.Kind != types.TokenPunct {
			continue
		}
		switch t.Text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return len(sc.toks) - 1, false
}

// statement scans one statement starting at i and records its boundary
func (sc *scanner) statement(i int, kind levelKind, access string) (int, string) {
	h := sc.head(i)
	if h.label != "" {
		return h.next, h.label
	}

	d, ok := sc.classify(&h)
	if !ok {
		return h.next, ""
	}

	b := types.Boundary{
		Kind:      d.kind,
		Name:      d.name,
		Modifiers: d.modifiers,
		BodyStart: types.NoBody,
	}
	b.Start = sc.toks[h.start].Start
	if kind == levelClass && access != "" && !contains(b.Modifiers, access) {
		b.Modifiers = append([]string{access}, b.Modifiers...)
	}

	if !h.hasBody() {
		b.End = sc.toks[h.sig[len(h.sig)-1]].End
		sc.add(b, h.start)
		return h.next, ""
	}

	b.BodyStart = sc.toks[h.body].Start
	b.BodyOpenEnd = sc.toks[h.body].End

	var next int
	var closed bool
	switch {
	case d.transparent:
		// linkage blocks add no boundary; their declarations belong to the
		// enclosing level and the braces to the enclosing header
		inner := kind
		if inner == levelFile {
			inner = levelNamespace
		}
		next, _ = sc.level(h.body+1, inner)
		return next, ""
	case d.scan != levelAtomic:
		next, closed = sc.level(h.body+1, d.scan)
	default:
		var end int
		end, closed = sc.matchBrace(h.body)
		next = end + 1
	}

	if !closed {
		b.End = len(sc.s.Src)
		b.Modifiers = append(b.Modifiers, types.ModifierTruncated)
		sc.add(b, h.start)
		return len(sc.toks), ""
	}

	closeIdx := next - 1
	switch d.kind {
	case types.KindClass, types.KindStruct, types.KindEnum:
		closeIdx = sc.declarators(closeIdx)
	}
	b.End = sc.toks[closeIdx].End
	sc.add(b, h.start)
	return closeIdx + 1, ""
}

// declarators extends a class-like body over a trailing declarator list
// and terminator, as in "} name;" or "};"
func (sc *scanner) declarators(closeIdx int) int {
	if sc.table.NewlineTerminates {
		return closeIdx
	}
	for j := closeIdx + 1; j < len(sc.toks); j++ {
		t := sc.toks[j]
		switch {
		case t.Kind == types.TokenWhitespace || t.Kind == types.TokenIdent || t.Kind == types.TokenNumber:
		case t.Kind == types.TokenPunct && sc.table.IsTerminator(t.Text):
			return j
		case t.Kind == types.TokenPunct && strings.Contains("*&,[]", t.Text) && len(t.Text) == 1:
		default:
			return closeIdx
		}
	}
	return closeIdx
}

func (sc *scanner) add(b types.Boundary, start int) {
	sc.out = append(sc.out, b)
	sc.starts[start] = true
}

// commentBlocks turns declaration-level comments into comment boundaries,
// except blocks that directly precede a declaration
func (sc *scanner) commentBlocks() {
	cs := sc.comments
	for i := 0; i < len(cs); {
		first := cs[i]
		if sc.s.trailing(first) {
			i++
			continue
		}
		last := first
		j := i + 1
		for j < len(cs) && !sc.s.separated(last, cs[j]) {
			last = cs[j]
			j++
		}
		i = j

		next := last + 1
		if next < len(sc.toks) && sc.toks[next].Kind == types.TokenWhitespace && sc.s.newlines(next) <= 1 {
			next++
		}
		if next < len(sc.toks) && sc.starts[next] {
			continue
		}
		sc.out = append(sc.out, types.Boundary{
			Span:      types.Span{Start: sc.toks[first].Start, End: sc.toks[last].End},
			Kind:      types.KindComment,
			BodyStart: types.NoBody,
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
