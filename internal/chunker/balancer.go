package chunker

import (
	"fmt"
	"strings"

	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/pkg/types"
)

// Unit is the measure of chunk size
type Unit string

// Size units
const (
	UnitTokens Unit = "tokens"
	UnitLines  Unit = "lines"
	UnitBytes  Unit = "bytes"
)

// ParseUnit validates a unit name
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case UnitTokens, UnitLines, UnitBytes:
		return u, nil
	case "":
		return UnitTokens, nil
	default:
		return "", fmt.Errorf("%w: unknown size unit %q", types.ErrInvalidConfig, s)
	}
}

// Budget bounds emitted chunk sizes. Sizes count non-whitespace tokens,
// the lines they touch, or their bytes.
type Budget struct {
	Max  int
	Min  int
	Unit Unit
	// MergeAcrossKinds allows merging siblings of different kinds
	MergeAcrossKinds bool
}

// Validate checks the budget thresholds
func (b Budget) Validate() error {
	if b.Max <= 0 {
		return fmt.Errorf("%w: max chunk size must be positive, got %d", types.ErrInvalidConfig, b.Max)
	}
	if b.Min < 0 || b.Min > b.Max {
		return fmt.Errorf("%w: min chunk size must be within [0, %d], got %d", types.ErrInvalidConfig, b.Max, b.Min)
	}
	if _, err := ParseUnit(string(b.Unit)); err != nil {
		return err
	}
	return nil
}

// meter accumulates the size of a sequence of tokens in source order
type meter struct {
	unit     Unit
	size     int
	tokens   int
	lastLine int
}

func (m *meter) add(t types.Token) {
	if t.Kind == types.TokenWhitespace {
		return
	}
	m.tokens++
	switch m.unit {
	case UnitLines:
		first := t.Line
		last := t.Line + strings.Count(t.Text, "\n")
		if first <= m.lastLine {
			first = m.lastLine + 1
		}
		if last >= first {
			m.size += last - first + 1
			m.lastLine = last
		}
	case UnitBytes:
		m.size += t.End - t.Start
	default:
		m.size++
	}
}

// draft is a chunk before emission: owned segments plus metadata
type draft struct {
	node      int
	segs      []types.Span
	kind      types.DeclKind
	name      string
	scope     []string
	signature string
	leading   string
	modifiers []string
	seq       *int
	merged    int
	size      int
	tokens    int
	truncated bool
	oversized bool
}

// piece is one budget-sized part of a header
type piece struct {
	segs []types.Span
	m    meter
}

type balancer struct {
	s      *Stream
	t      *Tree
	metas  []Meta
	table  *lang.Table
	budget Budget
	ext    []types.Span
}

// balance flattens the tree into drafts: one header draft per node, split
// into pieces when over budget, and merged runs of small siblings.
func balance(t *Tree, metas []Meta, s *Stream, table *lang.Table, budget Budget) []draft {
	bl := &balancer{s: s, t: t, metas: metas, table: table, budget: budget}
	bl.extend()
	return bl.node(-1)
}

// extend computes the range each node owns with its descendants: the
// boundary widened over its leading comment and over blank gaps that
// follow it among its siblings.
func (bl *balancer) extend() {
	bl.ext = make([]types.Span, len(bl.t.Nodes))
	for id, n := range bl.t.Nodes {
		bl.ext[id] = types.Span{Start: bl.metas[id].Start, End: n.Boundary.End}
	}

	var visit func(parent int)
	visit = func(parent int) {
		kids := bl.t.Children(parent)
		if parent < 0 && len(kids) > 0 {
			if gap := (types.Span{Start: 0, End: bl.ext[kids[0]].Start}); bl.blank(gap) {
				bl.ext[kids[0]].Start = 0
			}
		}
		limit := len(bl.s.Src)
		if parent >= 0 {
			limit = bl.t.Nodes[parent].Boundary.End
		}
		for i, id := range kids {
			next := limit
			if i+1 < len(kids) {
				next = bl.ext[kids[i+1]].Start
			}
			bl.ext[id].End = bl.trailingComment(bl.ext[id].End, next)

			var gap types.Span
			switch {
			case i+1 < len(kids):
				gap = types.Span{Start: bl.ext[id].End, End: next}
			case parent < 0:
				gap = types.Span{Start: bl.ext[id].End, End: len(bl.s.Src)}
			}
			if bl.blank(gap) {
				bl.ext[id].End = gap.End
			}
			visit(id)
		}
	}
	visit(-1)
}

// trailingComment extends end over a comment on the same line, as in
// "} // namespace utils"
func (bl *balancer) trailingComment(end, limit int) int {
	k := bl.s.IndexAt(end)
	if k < len(bl.s.Tokens) && bl.s.Tokens[k].Kind == types.TokenWhitespace && bl.s.newlines(k) == 0 {
		k++
	}
	if k < len(bl.s.Tokens) && bl.s.Tokens[k].Kind == types.TokenComment &&
		bl.s.Tokens[k].End <= limit && bl.s.trailing(k) {
		return bl.s.Tokens[k].End
	}
	return end
}

func (bl *balancer) blank(span types.Span) bool {
	if span.Len() <= 0 {
		return false
	}
	for _, c := range bl.s.Src[span.Start:span.End] {
		if !isBlank(c) {
			return false
		}
	}
	return true
}

// runs returns the parts of a node's range not owned by its children
func (bl *balancer) runs(id int) []types.Span {
	outer := types.Span{Start: 0, End: len(bl.s.Src)}
	if id >= 0 {
		outer = bl.ext[id]
	}
	var runs []types.Span
	pos := outer.Start
	for _, c := range bl.t.Children(id) {
		if bl.ext[c].Start > pos {
			runs = append(runs, types.Span{Start: pos, End: bl.ext[c].Start})
		}
		pos = bl.ext[c].End
	}
	if outer.End > pos {
		runs = append(runs, types.Span{Start: pos, End: outer.End})
	}
	return runs
}

func (bl *balancer) scope(id int) []string {
	if id < 0 {
		return []string{}
	}
	return bl.metas[id].ScopePath
}

func (bl *balancer) node(id int) []draft {
	var groups [][]draft
	for _, c := range bl.t.Children(id) {
		groups = append(groups, bl.node(c))
	}
	return append(bl.header(id), bl.merge(id, groups)...)
}

// header emits the drafts for the content a node does not delegate to
// its children
func (bl *balancer) header(id int) []draft {
	runs := bl.runs(id)
	if len(runs) == 0 {
		return nil
	}

	base := draft{node: id, kind: types.KindOther, scope: bl.scope(id)}
	atomicEnd := 0
	if id >= 0 {
		b := bl.t.Nodes[id].Boundary
		m := bl.metas[id]
		base.kind = b.Kind
		base.name = b.Name
		base.signature = m.Signature
		base.leading = m.LeadingComment
		base.modifiers = append([]string(nil), b.Modifiers...)
		base.truncated = b.Truncated()
		atomicEnd = b.HeaderEnd()
	}

	pieces := bl.split(runs, atomicEnd, base.truncated)
	out := make([]draft, 0, len(pieces))
	for i, p := range pieces {
		d := base
		d.segs = p.segs
		d.size = p.m.size
		d.tokens = p.m.tokens
		d.oversized = p.m.size > bl.budget.Max
		if len(pieces) > 1 {
			d.seq = types.Seq(i)
			if i > 0 {
				d.leading = ""
			}
		}
		out = append(out, d)
	}
	return out
}

func (bl *balancer) measure(segs []types.Span) meter {
	m := meter{unit: bl.budget.Unit}
	for _, seg := range segs {
		bl.measureInto(&m, seg)
	}
	return m
}

func (bl *balancer) measureInto(m *meter, seg types.Span) {
	for k := bl.s.IndexAt(seg.Start); k < len(bl.s.Tokens) && bl.s.Tokens[k].Start < seg.End; k++ {
		m.add(bl.s.Tokens[k])
	}
}

// split packs the runs into pieces within the budget. Cuts fall only on
// statement boundaries at or after atomicEnd; a unit that alone exceeds
// the budget becomes its own piece.
func (bl *balancer) split(runs []types.Span, atomicEnd int, keep bool) []piece {
	whole := bl.measure(runs)
	if keep || whole.size <= bl.budget.Max {
		return []piece{{segs: runs, m: whole}}
	}

	var pieces []piece
	cur := piece{m: meter{unit: bl.budget.Unit}}
	for _, u := range bl.units(runs, atomicEnd) {
		m := cur.m
		bl.measureInto(&m, u)
		if len(cur.segs) > 0 && m.size > bl.budget.Max {
			pieces = append(pieces, cur)
			cur = piece{m: meter{unit: bl.budget.Unit}}
			m = cur.m
			bl.measureInto(&m, u)
		}
		cur.segs = appendSpan(cur.segs, u)
		cur.m = m
	}
	if len(cur.segs) > 0 {
		pieces = append(pieces, cur)
	}

	// a trailing piece without content joins the previous one
	if n := len(pieces); n > 1 && pieces[n-1].m.tokens == 0 {
		prev := &pieces[n-2]
		for _, seg := range pieces[n-1].segs {
			prev.segs = appendSpan(prev.segs, seg)
		}
		pieces = pieces[:n-1]
	}
	return pieces
}

// units cuts runs at statement boundaries. Whitespace following a cut
// stays with the unit before it.
func (bl *balancer) units(runs []types.Span, atomicEnd int) []types.Span {
	toks := bl.s.Tokens
	var units []types.Span
	for _, r := range runs {
		start := r.Start
		j := bl.s.IndexAt(r.End)
		for k := bl.s.IndexAt(r.Start); k+1 < j; k++ {
			if toks[k].End < atomicEnd || !bl.cutAfter(k) {
				continue
			}
			end := k + 1
			if toks[end].Kind == types.TokenWhitespace {
				end++
				k++
			}
			units = append(units, types.Span{Start: start, End: toks[end-1].End})
			start = toks[end-1].End
		}
		if start < r.End {
			units = append(units, types.Span{Start: start, End: r.End})
		}
	}
	return units
}

func (bl *balancer) cutAfter(k int) bool {
	t := bl.s.Tokens[k]
	switch t.Kind {
	case types.TokenComment, types.TokenPreprocessor:
		return true
	case types.TokenPunct:
		return t.Text == "{" || t.Text == "}" || bl.table.IsTerminator(t.Text)
	case types.TokenWhitespace:
		return bl.table.NewlineTerminates && bl.s.newlines(k) > 0
	}
	return false
}

// appendSpan appends seg, coalescing it with a contiguous last span
func appendSpan(segs []types.Span, seg types.Span) []types.Span {
	if n := len(segs); n > 0 && segs[n-1].End == seg.Start {
		segs[n-1].End = seg.End
		return segs
	}
	return append(segs, seg)
}

// merge folds runs of adjacent single-chunk siblings whose combined size
// stays below the minimum
func (bl *balancer) merge(parent int, groups [][]draft) []draft {
	var out []draft
	if bl.budget.Min <= 0 {
		for _, g := range groups {
			out = append(out, g...)
		}
		return out
	}

	var run []draft
	flush := func() {
		switch len(run) {
		case 0:
		case 1:
			out = append(out, run[0])
		default:
			out = append(out, bl.fold(parent, run))
		}
		run = nil
	}
	for _, g := range groups {
		if len(g) != 1 || !mergeable(g[0]) {
			flush()
			out = append(out, g...)
			continue
		}
		d := g[0]
		if len(run) > 0 && (bl.budget.MergeAcrossKinds || run[0].kind == d.kind) && bl.combined(run, d) < bl.budget.Min {
			run = append(run, d)
			continue
		}
		flush()
		run = []draft{d}
	}
	flush()
	return out
}

func mergeable(d draft) bool {
	return d.seq == nil && !d.truncated && !d.oversized
}

func (bl *balancer) combined(run []draft, d draft) int {
	var segs []types.Span
	for _, r := range run {
		segs = append(segs, r.segs...)
	}
	segs = append(segs, d.segs...)
	return bl.measure(segs).size
}

func (bl *balancer) fold(parent int, run []draft) draft {
	out := draft{
		node:    run[0].node,
		kind:    run[0].kind,
		scope:   bl.scope(parent),
		leading: run[0].leading,
	}
	var sigs []string
	for _, d := range run {
		for _, seg := range d.segs {
			out.segs = appendSpan(out.segs, seg)
		}
		if d.kind != out.kind {
			out.kind = types.KindOther
		}
		if d.signature != "" {
			sigs = append(sigs, d.signature)
		}
		out.merged += max(d.merged, 1)
	}
	out.signature = strings.Join(sigs, "; ")
	m := bl.measure(out.segs)
	out.size, out.tokens = m.size, m.tokens
	return out
}
