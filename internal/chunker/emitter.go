package chunker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/codechunk/pkg/types"
)

// emit turns drafts into chunks in source order. When complete is set, the
// chunks must tile the file exactly; any gap or overlap is an internal error.
func emit(path string, s *Stream, drafts []draft, complete bool) ([]types.Chunk, error) {
	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].segs[0].Start < drafts[j].segs[0].Start
	})

	chunks := make([]types.Chunk, 0, len(drafts))
	var all []types.Span
	for _, d := range drafts {
		for _, seg := range d.segs {
			if seg.Start < 0 || seg.End > len(s.Src) || seg.End < seg.Start {
				return nil, fmt.Errorf("internal error: segment %s outside %s (%d bytes)", seg, path, len(s.Src))
			}
		}
		all = append(all, d.segs...)

		c := types.Chunk{
			FilePath:       path,
			Span:           types.Span{Start: d.segs[0].Start, End: d.segs[len(d.segs)-1].End},
			Segments:       d.segs,
			ScopePath:      d.scope,
			Kind:           d.kind,
			Name:           d.name,
			Signature:      d.signature,
			LeadingComment: d.leading,
			Modifiers:      d.modifiers,
			SequenceIndex:  d.seq,
			Merged:         d.merged,
			Tokens:         d.tokens,
			Size:           d.size,
			Flags:          types.ChunkFlags{Truncated: d.truncated, Oversized: d.oversized},
		}
		if c.ScopePath == nil {
			c.ScopePath = []string{}
		}
		c.StartLine, c.EndLine = lines(s, d.segs)

		var b strings.Builder
		for _, seg := range d.segs {
			b.Write(s.Src[seg.Start:seg.End])
		}
		c.Content = b.String()
		c.ComputeContentHash()
		c.ComputeID()
		chunks = append(chunks, c)
	}

	if complete {
		if err := tiles(all, len(s.Src)); err != nil {
			return nil, fmt.Errorf("internal error: %s: %w", path, err)
		}
	}
	return chunks, nil
}

// lines returns the first and last line holding non-whitespace content of
// the segments, falling back to the raw segment lines
func lines(s *Stream, segs []types.Span) (int, int) {
	first, last := 0, 0
	for _, seg := range segs {
		for k := s.IndexAt(seg.Start); k < len(s.Tokens) && s.Tokens[k].Start < seg.End; k++ {
			t := s.Tokens[k]
			if t.Kind == types.TokenWhitespace {
				continue
			}
			if first == 0 {
				first = t.Line
			}
			last = s.LineOf(t.End - 1)
		}
	}
	if first == 0 {
		start, end := segs[0].Start, segs[len(segs)-1].End
		first = s.LineOf(start)
		last = s.LineOf(max(end-1, start))
	}
	return first, last
}

// tiles checks that spans cover [0, size) without gaps or overlaps
func tiles(spans []types.Span, size int) error {
	sorted := append([]types.Span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	pos := 0
	for _, sp := range sorted {
		if sp.Start < pos {
			return fmt.Errorf("segment %s overlaps previous content ending at %d", sp, pos)
		}
		if sp.Start > pos {
			return fmt.Errorf("bytes [%d,%d) not owned by any chunk", pos, sp.Start)
		}
		pos = sp.End
	}
	if pos != size {
		return fmt.Errorf("bytes [%d,%d) not owned by any chunk", pos, size)
	}
	return nil
}
