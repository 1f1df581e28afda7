package chunker

import (
	"strings"

	"github.com/dshills/codechunk/pkg/types"
)

// Meta is the per-node metadata derived from the tree and the stream
type Meta struct {
	ScopePath      []string
	Signature      string
	LeadingComment string
	// Start is the node start extended over its leading comment
	Start int
}

// Extract derives scope paths, signatures and leading comments for every
// node of the tree. The result is indexed by node ID.
func Extract(t *Tree, s *Stream) []Meta {
	metas := make([]Meta, len(t.Nodes))
	var walk func(parent int, path []string)
	walk = func(parent int, path []string) {
		lower := 0
		if parent >= 0 {
			pb := t.Nodes[parent].Boundary
			lower = pb.HeaderEnd()
		}
		for _, id := range t.Children(parent) {
			b := t.Nodes[id].Boundary
			m := &metas[id]
			m.ScopePath = scopeOf(path, b)
			m.Start = b.Start
			if b.Kind.HasSignature() {
				m.Signature = signature(s, b)
				if first, last := leadingComment(s, b.Start, lower); first >= 0 {
					m.Start = s.Tokens[first].Start
					m.LeadingComment = s.Text(types.Span{Start: m.Start, End: s.Tokens[last].End})
				}
			}
			walk(id, m.ScopePath)
			lower = b.End
		}
	}
	walk(-1, nil)
	return metas
}

func scopeOf(parent []string, b types.Boundary) []string {
	path := make([]string, len(parent), len(parent)+1)
	copy(path, parent)
	switch {
	case b.Kind == types.KindComment:
		return path
	case b.Kind == types.KindOther && b.Name == "":
		return path
	case b.Name == "":
		return append(path, types.AnonymousName)
	default:
		return append(path, b.Name)
	}
}

// signature returns the whitespace-normalized declaration header
func signature(s *Stream, b types.Boundary) string {
	end := b.End
	if b.HasBody() {
		end = b.BodyStart
	}
	return strings.Join(strings.Fields(string(s.Src[b.Start:end])), " ")
}

// leadingComment finds the comment block directly above start, not
// reaching below lower. It returns the first and last comment token
// indexes, or -1 when there is none.
func leadingComment(s *Stream, start, lower int) (int, int) {
	first, last := -1, -1
	for k := s.IndexAt(start) - 1; k >= 0 && s.Tokens[k].Start >= lower; k-- {
		t := s.Tokens[k]
		if t.Kind == types.TokenWhitespace {
			if s.newlines(k) > 1 {
				break
			}
			continue
		}
		if t.Kind != types.TokenComment || s.trailing(k) {
			break
		}
		first = k
		if last < 0 {
			last = k
		}
	}
	return first, last
}
