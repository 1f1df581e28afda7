package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ScopeSeparator joins scope path segments for display and storage
const ScopeSeparator = "::"

// AnonymousName stands in for an unnamed scope segment
const AnonymousName = "(anonymous)"

// ChunkFlags marks chunks that could not fully meet the budget or
// nesting-completeness contract
type ChunkFlags struct {
	Truncated bool `json:"truncated,omitempty"`
	Oversized bool `json:"oversized,omitempty"`
}

// Chunk is one emitted unit of source with its metadata.
//
// A chunk owns one or more disjoint byte segments of the file. Span is the
// extent from the first segment start to the last segment end; for header
// chunks of composite declarations the extent also encloses the children.
type Chunk struct {
	ID       string `json:"id"`
	FilePath string `json:"file_path"`

	Span
	Segments  []Span `json:"segments"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`

	ScopePath      []string `json:"scope_path"`
	Kind           DeclKind `json:"kind"`
	Name           string   `json:"name,omitempty"`
	Signature      string   `json:"signature,omitempty"`
	LeadingComment string   `json:"leading_comment,omitempty"`
	Modifiers      []string `json:"modifiers,omitempty"`

	// SequenceIndex is set only on the pieces of a split declaration
	SequenceIndex *int `json:"sequence_index,omitempty"`
	// Merged counts the sibling declarations folded into this chunk
	Merged int `json:"merged,omitempty"`

	Tokens int        `json:"tokens"`
	Size   int        `json:"size"`
	Flags  ChunkFlags `json:"flags"`

	Content     string   `json:"content"`
	ContentHash [32]byte `json:"-"`
}

// Scope renders the scope path with ScopeSeparator
func (c *Chunk) Scope() string {
	return strings.Join(c.ScopePath, ScopeSeparator)
}

// IsSplit reports whether the chunk is one piece of a split declaration
func (c *Chunk) IsSplit() bool {
	return c.SequenceIndex != nil
}

// ComputeContentHash computes the SHA-256 hash of the chunk content
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Content))
}

// ComputeID derives a stable identifier from the file path, the owned
// segments and the sequence index
func (c *Chunk) ComputeID() {
	var b strings.Builder
	b.WriteString(c.FilePath)
	for _, s := range c.Segments {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(s.Start))
		b.WriteByte('-')
		b.WriteString(strconv.Itoa(s.End))
	}
	if c.SequenceIndex != nil {
		b.WriteString("#")
		b.WriteString(strconv.Itoa(*c.SequenceIndex))
	}
	sum := sha256.Sum256([]byte(b.String()))
	c.ID = hex.EncodeToString(sum[:8])
}

// Validate checks the structural invariants of a single chunk
func (c *Chunk) Validate() error {
	if len(c.Segments) == 0 {
		return errors.New("chunk must own at least one segment")
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("invalid chunk kind %q", c.Kind)
	}
	prev := -1
	for _, s := range c.Segments {
		if s.Start < 0 || s.End < s.Start {
			return fmt.Errorf("invalid segment %s", s)
		}
		if s.Start < prev {
			return fmt.Errorf("segment %s out of order", s)
		}
		prev = s.End
	}
	if c.Start != c.Segments[0].Start || c.End != c.Segments[len(c.Segments)-1].End {
		return fmt.Errorf("extent %s does not match segments", c.Span)
	}
	if c.StartLine <= 0 || c.EndLine < c.StartLine {
		return errors.New("line numbers must be positive and ordered")
	}
	return nil
}

// Seq returns a pointer to i, for populating SequenceIndex
func Seq(i int) *int {
	return &i
}
