package types

import (
	"fmt"
	"slices"
	"strings"
)

// DeclKind is the declared kind of a boundary or chunk
type DeclKind string

const (
	KindNamespace DeclKind = "namespace"
	KindClass     DeclKind = "class"
	KindStruct    DeclKind = "struct"
	KindEnum      DeclKind = "enum"
	KindFunction  DeclKind = "function"
	KindTemplate  DeclKind = "template"
	KindComment   DeclKind = "comment"
	KindOther     DeclKind = "other"
)

// AllKinds lists every declared kind in a stable order
var AllKinds = []DeclKind{
	KindNamespace, KindClass, KindStruct, KindEnum,
	KindFunction, KindTemplate, KindComment, KindOther,
}

// Valid reports whether k is one of the known kinds
func (k DeclKind) Valid() bool {
	return slices.Contains(AllKinds, k)
}

// ParseDeclKind resolves a kind name, case-insensitively
func ParseDeclKind(s string) (DeclKind, error) {
	k := DeclKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown declaration kind %q", s)
	}
	return k, nil
}

// HasSignature reports whether chunks of this kind carry signature text
func (k DeclKind) HasSignature() bool {
	return k != KindComment && k != ""
}

// ModifierTruncated marks a boundary closed at end of stream
const ModifierTruncated = "truncated"

// NoBody is the BodyStart value of a boundary without a body
const NoBody = -1

// Boundary is a detected source range believed to hold one declaration,
// comment block, or other unit. Boundaries are never modified after the
// scanner produces them.
type Boundary struct {
	Span
	Kind      DeclKind
	Name      string
	Modifiers []string

	// BodyStart is the offset of the body-opening delimiter, or NoBody.
	BodyStart int
	// BodyOpenEnd is the offset just past the body-opening delimiter.
	BodyOpenEnd int
}

// HasBody reports whether the boundary has a delimited body
func (b Boundary) HasBody() bool {
	return b.BodyStart != NoBody
}

// Truncated reports whether the boundary was closed at end of stream
func (b Boundary) Truncated() bool {
	return slices.Contains(b.Modifiers, ModifierTruncated)
}

// HeaderEnd returns the end of the atomic declaration header: just past the
// body-opening delimiter, or the boundary end for bodiless declarations.
func (b Boundary) HeaderEnd() int {
	if b.HasBody() {
		return b.BodyOpenEnd
	}
	return b.End
}
