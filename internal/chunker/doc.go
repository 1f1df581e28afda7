// Package chunker divides source files into hierarchical, size-bounded chunks.
//
// A file passes through a fixed pipeline, each stage consuming the whole
// output of the previous one:
//
//	tokens -> Normalize -> Scan -> Build -> Extract -> balance -> emit
//
// Normalize turns tokenizer output into a gapless Stream. Scan finds
// declaration boundaries (namespaces, classes, functions, comment blocks)
// using the keyword table of the language. Build nests the boundaries into
// a containment tree and rejects partial overlaps. Extract derives scope
// paths, signatures and leading comments. The balancer turns every node
// into a header chunk holding the node's own content, splits headers that
// exceed the budget at statement boundaries, and merges small siblings.
//
// # Basic Usage
//
//	e, err := chunker.New(chunker.Config{Language: "cpp", MaxSize: 256}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := e.Chunk(ctx, "main.cpp", src)
//	for _, c := range res.Chunks {
//	    fmt.Printf("%s %s lines %d-%d\n", c.Kind, c.Scope(), c.StartLine, c.EndLine)
//	}
//
// # Ownership
//
// Every byte of a file belongs to exactly one chunk. A class chunk owns its
// declaration opening, its closing brace, and member declarations that are
// not boundaries themselves; methods are separate chunks. A chunk may
// therefore own several disjoint segments; Span is their extent.
//
// # Recovery
//
// Unclosed constructs are closed at end of file and flagged truncated.
// Declaration headers that alone exceed the budget are emitted whole and
// flagged oversized. Malformed nesting fails only the affected file.
package chunker
