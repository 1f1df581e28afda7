// Package types provides shared type definitions for codechunk.
//
// This package defines the data model exchanged between the tokenizers, the
// chunking pipeline, storage, search and the MCP server.
//
// # Core Types
//
// Token is one lexical unit of a file. Token streams are gapless: every byte
// of the file belongs to exactly one token, whitespace and comments included.
//
//	tok := types.Token{Kind: types.TokenKeyword, Text: "class", Start: 10, End: 15, Line: 2}
//
// Boundary is a detected declaration, comment block or other unit with its
// declared kind, optional name and modifiers:
//
//	b := types.Boundary{
//	    Span:      types.Span{Start: 0, End: 120},
//	    Kind:      types.KindClass,
//	    Name:      "Helper",
//	    BodyStart: 13,
//	}
//
// Chunk is an emitted unit carrying its scope path, signature, leading
// comment and exact source segments:
//
//	chunk.Scope()     // "utils::Helper::calculate"
//	chunk.Signature   // "int calculate(int value) const"
//	chunk.Segments    // byte ranges owned by this chunk
//
// # Flags
//
// Recoverable conditions never abort a run. They are reported on the chunk
// (ChunkFlags.Truncated, ChunkFlags.Oversized) and summarized on the
// FileResult. Structural failures such as partially overlapping boundaries
// surface as a *NestingError, which matches ErrMalformedNesting:
//
//	if errors.Is(err, types.ErrMalformedNesting) {
//	    // the file is reported as un-chunkable
//	}
package types
