package types

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Configuration errors
	ErrUnknownLanguage = errors.New("unknown language")
	ErrInvalidConfig   = errors.New("invalid configuration")

	// Per-file structural errors
	ErrMalformedNesting   = errors.New("malformed nesting")
	ErrInvalidTokenStream = errors.New("invalid token stream")

	// Search result errors
	ErrInvalidChunkID        = errors.New("invalid chunk ID")
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
	ErrMissingFileInfo       = errors.New("file info is required")
	ErrEmptyContent          = errors.New("content cannot be empty")
)

// NestingError reports two boundaries that partially overlap
type NestingError struct {
	First      Span
	FirstKind  DeclKind
	Second     Span
	SecondKind DeclKind
}

func (e *NestingError) Error() string {
	return fmt.Sprintf("malformed nesting: %s %s partially overlaps %s %s",
		e.FirstKind, e.First, e.SecondKind, e.Second)
}

// Unwrap allows errors.Is(err, ErrMalformedNesting)
func (e *NestingError) Unwrap() error {
	return ErrMalformedNesting
}
