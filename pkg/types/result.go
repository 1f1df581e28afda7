package types

// FileFlags summarizes recoverable conditions met while chunking one file
type FileFlags struct {
	Truncated bool `json:"truncated,omitempty"`
	Oversized int  `json:"oversized,omitempty"`
	// Repaired is set when gaps in the token stream were filled
	Repaired bool `json:"repaired,omitempty"`
}

// FileResult is the outcome of chunking a single file. Err holds the
// diagnostic of a file that could not be chunked; Chunks is then empty.
type FileResult struct {
	Path     string    `json:"path"`
	Language string    `json:"language"`
	Chunks   []Chunk   `json:"chunks"`
	Flags    FileFlags `json:"flags"`
	Err      string    `json:"error,omitempty"`
}

// OK reports whether the file was chunked
func (r *FileResult) OK() bool {
	return r.Err == ""
}

// SearchResult represents a single search result with relevance information
type SearchResult struct {
	// Identification
	ChunkID int64 `json:"chunk_id"`
	Rank    int   `json:"rank"` // Position in result set (1-based)

	// Scoring
	RelevanceScore float64 `json:"relevance_score"` // Normalized BM25 score

	// Metadata
	File           *FileInfo `json:"file"`
	ScopePath      []string  `json:"scope_path"`
	Kind           DeclKind  `json:"kind"`
	Signature      string    `json:"signature,omitempty"`
	LeadingComment string    `json:"leading_comment,omitempty"`
	SequenceIndex  *int      `json:"sequence_index,omitempty"`
	Content        string    `json:"content"`
}

// FileInfo contains file metadata for a search result
type FileInfo struct {
	Path      string `json:"path"` // Relative to project root
	Language  string `json:"language"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == 0 {
		return ErrInvalidChunkID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.RelevanceScore < 0 || sr.RelevanceScore > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.File == nil {
		return ErrMissingFileInfo
	}

	if sr.Content == "" {
		return ErrEmptyContent
	}

	return nil
}
