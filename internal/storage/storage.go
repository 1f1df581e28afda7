package storage

import (
	"context"
	"strings"
	"time"

	"github.com/dshills/codechunk/pkg/types"
)

// Storage defines the interface for persisting and querying indexed chunks
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	GetProjectByID(ctx context.Context, projectID int64) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error)
	DeleteChunk(ctx context.Context, chunkID int64) error
	DeleteChunksBatch(ctx context.Context, chunkIDs []int64) (deletedCount int, err error)
	DeleteChunksByFile(ctx context.Context, fileID int64) error

	// Search operations
	SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error)

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Project represents an indexed source tree
type Project struct {
	ID           int64
	RootPath     string
	TotalFiles   int
	TotalChunks  int
	IndexVersion string
	// ConfigFingerprint identifies the chunking configuration of the last run
	ConfigFingerprint string
	LastIndexedAt     time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// File represents a tracked source file
type File struct {
	ID          int64
	ProjectID   int64
	FilePath    string // Relative to project root
	Language    string
	ContentHash [32]byte
	ModTime     time.Time
	SizeBytes   int64
	// ChunkError holds the diagnostic of a file that could not be chunked
	ChunkError    *string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Chunk is the stored form of an emitted chunk
type Chunk struct {
	ID             int64
	FileID         int64
	Key            string // types.Chunk.ID
	StartOffset    int
	EndOffset      int
	Segments       []types.Span
	StartLine      int
	EndLine        int
	ScopePath      []string
	Kind           types.DeclKind
	Name           string
	Signature      string
	LeadingComment string
	Modifiers      []string
	SequenceIndex  *int // Nullable
	Truncated      bool
	Oversized      bool
	Merged         int
	TokenCount     int
	Size           int
	Content        string
	ContentHash    [32]byte
	CreatedAt      time.Time
}

// SearchFilters contains filters for narrowing search results
type SearchFilters struct {
	Kinds        []types.DeclKind // Filter by declaration kind
	ScopePrefix  string           // Scope path prefix, segments joined by "::"
	FilePattern  string           // doublestar glob for file paths
	MinRelevance float64          // Minimum normalized relevance score
}

// TextResult represents a result from full-text search
type TextResult struct {
	ChunkID   int64
	FilePath  string
	BM25Score float64 // normalized to (0, 1], higher is better
}

// ProjectStatus contains statistics about an indexed project
type ProjectStatus struct {
	Project         *Project
	FilesCount      int
	FailedFiles     int
	ChunksCount     int
	TruncatedChunks int
	OversizedChunks int
	Languages       map[string]int
	IndexSizeMB     float64
	LastIndexedAt   time.Time
	Health          HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexesBuilt    bool
}

// FromTypesChunk converts an emitted chunk to its stored form
func FromTypesChunk(c *types.Chunk, fileID int64) *Chunk {
	return &Chunk{
		FileID:         fileID,
		Key:            c.ID,
		StartOffset:    c.Start,
		EndOffset:      c.End,
		Segments:       c.Segments,
		StartLine:      c.StartLine,
		EndLine:        c.EndLine,
		ScopePath:      c.ScopePath,
		Kind:           c.Kind,
		Name:           c.Name,
		Signature:      c.Signature,
		LeadingComment: c.LeadingComment,
		Modifiers:      c.Modifiers,
		SequenceIndex:  c.SequenceIndex,
		Truncated:      c.Flags.Truncated,
		Oversized:      c.Flags.Oversized,
		Merged:         c.Merged,
		TokenCount:     c.Tokens,
		Size:           c.Size,
		Content:        c.Content,
		ContentHash:    c.ContentHash,
	}
}

// ToTypesChunk converts a stored chunk back to an emitted chunk of filePath
func (c *Chunk) ToTypesChunk(filePath string) types.Chunk {
	scope := c.ScopePath
	if scope == nil {
		scope = []string{}
	}
	return types.Chunk{
		ID:             c.Key,
		FilePath:       filePath,
		Span:           types.Span{Start: c.StartOffset, End: c.EndOffset},
		Segments:       c.Segments,
		StartLine:      c.StartLine,
		EndLine:        c.EndLine,
		ScopePath:      scope,
		Kind:           c.Kind,
		Name:           c.Name,
		Signature:      c.Signature,
		LeadingComment: c.LeadingComment,
		Modifiers:      c.Modifiers,
		SequenceIndex:  c.SequenceIndex,
		Merged:         c.Merged,
		Tokens:         c.TokenCount,
		Size:           c.Size,
		Flags:          types.ChunkFlags{Truncated: c.Truncated, Oversized: c.Oversized},
		Content:        c.Content,
		ContentHash:    c.ContentHash,
	}
}

// Scope renders the scope path as stored in the database
func (c *Chunk) Scope() string {
	return strings.Join(c.ScopePath, types.ScopeSeparator)
}
