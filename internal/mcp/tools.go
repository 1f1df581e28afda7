package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codechunk/internal/cache"
	"github.com/dshills/codechunk/internal/chunker"
	"github.com/dshills/codechunk/internal/indexer"
	"github.com/dshills/codechunk/internal/searcher"
	"github.com/dshills/codechunk/internal/storage"
	"github.com/dshills/codechunk/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound    = -32001 // Specified path does not exist or is not a directory
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Project not indexed
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
	ErrorCodeUnknownLanguage    = -32005 // Language not in the registry
)

// handleChunkFile handles the chunk_file tool invocation
func (s *Server) handleChunkFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validateFilePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	cfg := s.engines.Config()
	cfg.Language = getStringDefault(args, "language", cfg.Language)
	cfg.MaxSize = getIntDefault(args, "max_size", cfg.MaxSize)
	cfg.MinSize = getIntDefault(args, "min_size", cfg.MinSize)
	if unit, ok := args["unit"].(string); ok && unit != "" {
		parsed, err := chunker.ParseUnit(unit)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid unit", map[string]interface{}{
				"param":   "unit",
				"value":   unit,
				"allowed": []string{"tokens", "lines", "bytes"},
			})
		}
		cfg.Unit = parsed
	}
	if cfg.Language == "" {
		table, ok := s.engines.Registry().DetectByPath(path)
		if !ok {
			return nil, newMCPError(ErrorCodeUnknownLanguage, "cannot detect language", map[string]interface{}{
				"param":     "language",
				"reason":    "no language registered for the file extension",
				"languages": s.engines.Registry().Names(),
			})
		}
		cfg.Language = table.Name
	}

	engine, err := chunker.New(cfg, s.engines.Registry())
	if errors.Is(err, types.ErrUnknownLanguage) {
		return nil, newMCPError(ErrorCodeUnknownLanguage, "unknown language", map[string]interface{}{
			"param":     "language",
			"value":     cfg.Language,
			"languages": s.engines.Registry().Names(),
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid chunking parameters", map[string]interface{}{
			"error": err.Error(),
		})
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "failed to read file", map[string]interface{}{
			"error": err.Error(),
		})
	}

	res, hit, err := s.cache.Chunk(ctx, engine, cache.Fingerprint(cfg), path, src)
	if err != nil && res == nil {
		return nil, newMCPError(ErrorCodeInternalError, "chunking failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err != nil {
		// A per-file failure is reported inside the result
		s.log.Warn("failed to chunk file", "path", path, "error", err)
	}

	response := struct {
		*types.FileResult
		CacheHit bool `json:"cache_hit"`
	}{res, hit}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeProjectNotFound, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	idx := s.cfg.Index
	config := &indexer.Config{
		Workers:      idx.Workers,
		BatchSize:    idx.BatchSize,
		Include:      getStringSlice(args, "include", idx.Include),
		Exclude:      getStringSlice(args, "exclude", idx.Exclude),
		MaxFileBytes: idx.MaxFileBytes,
		Force:        getBoolDefault(args, "force_reindex", false),
	}

	stats, err := s.indexer.IndexProject(ctx, path, config)
	if errors.Is(err, indexer.ErrIndexInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
	}
	if errors.Is(err, types.ErrInvalidConfig) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid glob pattern", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.searcher.InvalidateCache()

	response := map[string]interface{}{
		"indexed":          true,
		"files_indexed":    stats.FilesIndexed,
		"files_skipped":    stats.FilesSkipped,
		"files_failed":     stats.FilesFailed,
		"files_removed":    stats.FilesRemoved,
		"chunks_created":   stats.ChunksCreated,
		"oversized_chunks": stats.OversizedChunks,
		"truncated_files":  stats.TruncatedFiles,
		"duration_ms":      stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchChunks handles the search_chunks tool invocation
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeProjectNotFound, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	limit := getIntDefault(args, "limit", s.cfg.Search.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	filters := &storage.SearchFilters{
		ScopePrefix:  getStringDefault(args, "scope_prefix", ""),
		FilePattern:  getStringDefault(args, "file_pattern", ""),
		MinRelevance: getFloatDefault(args, "min_relevance", 0),
	}
	for _, k := range getStringSlice(args, "kinds", nil) {
		kind, err := types.ParseDeclKind(k)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid kind", map[string]interface{}{
				"param":   "kinds",
				"value":   k,
				"allowed": declKinds,
			})
		}
		filters.Kinds = append(filters.Kinds, kind)
	}

	project, err := s.storage.GetProject(ctx, filepath.Clean(path))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "project not indexed", map[string]interface{}{
			"path": path,
			"hint": "use index_codebase first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load project", map[string]interface{}{
			"error": err.Error(),
		})
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:     query,
		Limit:     limit,
		Filters:   filters,
		ProjectID: project.ID,
		UseCache:  true,
		CacheTTL:  time.Duration(s.cfg.Search.CacheTTL) * time.Second,
	})
	if errors.Is(err, searcher.ErrEmptyQuery) {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query has no searchable words", map[string]interface{}{
			"param": "query",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"results":       resp.Results,
		"total_results": resp.TotalResults,
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeProjectNotFound, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	project, err := s.storage.GetProject(ctx, filepath.Clean(path))
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Project not indexed. Use index_codebase tool to index this project.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed": true,
		"project": map[string]interface{}{
			"path":               project.RootPath,
			"index_version":      project.IndexVersion,
			"config_fingerprint": project.ConfigFingerprint,
			"last_indexed_at":    project.LastIndexedAt.Format(time.RFC3339),
		},
		"statistics": map[string]interface{}{
			"files_count":      status.FilesCount,
			"failed_files":     status.FailedFiles,
			"chunks_count":     status.ChunksCount,
			"truncated_chunks": status.TruncatedChunks,
			"oversized_chunks": status.OversizedChunks,
			"languages":        status.Languages,
			"index_size_mb":    fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_indexes_built":   status.Health.FTSIndexesBuilt,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that path is an absolute, readable directory
func validatePath(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// validateFilePath checks that path is an absolute regular file
func validateFilePath(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.Mode().IsRegular() {
		return ErrNotRegularFile
	}
	return nil
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter; non-string items are ignored
func getStringSlice(args map[string]interface{}, key string, defaultValue []string) []string {
	switch val := args[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNotRegularFile  = errors.New("path is not a regular file")
)
