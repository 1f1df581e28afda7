package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codechunk/internal/config"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/pkg/types"
)

const cppSource = `namespace utils {
class Helper {
public:
    int calculate(int v) {
        return v * 2;
    }
};
}
`

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	tmpDir := t.TempDir()

	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(tmpDir, "db", "codechunk.db")
	cfg.Cache.Path = filepath.Join(tmpDir, "cache", "cache.db")
	if mutate != nil {
		mutate(cfg)
	}

	server, err := NewServer(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server
}

func callTool(t *testing.T, handler toolHandler, args map[string]interface{}) (string, error) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	if err != nil {
		return "", err
	}
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text, nil
}

func requireMCPCode(t *testing.T, err error, code int) {
	t.Helper()
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr), "expected MCPError, got %v", err)
	assert.Equal(t, code, mcpErr.Code)
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "utils.cpp"), []byte(cppSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	return dir
}

func TestServer_Initialization(t *testing.T) {
	t.Run("server has all required components", func(t *testing.T) {
		server := newTestServer(t, nil)

		assert.NotNil(t, server.mcp, "MCP server should be initialized")
		assert.NotNil(t, server.storage, "Storage should be initialized")
		assert.NotNil(t, server.engines, "Engines should be initialized")
		assert.NotNil(t, server.indexer, "Indexer should be initialized")
		assert.NotNil(t, server.searcher, "Searcher should be initialized")
		assert.NotNil(t, server.cache, "Result cache should be opened")
	})

	t.Run("disabled cache", func(t *testing.T) {
		server := newTestServer(t, func(c *config.Config) { c.Cache.Enabled = false })
		assert.Nil(t, server.cache)
	})

	t.Run("unknown language fails fast", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Path = filepath.Join(t.TempDir(), "x.db")
		cfg.Chunking.Language = "cobol"
		_, err := NewServer(cfg, logger.Discard())
		assert.ErrorIs(t, err, types.ErrUnknownLanguage)
	})
}

func TestHandleChunkFile(t *testing.T) {
	server := newTestServer(t, nil)
	dir := writeProject(t)
	path := filepath.Join(dir, "utils.cpp")

	var first struct {
		Path     string        `json:"path"`
		Language string        `json:"language"`
		Chunks   []types.Chunk `json:"chunks"`
		CacheHit bool          `json:"cache_hit"`
	}
	text, err := callTool(t, server.handleChunkFile, map[string]interface{}{"path": path})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text), &first))
	assert.Equal(t, "cpp", first.Language)
	assert.Len(t, first.Chunks, 3)
	assert.False(t, first.CacheHit)

	second := first
	text, err = callTool(t, server.handleChunkFile, map[string]interface{}{"path": path})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text), &second))
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Chunks, second.Chunks)

	t.Run("size override changes the result", func(t *testing.T) {
		var res struct {
			Chunks   []types.Chunk `json:"chunks"`
			CacheHit bool          `json:"cache_hit"`
		}
		text, err := callTool(t, server.handleChunkFile, map[string]interface{}{
			"path":     path,
			"max_size": float64(4),
			"min_size": float64(0),
		})
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal([]byte(text), &res))
		assert.False(t, res.CacheHit)
		assert.Greater(t, len(res.Chunks), 3)
	})

	t.Run("language override", func(t *testing.T) {
		var res struct {
			Language string `json:"language"`
		}
		text, err := callTool(t, server.handleChunkFile, map[string]interface{}{"path": path, "language": "c++"})
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal([]byte(text), &res))
		assert.Equal(t, "cpp", res.Language)
	})
}

func TestHandleChunkFile_Errors(t *testing.T) {
	server := newTestServer(t, nil)
	dir := writeProject(t)
	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("# readme\n"), 0o644))

	tests := []struct {
		name string
		args map[string]interface{}
		code int
	}{
		{name: "missing path", args: map[string]interface{}{}, code: ErrorCodeInvalidParams},
		{name: "relative path", args: map[string]interface{}{"path": "utils.cpp"}, code: ErrorCodeInvalidParams},
		{name: "directory", args: map[string]interface{}{"path": dir}, code: ErrorCodeInvalidParams},
		{name: "undetectable language", args: map[string]interface{}{"path": readme}, code: ErrorCodeUnknownLanguage},
		{name: "unknown language", args: map[string]interface{}{"path": readme, "language": "cobol"}, code: ErrorCodeUnknownLanguage},
		{name: "bad unit", args: map[string]interface{}{"path": filepath.Join(dir, "utils.cpp"), "unit": "words"}, code: ErrorCodeInvalidParams},
		{name: "bad budget", args: map[string]interface{}{"path": filepath.Join(dir, "utils.cpp"), "max_size": float64(2), "min_size": float64(5)}, code: ErrorCodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callTool(t, server.handleChunkFile, tt.args)
			requireMCPCode(t, err, tt.code)
		})
	}
}

func TestIndexSearchStatus(t *testing.T) {
	server := newTestServer(t, nil)
	dir := writeProject(t)

	text, err := callTool(t, server.handleGetStatus, map[string]interface{}{"path": dir})
	require.NoError(t, err)
	assert.Contains(t, text, `"indexed": false`)

	_, err = callTool(t, server.handleSearchChunks, map[string]interface{}{"path": dir, "query": "calculate"})
	requireMCPCode(t, err, ErrorCodeNotIndexed)

	var stats map[string]interface{}
	text, err = callTool(t, server.handleIndexCodebase, map[string]interface{}{"path": dir})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text), &stats))
	assert.Equal(t, float64(2), stats["files_indexed"])
	assert.Equal(t, float64(0), stats["files_failed"])

	var found struct {
		Results      []types.SearchResult `json:"results"`
		TotalResults int                  `json:"total_results"`
	}
	text, err = callTool(t, server.handleSearchChunks, map[string]interface{}{"path": dir, "query": "calculate"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text), &found))
	require.Equal(t, 1, found.TotalResults)
	assert.Equal(t, "utils.cpp", found.Results[0].File.Path)
	assert.Equal(t, []string{"utils", "Helper", "calculate"}, found.Results[0].ScopePath)

	text, err = callTool(t, server.handleSearchChunks, map[string]interface{}{
		"path":  dir,
		"query": "calculate Helper",
		"kinds": []interface{}{"class"},
	})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text), &found))
	require.Equal(t, 1, found.TotalResults)
	assert.Equal(t, types.KindClass, found.Results[0].Kind)

	var status struct {
		Indexed    bool `json:"indexed"`
		Statistics struct {
			FilesCount int            `json:"files_count"`
			Languages  map[string]int `json:"languages"`
		} `json:"statistics"`
	}
	text, err = callTool(t, server.handleGetStatus, map[string]interface{}{"path": dir})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text), &status))
	assert.True(t, status.Indexed)
	assert.Equal(t, 2, status.Statistics.FilesCount)
	assert.Equal(t, map[string]int{"cpp": 1, "go": 1}, status.Statistics.Languages)

	text, err = callTool(t, server.handleIndexCodebase, map[string]interface{}{"path": dir})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text), &stats))
	assert.Equal(t, float64(0), stats["files_indexed"])
	assert.Equal(t, float64(2), stats["files_skipped"])
}

func TestSearchChunks_Errors(t *testing.T) {
	server := newTestServer(t, nil)
	dir := writeProject(t)
	_, err := callTool(t, server.handleIndexCodebase, map[string]interface{}{"path": dir})
	require.NoError(t, err)

	tests := []struct {
		name string
		args map[string]interface{}
		code int
	}{
		{name: "missing query", args: map[string]interface{}{"path": dir}, code: ErrorCodeEmptyQuery},
		{name: "punctuation only", args: map[string]interface{}{"path": dir, "query": "::"}, code: ErrorCodeEmptyQuery},
		{name: "limit too large", args: map[string]interface{}{"path": dir, "query": "x", "limit": float64(500)}, code: ErrorCodeInvalidParams},
		{name: "bad kind", args: map[string]interface{}{"path": dir, "query": "x", "kinds": []interface{}{"method"}}, code: ErrorCodeInvalidParams},
		{name: "missing dir", args: map[string]interface{}{"path": filepath.Join(dir, "nope"), "query": "x"}, code: ErrorCodeProjectNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callTool(t, server.handleSearchChunks, tt.args)
			requireMCPCode(t, err, tt.code)
		})
	}
}

func TestIndexCodebase_BadPattern(t *testing.T) {
	server := newTestServer(t, nil)
	dir := writeProject(t)

	_, err := callTool(t, server.handleIndexCodebase, map[string]interface{}{
		"path":    dir,
		"exclude": []interface{}{"src/[a"},
	})
	requireMCPCode(t, err, ErrorCodeInvalidParams)
}

func TestGetStringSlice(t *testing.T) {
	args := map[string]interface{}{
		"strings": []string{"a"},
		"mixed":   []interface{}{"a", 1, "b"},
		"wrong":   "a",
	}
	assert.Equal(t, []string{"a"}, getStringSlice(args, "strings", nil))
	assert.Equal(t, []string{"a", "b"}, getStringSlice(args, "mixed", nil))
	assert.Equal(t, []string{"d"}, getStringSlice(args, "wrong", []string{"d"}))
	assert.Nil(t, getStringSlice(args, "missing", nil))
}
