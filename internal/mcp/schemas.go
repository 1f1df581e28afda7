package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codechunk/pkg/types"
)

var declKinds = kindNames()

func kindNames() []string {
	names := make([]string, len(types.AllKinds))
	for i, k := range types.AllKinds {
		names[i] = string(k)
	}
	return names
}

// chunkFileTool returns the tool definition for chunk_file
func chunkFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_file",
		Description: "Split one source file into scope-aware chunks with signatures and leading comments",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the source file",
				},
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Language name or alias; detected from the extension when omitted",
				},
				"max_size": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum chunk size in the configured unit",
					"minimum":     1,
				},
				"min_size": map[string]interface{}{
					"type":        "integer",
					"description": "Small sibling declarations are merged while their combined size stays below this",
					"minimum":     0,
				},
				"unit": map[string]interface{}{
					"type":        "string",
					"description": "Size unit",
					"enum":        []string{"tokens", "lines", "bytes"},
				},
			},
			Required: []string{"path"},
		},
	}
}

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_codebase",
		Description: "Chunk and index every supported source file of a project to make it searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-chunk all files ignoring file hashes (full rebuild)",
					"default":     false,
				},
				"include": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns of relative paths to index (e.g., 'src/**')",
					"items":       map[string]interface{}{"type": "string"},
				},
				"exclude": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns of relative paths to skip (e.g., '**/*_test.go')",
					"items":       map[string]interface{}{"type": "string"},
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchChunksTool returns the tool definition for search_chunks
func searchChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Keyword search over the indexed chunks of a project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed project",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search keywords",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"kinds": map[string]interface{}{
					"type":        "array",
					"description": "Filter by declaration kind",
					"items": map[string]interface{}{
						"type": "string",
						"enum": declKinds,
					},
				},
				"scope_prefix": map[string]interface{}{
					"type":        "string",
					"description": "Only chunks at or below this scope path, segments joined by '::'",
				},
				"file_pattern": map[string]interface{}{
					"type":        "string",
					"description": "Glob pattern for file paths (e.g., 'src/**/*.cpp')",
				},
				"min_relevance": map[string]interface{}{
					"type":        "number",
					"description": "Minimum relevance score threshold (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root",
				},
			},
			Required: []string{"path"},
		},
	}
}
