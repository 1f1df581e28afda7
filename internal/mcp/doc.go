// Package mcp implements the Model Context Protocol (MCP) server for codechunk.
//
// The server exposes four tools to AI coding assistants:
//   - chunk_file: Split one file into scope-aware chunks
//   - index_codebase: Chunk and index a project for search
//   - search_chunks: Keyword search over indexed chunks
//   - get_status: Check indexing status and statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started with:
//
//	codechunk serve
//
// # Tool: chunk_file
//
//	Request:
//	{
//	  "name": "chunk_file",
//	  "arguments": {
//	    "path": "/path/to/project/src/helper.cpp",
//	    "max_size": 256,
//	    "unit": "tokens"
//	  }
//	}
//
//	Response:
//	{
//	  "path": "/path/to/project/src/helper.cpp",
//	  "language": "cpp",
//	  "chunks": [
//	    {
//	      "scope_path": ["utils", "Helper", "calculate"],
//	      "kind": "function",
//	      "signature": "int calculate(int v)",
//	      "start_line": 4,
//	      "end_line": 6,
//	      "content": "..."
//	    }
//	  ],
//	  "flags": {},
//	  "cache_hit": false
//	}
//
// A file that cannot be chunked still returns a result; its "error" field
// holds the diagnostic and "chunks" is empty.
//
// # Tool: index_codebase
//
//	Request:
//	{
//	  "name": "index_codebase",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "force_reindex": false,
//	    "exclude": ["third_party/**"]
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "files_indexed": 247,
//	  "files_skipped": 89,
//	  "files_failed": 1,
//	  "chunks_created": 3120,
//	  "errors": ["src/gen.cpp: malformed nesting: ..."]
//	}
//
// # Tool: search_chunks
//
//	Request:
//	{
//	  "name": "search_chunks",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "query": "parse header",
//	    "kinds": ["function"],
//	    "scope_prefix": "net::http",
//	    "file_pattern": "src/**"
//	  }
//	}
//
// Results carry rank, relevance score, file path and lines, scope path,
// kind, signature, leading comment and content.
//
// # Tool: get_status
//
// Reports whether the project is indexed, file and chunk counts (failed
// files, truncated and oversized chunks, files per language) and index
// health.
//
// # Error Handling
//
// Handlers return *MCPError values with JSON-RPC codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Project path missing or not a directory
//   - -32002: Indexing in progress
//   - -32003: Project not indexed
//   - -32004: Empty query
//   - -32005: Unknown language
//
// # Logging
//
// Logs go to stderr; stdout is reserved for the protocol. Set the level
// with CODECHUNK_LOG_LEVEL or --log-level.
package mcp
