package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/codechunk/internal/cache"
	"github.com/dshills/codechunk/internal/chunker"
	"github.com/dshills/codechunk/internal/config"
	"github.com/dshills/codechunk/internal/indexer"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/internal/searcher"
	"github.com/dshills/codechunk/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "codechunk"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	log      *slog.Logger
	storage  storage.Storage
	engines  *chunker.Engines
	cache    *cache.Cache // nil when disabled
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
}

// NewServer creates a new MCP server instance from a validated configuration
func NewServer(cfg *config.Config, log *slog.Logger) (*Server, error) {
	log = logger.OrDefault(log)

	engines, err := cfg.Engines()
	if err != nil {
		return nil, fmt.Errorf("failed to build chunking engines: %w", err)
	}

	dbPath, err := config.ExpandPath(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var resultCache *cache.Cache
	if cfg.Cache.Enabled {
		cachePath, err := config.ExpandPath(cfg.Cache.Path)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		resultCache, err = cache.Open(cachePath)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to open result cache: %w", err)
		}
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		cfg:      cfg,
		log:      log,
		storage:  store,
		engines:  engines,
		cache:    resultCache,
		indexer:  indexer.New(store, engines, log),
		searcher: searcher.NewSearcher(store, cfg.Search.CacheSize),
	}

	s.registerTools()
	log.Debug("mcp server initialized", "db", dbPath, "cache", cfg.Cache.Enabled)

	return s, nil
}

// Serve runs the MCP server on stdio until ctx is canceled or stdin
// closes, then releases storage and the cache
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()
	s.log.Info("serving MCP on stdio", "name", ServerName, "version", ServerVersion)

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.log.Handler(), slog.LevelError))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Close releases storage and the result cache
func (s *Server) Close() error {
	cacheErr := s.cache.Close()
	if err := s.storage.Close(); err != nil {
		return err
	}
	return cacheErr
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(chunkFileTool(), s.handleChunkFile)
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(searchChunksTool(), s.handleSearchChunks)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
