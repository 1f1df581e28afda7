package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/codechunk/internal/storage"
	"github.com/dshills/codechunk/pkg/types"
)

const (
	// DefaultLimit is used when a request does not set one
	DefaultLimit = 10
	// MaxLimit caps the number of results of one request
	MaxLimit = 100
	// DefaultCacheSize is the query cache capacity
	DefaultCacheSize = 1000
	// DefaultCacheTTL is the lifetime of a cached response
	DefaultCacheTTL = 5 * time.Minute
)

// ErrEmptyQuery is returned for a request without searchable words
var ErrEmptyQuery = storage.ErrEmptyQuery

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query     string
	Limit     int
	Filters   *storage.SearchFilters
	ProjectID int64
	UseCache  bool // Whether to use query cache
	CacheTTL  time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []types.SearchResult `json:"results"`
	TotalResults int                  `json:"total_results"`
	Duration     time.Duration        `json:"duration_ns"`
	CacheHit     bool                 `json:"cache_hit"`
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher runs keyword searches over indexed chunks
type Searcher struct {
	storage storage.Storage
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewSearcher creates a new Searcher with a query cache of cacheSize
// entries (DefaultCacheSize when cacheSize <= 0)
func NewSearcher(store storage.Storage, cacheSize int) *Searcher {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		// Only a non-positive size fails
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		storage: store,
		cache:   cache,
	}
}

// Search performs a BM25 keyword search
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	textResults, err := s.storage.SearchText(ctx, req.ProjectID, req.Query, req.Limit, req.Filters)
	if err != nil {
		return nil, err
	}

	results, err := s.fetchResults(ctx, textResults)
	if err != nil {
		return nil, err
	}

	response := &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(startTime),
	}

	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// fetchResults loads the chunk and file behind each hit
func (s *Searcher) fetchResults(ctx context.Context, hits []storage.TextResult) ([]types.SearchResult, error) {
	results := make([]types.SearchResult, 0, len(hits))
	files := make(map[int64]*storage.File)

	for _, hit := range hits {
		chunk, err := s.storage.GetChunk(ctx, hit.ChunkID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load chunk %d: %w", hit.ChunkID, err)
		}

		file, ok := files[chunk.FileID]
		if !ok {
			file, err = s.storage.GetFileByID(ctx, chunk.FileID)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to load file %d: %w", chunk.FileID, err)
			}
			files[chunk.FileID] = file
		}

		scope := chunk.ScopePath
		if scope == nil {
			scope = []string{}
		}
		results = append(results, types.SearchResult{
			ChunkID:        chunk.ID,
			Rank:           len(results) + 1,
			RelevanceScore: hit.BM25Score,
			File: &types.FileInfo{
				Path:      file.FilePath,
				Language:  file.Language,
				StartLine: chunk.StartLine,
				EndLine:   chunk.EndLine,
			},
			ScopePath:      scope,
			Kind:           chunk.Kind,
			Signature:      chunk.Signature,
			LeadingComment: chunk.LeadingComment,
			SequenceIndex:  chunk.SequenceIndex,
			Content:        chunk.Content,
		})
	}

	return results, nil
}

// validateRequest ensures search request is valid and fills defaults
func validateRequest(req *SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return ErrEmptyQuery
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	if req.CacheTTL <= 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	return nil
}

// checkCache returns a copy of a live cached response, or nil
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := &SearchResponse{
		TotalResults: src.TotalResults,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		Results:      make([]types.SearchResult, len(src.Results)),
	}

	for i, result := range src.Results {
		dst.Results[i] = result
		dst.Results[i].ScopePath = slices.Clone(result.ScopePath)
		if result.File != nil {
			fileCopy := *result.File
			dst.Results[i].File = &fileCopy
		}
		if result.SequenceIndex != nil {
			seq := *result.SequenceIndex
			dst.Results[i].SequenceIndex = &seq
		}
	}

	return dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	var data strings.Builder
	fmt.Fprintf(&data, "%s|%d|%d", req.Query, req.ProjectID, req.Limit)

	if req.Filters != nil {
		kinds := make([]string, len(req.Filters.Kinds))
		for i, k := range req.Filters.Kinds {
			kinds[i] = string(k)
		}
		slices.Sort(kinds)
		fmt.Fprintf(&data, "|filters:%s|%s|%s|%.2f",
			strings.Join(kinds, ","),
			req.Filters.ScopePrefix,
			req.Filters.FilePattern,
			req.Filters.MinRelevance)
	}

	return sha256.Sum256([]byte(data.String()))
}

// InvalidateCache drops cached queries after the index changed. The cache
// is not keyed for per-project removal, so every entry goes.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen reports the number of cached responses
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}
