package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/dshills/codechunk/internal/storage"
	"github.com/dshills/codechunk/pkg/types"
)

// setupTestSearcher creates a searcher over in-memory storage with one project
func setupTestSearcher(t *testing.T) (*Searcher, storage.Storage, *storage.Project) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	project := &storage.Project{
		RootPath:     "/test/search",
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}

	return NewSearcher(store, 0), store, project
}

// seedChunks stores a small C++ file and a Go file
func seedChunks(t *testing.T, store storage.Storage, project *storage.Project) {
	t.Helper()

	createTestFileAndChunk(t, store, project, "src/math.cpp", "cpp", &storage.Chunk{
		Key:       "calc",
		ScopePath: []string{"utils", "Helper", "calculate"},
		Kind:      types.KindFunction,
		Name:      "calculate",
		Signature: "int calculate(int v)",
		Content:   "int calculate(int v) {\n    return v * 2;\n}\n",
		StartLine: 4,
		EndLine:   6,
	})
	createTestFileAndChunk(t, store, project, "src/math.cpp", "cpp", &storage.Chunk{
		Key:       "helper",
		ScopePath: []string{"utils", "Helper"},
		Kind:      types.KindClass,
		Name:      "Helper",
		Signature: "class Helper",
		Content:   "class Helper {\npublic:\n",
		StartLine: 2,
		EndLine:   3,
	})
	createTestFileAndChunk(t, store, project, "cmd/main.go", "go", &storage.Chunk{
		Key:       "main",
		ScopePath: []string{"main"},
		Kind:      types.KindFunction,
		Name:      "main",
		Signature: "func main()",
		Content:   "func main() {\n\tcalculate(2)\n}\n",
		StartLine: 3,
		EndLine:   5,
	})
}

// TestNewSearcher verifies searcher creation
func TestNewSearcher(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	searcher := NewSearcher(store, 0)
	if searcher.storage != store {
		t.Error("searcher storage not set correctly")
	}
	if searcher.CacheLen() != 0 {
		t.Errorf("expected empty cache, got %d entries", searcher.CacheLen())
	}
}

// TestValidateRequest tests request validation and defaults
func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       SearchRequest
		wantErr   bool
		wantLimit int
		wantTTL   time.Duration
	}{
		{name: "EmptyQuery", req: SearchRequest{Query: ""}, wantErr: true},
		{name: "BlankQuery", req: SearchRequest{Query: "  \t"}, wantErr: true},
		{name: "Defaults", req: SearchRequest{Query: "x"}, wantLimit: DefaultLimit, wantTTL: DefaultCacheTTL},
		{name: "LimitCapped", req: SearchRequest{Query: "x", Limit: 1000}, wantLimit: MaxLimit, wantTTL: DefaultCacheTTL},
		{name: "Kept", req: SearchRequest{Query: "x", Limit: 3, CacheTTL: time.Second}, wantLimit: 3, wantTTL: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := validateRequest(&req)
			if tt.wantErr {
				if !errors.Is(err, ErrEmptyQuery) {
					t.Fatalf("expected ErrEmptyQuery, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", req.Limit, tt.wantLimit)
			}
			if req.CacheTTL != tt.wantTTL {
				t.Errorf("ttl = %v, want %v", req.CacheTTL, tt.wantTTL)
			}
		})
	}
}

// TestComputeQueryHash tests that every request field that changes results changes the hash
func TestComputeQueryHash(t *testing.T) {
	base := SearchRequest{Query: "test", ProjectID: 1, Limit: 10}
	withFilters := func(f storage.SearchFilters) SearchRequest {
		r := base
		r.Filters = &f
		return r
	}

	tests := []struct {
		name     string
		req1     SearchRequest
		req2     SearchRequest
		shouldEq bool
	}{
		{name: "IdenticalRequests", req1: base, req2: base, shouldEq: true},
		{name: "DifferentQuery", req1: base, req2: SearchRequest{Query: "other", ProjectID: 1, Limit: 10}},
		{name: "DifferentProject", req1: base, req2: SearchRequest{Query: "test", ProjectID: 2, Limit: 10}},
		{name: "DifferentLimit", req1: base, req2: SearchRequest{Query: "test", ProjectID: 1, Limit: 5}},
		{name: "FiltersVsNone", req1: base, req2: withFilters(storage.SearchFilters{Kinds: []types.DeclKind{types.KindClass}})},
		{
			name:     "KindOrderIgnored",
			req1:     withFilters(storage.SearchFilters{Kinds: []types.DeclKind{types.KindClass, types.KindFunction}}),
			req2:     withFilters(storage.SearchFilters{Kinds: []types.DeclKind{types.KindFunction, types.KindClass}}),
			shouldEq: true,
		},
		{
			name: "DifferentScope",
			req1: withFilters(storage.SearchFilters{ScopePrefix: "a"}),
			req2: withFilters(storage.SearchFilters{ScopePrefix: "b"}),
		},
		{
			name: "DifferentPattern",
			req1: withFilters(storage.SearchFilters{FilePattern: "**/*.go"}),
			req2: withFilters(storage.SearchFilters{FilePattern: "**/*.cpp"}),
		},
		{
			name:     "CacheSettingsIgnored",
			req1:     base,
			req2:     SearchRequest{Query: "test", ProjectID: 1, Limit: 10, UseCache: true, CacheTTL: time.Hour},
			shouldEq: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq := computeQueryHash(tt.req1) == computeQueryHash(tt.req2)
			if eq != tt.shouldEq {
				t.Errorf("hash equality = %v, want %v", eq, tt.shouldEq)
			}
		})
	}
}

// TestSearch tests a keyword search end to end
func TestSearch(t *testing.T) {
	search, store, project := setupTestSearcher(t)
	seedChunks(t, store, project)
	ctx := context.Background()

	resp, err := search.Search(ctx, SearchRequest{Query: "calculate", ProjectID: project.ID})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if resp.TotalResults != 2 || len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", resp.TotalResults)
	}
	if resp.CacheHit {
		t.Error("expected no cache hit")
	}

	for i, r := range resp.Results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, r.Rank)
		}
		if err := r.Validate(); err != nil {
			t.Errorf("result %d invalid: %v", i, err)
		}
	}

	var calc *types.SearchResult
	for i := range resp.Results {
		if resp.Results[i].File.Path == "src/math.cpp" {
			calc = &resp.Results[i]
		}
	}
	if calc == nil {
		t.Fatal("math.cpp result missing")
	}
	if calc.File.Language != "cpp" || calc.File.StartLine != 4 || calc.File.EndLine != 6 {
		t.Errorf("unexpected file info: %+v", calc.File)
	}
	if calc.Kind != types.KindFunction || calc.Signature != "int calculate(int v)" {
		t.Errorf("unexpected metadata: kind=%s signature=%q", calc.Kind, calc.Signature)
	}
	if len(calc.ScopePath) != 3 || calc.ScopePath[2] != "calculate" {
		t.Errorf("unexpected scope path: %v", calc.ScopePath)
	}
}

// TestSearchWithFilters tests that filters reach storage
func TestSearchWithFilters(t *testing.T) {
	search, store, project := setupTestSearcher(t)
	seedChunks(t, store, project)
	ctx := context.Background()

	tests := []struct {
		name    string
		query   string
		filters *storage.SearchFilters
		want    int
	}{
		{name: "Kind", query: "Helper calculate", filters: &storage.SearchFilters{Kinds: []types.DeclKind{types.KindClass}}, want: 1},
		{name: "Scope", query: "calculate", filters: &storage.SearchFilters{ScopePrefix: "utils::Helper"}, want: 1},
		{name: "Pattern", query: "calculate", filters: &storage.SearchFilters{FilePattern: "cmd/**"}, want: 1},
		{name: "NoMatch", query: "calculate", filters: &storage.SearchFilters{FilePattern: "**/*.rs"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := search.Search(ctx, SearchRequest{Query: tt.query, ProjectID: project.ID, Filters: tt.filters})
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(resp.Results) != tt.want {
				t.Errorf("got %d results, want %d", len(resp.Results), tt.want)
			}
		})
	}
}

// TestSearchWithCache tests cache hits, isolation and invalidation
func TestSearchWithCache(t *testing.T) {
	search, store, project := setupTestSearcher(t)
	seedChunks(t, store, project)
	ctx := context.Background()

	req := SearchRequest{
		Query:     "calculate",
		ProjectID: project.ID,
		UseCache:  true,
		CacheTTL:  time.Hour,
	}

	first, err := search.Search(ctx, req)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if first.CacheHit {
		t.Error("first search should miss the cache")
	}
	first.Results[0].Content = "mutated"

	second, err := search.Search(ctx, req)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !second.CacheHit {
		t.Error("second search should hit the cache")
	}
	if second.Results[0].Content == "mutated" {
		t.Error("cached response shares memory with a returned response")
	}

	search.InvalidateCache()
	if search.CacheLen() != 0 {
		t.Errorf("cache not purged: %d entries", search.CacheLen())
	}
	third, err := search.Search(ctx, req)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if third.CacheHit {
		t.Error("search after invalidation should miss the cache")
	}
}

// TestCheckCacheExpired tests that expired entries are evicted on lookup
func TestCheckCacheExpired(t *testing.T) {
	search, _, _ := setupTestSearcher(t)
	req := SearchRequest{Query: "old", Limit: 10}

	search.cache.Add(computeQueryHash(req), &cacheEntry{
		response:  &SearchResponse{TotalResults: 1},
		expiresAt: time.Now().Add(-time.Minute),
	})

	if got := search.checkCache(req); got != nil {
		t.Fatalf("expected expired entry to miss, got %+v", got)
	}
	if search.CacheLen() != 0 {
		t.Error("expired entry was not removed")
	}
}

// TestFetchResultsWithMissingChunks tests that stale hits are skipped
func TestFetchResultsWithMissingChunks(t *testing.T) {
	search, store, project := setupTestSearcher(t)
	_, chunk := createTestFileAndChunk(t, store, project, "a.go", "go", &storage.Chunk{
		Key:     "a",
		Kind:    types.KindFunction,
		Content: "func A() {}",
	})

	results, err := search.fetchResults(context.Background(), []storage.TextResult{
		{ChunkID: 99999, BM25Score: 0.9},
		{ChunkID: chunk.ID, BM25Score: 0.5},
	})
	if err != nil {
		t.Fatalf("fetchResults failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Rank != 1 || results[0].ChunkID != chunk.ID {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if results[0].ScopePath == nil {
		t.Error("scope path should be empty, not nil")
	}
}

// TestSearchEmptyQuery tests request validation through Search
func TestSearchEmptyQuery(t *testing.T) {
	search, _, project := setupTestSearcher(t)
	_, err := search.Search(context.Background(), SearchRequest{ProjectID: project.ID})
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

// Helper functions

func createTestFileAndChunk(t *testing.T, store storage.Storage, project *storage.Project, filePath, language string, chunk *storage.Chunk) (*storage.File, *storage.Chunk) {
	t.Helper()
	ctx := context.Background()

	file, err := store.GetFile(ctx, project.ID, filePath)
	if errors.Is(err, storage.ErrNotFound) {
		file = &storage.File{
			ProjectID:   project.ID,
			FilePath:    filePath,
			Language:    language,
			ContentHash: sha256.Sum256([]byte(filePath)),
			ModTime:     time.Now(),
		}
		err = store.UpsertFile(ctx, file)
	}
	if err != nil {
		t.Fatalf("file setup failed: %v", err)
	}

	chunk.FileID = file.ID
	chunk.ContentHash = sha256.Sum256([]byte(chunk.Content))
	chunk.EndOffset = chunk.StartOffset + len(chunk.Content)
	chunk.Segments = []types.Span{{Start: chunk.StartOffset, End: chunk.EndOffset}}
	chunk.TokenCount = 10
	chunk.Size = 10
	if err := store.UpsertChunk(ctx, chunk); err != nil {
		t.Fatalf("UpsertChunk failed: %v", err)
	}

	return file, chunk
}
