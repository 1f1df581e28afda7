// Package searcher implements keyword search over indexed chunks.
//
// Queries go to the SQLite FTS5 index through storage.Storage.SearchText,
// which ranks by BM25 over chunk content, scope path, signature and leading
// comment. The searcher then loads each hit's chunk and file and returns
// types.SearchResult values carrying the file path, line range, scope
// path, kind, signature and content.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, 1000)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    ProjectID: project.ID,
//	    Query:     "parse header",
//	    Limit:     10,
//	    Filters: &storage.SearchFilters{
//	        Kinds:       []types.DeclKind{types.KindFunction},
//	        ScopePrefix: "net::http",
//	        FilePattern: "src/**/*.cpp",
//	    },
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s:%d %s (score: %.2f)\n",
//	        r.Rank, r.File.Path, r.File.StartLine, r.Signature, r.RelevanceScore)
//	}
//
// # Query Syntax
//
// The query is split into words; each word is quoted and the words are
// OR-ed, so FTS5 operators in user input are inert. Scores are normalized
// to (0, 1], higher is better.
//
// # Caching
//
// With UseCache set, responses are kept in an LRU cache keyed by the
// query, project, limit and filters, and expire after CacheTTL (default
// five minutes). Cached responses are deep-copied on the way in and out.
// Call InvalidateCache after re-indexing.
package searcher
