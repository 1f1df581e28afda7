// Package indexer keeps a SQLite index of chunked source files in sync with
// a directory tree.
//
// # Basic Usage
//
//	engines, _ := chunker.NewEngines(chunker.DefaultConfig(), nil)
//	idx := indexer.New(store, engines, log)
//
//	stats, err := idx.IndexProject(ctx, "/path/to/project", &indexer.Config{
//	    Exclude: []string{"third_party/**"},
//	})
//
//	fmt.Printf("Indexed %d files in %v\n", stats.FilesIndexed, stats.Duration)
//
// # Indexing Pipeline
//
//  1. Discovery: walk the tree, skipping hidden, vendor and node_modules
//     directories; keep files whose extension maps to a known language (or
//     every file when the engines force a language); apply the doublestar
//     Include and Exclude globs to slash-separated relative paths.
//  2. Removal: stored files that no longer exist are deleted with their chunks.
//  3. Per batch: read and hash files concurrently, chunk the changed ones
//     through Engines.ChunkFiles, and write them in one transaction.
//  4. Project totals and the configuration fingerprint are updated.
//
// # Incremental Indexing
//
// A file whose SHA-256 content hash matches the stored hash is skipped.
// Config.Force disables the check, and so does a change of the chunking
// configuration: the project records the fingerprint of the configuration
// it was indexed with.
//
// # Error Handling
//
// Only storage failures and cancellation abort a run. A file that cannot be
// read is counted in FilesFailed and left untouched in the index. A file
// that cannot be chunked (malformed nesting) is stored with its diagnostic
// in files.chunk_error and no chunks, and is also counted in FilesFailed.
// Both are logged at warn level and listed in Statistics.ErrorMessages.
//
// IndexProject returns ErrIndexInProgress when the same Indexer is already
// running.
package indexer
