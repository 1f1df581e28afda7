// Package storage provides SQLite-based persistence for indexed chunks.
//
// The storage layer manages:
//   - Project metadata and the chunking configuration fingerprint
//   - File information, content hashes and chunking errors
//   - Emitted chunks with their segments, scope paths and flags
//   - Full-text search indexes
//
// # Database Schema
//
// Tables:
//   - projects: Project root path, totals, last indexing time
//   - files: File paths, languages and SHA-256 hashes
//   - chunks: Chunks with segments (JSON), scope path, kind, signature
//   - chunks_fts: FTS5 index over content, scope, signature, leading comment
//   - schema_version: Applied migrations, compared as semantic versions
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("/path/to/codechunk.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	file := &storage.File{ProjectID: project.ID, FilePath: "src/a.cpp", Language: "cpp"}
//	if err := store.UpsertFile(ctx, file); err != nil {
//	    return err
//	}
//
// # Transactions
//
// Replacing the chunks of a file is done in one transaction:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.DeleteChunksByFile(ctx, file.ID)
//	for i := range res.Chunks {
//	    _ = tx.UpsertChunk(ctx, storage.FromTypesChunk(&res.Chunks[i], file.ID))
//	}
//	return tx.Commit()
//
// # Search
//
// SearchText ranks chunks with FTS5 bm25(). Query text is split into terms
// that are quoted before matching, so FTS5 operators in user input have no
// effect. Kind and scope prefix filters run in SQL; file patterns are
// doublestar globs applied to the matched rows.
//
// # Build Modes
//
// The default build uses the pure Go driver modernc.org/sqlite. Building
// with the sqlite_cgo tag switches to github.com/mattn/go-sqlite3 (cgo),
// which must be compiled with FTS5 support:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5" ./...
package storage
