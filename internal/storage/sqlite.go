package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrEmptyQuery is returned when a search query has no searchable words
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for maintenance tasks
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Project operations

const projectColumns = `id, root_path, total_files, total_chunks, index_version,
	config_fingerprint, last_indexed_at, created_at, updated_at`

func scanProject(row rowScanner) (*Project, error) {
	var project Project
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&project.ID, &project.RootPath, &project.TotalFiles, &project.TotalChunks,
		&project.IndexVersion, &project.ConfigFingerprint,
		&lastIndexedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		project.LastIndexedAt = lastIndexedAt.Time
	}
	return &project, nil
}

func (s *SQLiteStorage) createProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		INSERT INTO projects (root_path, index_version, config_fingerprint, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		project.RootPath, project.IndexVersion, project.ConfigFingerprint, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("project %s: %w", project.RootPath, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = id
	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return s.createProjectWithQuerier(ctx, s.querier(), project)
}

func (s *SQLiteStorage) getProjectWithQuerier(ctx context.Context, q querier, rootPath string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE root_path = ?`
	return scanProject(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return s.getProjectWithQuerier(ctx, s.querier(), rootPath)
}

func (s *SQLiteStorage) getProjectByIDWithQuerier(ctx context.Context, q querier, projectID int64) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(q.QueryRowContext(ctx, query, projectID))
}

func (s *SQLiteStorage) GetProjectByID(ctx context.Context, projectID int64) (*Project, error) {
	return s.getProjectByIDWithQuerier(ctx, s.querier(), projectID)
}

func (s *SQLiteStorage) updateProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		UPDATE projects
		SET total_files = ?, total_chunks = ?, index_version = ?, config_fingerprint = ?,
		    last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		project.TotalFiles, project.TotalChunks, project.IndexVersion, project.ConfigFingerprint,
		project.LastIndexedAt, now, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return s.updateProjectWithQuerier(ctx, s.querier(), project)
}

// File operations

const fileColumns = `id, project_id, file_path, language, content_hash, mod_time,
	size_bytes, chunk_error, last_indexed_at, created_at, updated_at`

func scanFile(row rowScanner) (*File, error) {
	var file File
	var hash []byte
	var chunkError sql.NullString
	var modTime sql.NullTime
	err := row.Scan(
		&file.ID, &file.ProjectID, &file.FilePath, &file.Language,
		&hash, &modTime, &file.SizeBytes, &chunkError,
		&file.LastIndexedAt, &file.CreatedAt, &file.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(file.ContentHash[:], hash)
	if modTime.Valid {
		file.ModTime = modTime.Time
	}
	if chunkError.Valid {
		file.ChunkError = &chunkError.String
	}
	return &file, nil
}

func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (project_id, file_path, language, content_hash, mod_time, size_bytes, chunk_error, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, file_path) DO UPDATE SET
			language = excluded.language,
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			chunk_error = excluded.chunk_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.ProjectID, file.FilePath, file.Language, file.ContentHash[:],
		file.ModTime, file.SizeBytes, file.ChunkError, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.LastIndexedAt = now
	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, projectID int64, filePath string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? AND file_path = ?`
	return scanFile(q.QueryRowContext(ctx, query, projectID, filePath))
}

func (s *SQLiteStorage) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return s.getFileWithQuerier(ctx, s.querier(), projectID, filePath)
}

func (s *SQLiteStorage) getFileByIDWithQuerier(ctx context.Context, q querier, fileID int64) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`
	return scanFile(q.QueryRowContext(ctx, query, fileID))
}

func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return s.getFileByIDWithQuerier(ctx, s.querier(), fileID)
}

func (s *SQLiteStorage) deleteFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, fileID)
	return err
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return s.deleteFileWithQuerier(ctx, s.querier(), fileID)
}

func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier, projectID int64) ([]*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return s.listFilesWithQuerier(ctx, s.querier(), projectID)
}

// Chunk operations

const chunkColumns = `id, file_id, chunk_key, start_offset, end_offset, segments,
	start_line, end_line, scope_path, kind, name, signature, leading_comment,
	modifiers, sequence_index, truncated, oversized, merged, token_count, size,
	content, content_hash, created_at`

func scanChunk(row rowScanner) (*Chunk, error) {
	var chunk Chunk
	var segments, scopePath string
	var name, signature, leading, modifiers sql.NullString
	var seq sql.NullInt64
	var hash []byte
	err := row.Scan(
		&chunk.ID, &chunk.FileID, &chunk.Key, &chunk.StartOffset, &chunk.EndOffset, &segments,
		&chunk.StartLine, &chunk.EndLine, &scopePath, &chunk.Kind, &name, &signature, &leading,
		&modifiers, &seq, &chunk.Truncated, &chunk.Oversized, &chunk.Merged, &chunk.TokenCount, &chunk.Size,
		&chunk.Content, &hash, &chunk.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(segments), &chunk.Segments); err != nil {
		return nil, fmt.Errorf("chunk %d: invalid segments: %w", chunk.ID, err)
	}
	if err := json.Unmarshal([]byte(scopePath), &chunk.ScopePath); err != nil {
		return nil, fmt.Errorf("chunk %d: invalid scope path: %w", chunk.ID, err)
	}
	if modifiers.Valid && modifiers.String != "" {
		if err := json.Unmarshal([]byte(modifiers.String), &chunk.Modifiers); err != nil {
			return nil, fmt.Errorf("chunk %d: invalid modifiers: %w", chunk.ID, err)
		}
	}
	chunk.Name = name.String
	chunk.Signature = signature.String
	chunk.LeadingComment = leading.String
	if seq.Valid {
		i := int(seq.Int64)
		chunk.SequenceIndex = &i
	}
	copy(chunk.ContentHash[:], hash)
	return &chunk, nil
}

func (s *SQLiteStorage) upsertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	segments, err := json.Marshal(chunk.Segments)
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}
	scope := chunk.ScopePath
	if scope == nil {
		scope = []string{}
	}
	scopePath, err := json.Marshal(scope)
	if err != nil {
		return fmt.Errorf("failed to encode scope path: %w", err)
	}
	var modifiers interface{}
	if len(chunk.Modifiers) > 0 {
		b, err := json.Marshal(chunk.Modifiers)
		if err != nil {
			return fmt.Errorf("failed to encode modifiers: %w", err)
		}
		modifiers = string(b)
	}
	var seq interface{}
	if chunk.SequenceIndex != nil {
		seq = *chunk.SequenceIndex
	}

	// Use atomic INSERT ... ON CONFLICT to avoid race conditions
	query := `
		INSERT INTO chunks (
			file_id, chunk_key, start_offset, end_offset, segments, start_line, end_line,
			scope, scope_path, kind, name, signature, leading_comment, modifiers,
			sequence_index, truncated, oversized, merged, token_count, size,
			content, content_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id, chunk_key)
		DO UPDATE SET
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			segments = excluded.segments,
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			scope = excluded.scope,
			scope_path = excluded.scope_path,
			kind = excluded.kind,
			name = excluded.name,
			signature = excluded.signature,
			leading_comment = excluded.leading_comment,
			modifiers = excluded.modifiers,
			sequence_index = excluded.sequence_index,
			truncated = excluded.truncated,
			oversized = excluded.oversized,
			merged = excluded.merged,
			token_count = excluded.token_count,
			size = excluded.size,
			content = excluded.content,
			content_hash = excluded.content_hash
		RETURNING id, created_at
	`
	err = q.QueryRowContext(ctx, query,
		chunk.FileID, chunk.Key, chunk.StartOffset, chunk.EndOffset, string(segments),
		chunk.StartLine, chunk.EndLine, chunk.Scope(), string(scopePath), string(chunk.Kind),
		chunk.Name, chunk.Signature, chunk.LeadingComment, modifiers, seq,
		chunk.Truncated, chunk.Oversized, chunk.Merged, chunk.TokenCount, chunk.Size,
		chunk.Content, chunk.ContentHash[:], time.Now(),
	).Scan(&chunk.ID, &chunk.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.upsertChunkWithQuerier(ctx, s.querier(), chunk)
}

func (s *SQLiteStorage) getChunkWithQuerier(ctx context.Context, q querier, chunkID int64) (*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE id = ?`
	return scanChunk(q.QueryRowContext(ctx, query, chunkID))
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return s.getChunkWithQuerier(ctx, s.querier(), chunkID)
}

func (s *SQLiteStorage) listChunksByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Chunk, error) {
	query := `SELECT ` + chunkColumns + ` FROM chunks WHERE file_id = ? ORDER BY start_offset, sequence_index`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error) {
	return s.listChunksByFileWithQuerier(ctx, s.querier(), fileID)
}

func (s *SQLiteStorage) deleteChunkWithQuerier(ctx context.Context, q querier, chunkID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE id = ?`, chunkID)
	return err
}

func (s *SQLiteStorage) DeleteChunk(ctx context.Context, chunkID int64) error {
	return s.deleteChunkWithQuerier(ctx, s.querier(), chunkID)
}

func (s *SQLiteStorage) deleteChunksBatchWithQuerier(ctx context.Context, q querier, chunkIDs []int64) (int, error) {
	if len(chunkIDs) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(chunkIDs))
	args := make([]interface{}, len(chunkIDs))
	for i, id := range chunkIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`DELETE FROM chunks WHERE id IN (%s)`, strings.Join(placeholders, ","))
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStorage) DeleteChunksBatch(ctx context.Context, chunkIDs []int64) (int, error) {
	return s.deleteChunksBatchWithQuerier(ctx, s.querier(), chunkIDs)
}

func (s *SQLiteStorage) deleteChunksByFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE file_id = ?`, fileID)
	return err
}

func (s *SQLiteStorage) DeleteChunksByFile(ctx context.Context, fileID int64) error {
	return s.deleteChunksByFileWithQuerier(ctx, s.querier(), fileID)
}

// Search operations

func (s *SQLiteStorage) SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, s.querier(), projectID, query, limit, filters)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, projectID int64) (*ProjectStatus, error) {
	project, err := s.getProjectByIDWithQuerier(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Project:       project,
		LastIndexedAt: project.LastIndexedAt,
		Languages:     make(map[string]int),
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(chunk_error) FROM files WHERE project_id = ?
	`, projectID).Scan(&status.FilesCount, &status.FailedFiles)
	if err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(c.truncated), 0), COALESCE(SUM(c.oversized), 0)
		FROM chunks c
		JOIN files f ON c.file_id = f.id
		WHERE f.project_id = ?
	`, projectID).Scan(&status.ChunksCount, &status.TruncatedChunks, &status.OversizedChunks)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT language, COUNT(*) FROM files WHERE project_id = ? GROUP BY language
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var language string
		var n int
		if err := rows.Scan(&language, &n); err != nil {
			return nil, err
		}
		status.Languages[language] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	var ftsName string
	ftsErr := q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE name = 'chunks_fts'").Scan(&ftsName)
	status.Health = HealthStatus{
		DatabaseAccessible: true,
		FTSIndexesBuilt:    ftsErr == nil,
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), projectID)
}

// Transaction methods delegate to the storage helpers with the
// transaction querier so reads observe uncommitted writes

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return t.storage.createProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return t.storage.getProjectWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) GetProjectByID(ctx context.Context, projectID int64) (*Project, error) {
	return t.storage.getProjectByIDWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return t.storage.updateProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return t.storage.getFileByIDWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return t.storage.listFilesWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return t.storage.upsertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return t.storage.getChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error) {
	return t.storage.listChunksByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteChunk(ctx context.Context, chunkID int64) error {
	return t.storage.deleteChunkWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) DeleteChunksBatch(ctx context.Context, chunkIDs []int64) (int, error) {
	return t.storage.deleteChunksBatchWithQuerier(ctx, t.querier(), chunkIDs)
}

func (t *sqliteTx) DeleteChunksByFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteChunksByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, t.querier(), projectID, query, limit, filters)
}

func (t *sqliteTx) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}

// compile-time interface checks
var (
	_ Storage = (*SQLiteStorage)(nil)
	_ Tx      = (*sqliteTx)(nil)
)
