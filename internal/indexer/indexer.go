package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/codechunk/internal/chunker"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/internal/storage"
	"github.com/dshills/codechunk/pkg/types"
)

// ErrIndexInProgress is returned when IndexProject is called while another
// run of the same indexer has not finished
var ErrIndexInProgress = errors.New("indexing already in progress")

// DefaultBatchSize is the number of files committed per transaction
const DefaultBatchSize = 20

// skipDirs are never descended into
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
}

// Indexer coordinates the indexing pipeline: discover -> chunk -> store
type Indexer struct {
	storage storage.Storage
	engines *chunker.Engines
	log     *slog.Logger
	lock    IndexLock
}

// Config contains configuration for one indexing run
type Config struct {
	Workers      int      // Number of concurrent workers (default: runtime.NumCPU())
	BatchSize    int      // Number of files to commit per transaction (default: 20)
	Include      []string // doublestar globs on slash-separated relative paths; empty means all
	Exclude      []string // doublestar globs; a match removes the file
	MaxFileBytes int64    // Larger files are skipped; 0 disables the limit
	Force        bool     // Re-chunk files even when their content is unchanged

	// Progress is called after each committed batch
	Progress func(done, total int)
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	FilesIndexed    int
	FilesSkipped    int
	FilesFailed     int
	FilesRemoved    int
	ChunksCreated   int
	OversizedChunks int
	TruncatedFiles  int
	Duration        time.Duration
	ErrorMessages   []string
}

// New creates a new Indexer. A nil logger means slog.Default().
func New(store storage.Storage, engines *chunker.Engines, log *slog.Logger) *Indexer {
	return &Indexer{
		storage: store,
		engines: engines,
		log:     logger.OrDefault(log),
	}
}

// candidate is a discovered file
type candidate struct {
	path string // absolute
	rel  string // slash-separated, relative to the project root
}

// fileJob carries one file through a batch
type fileJob struct {
	candidate
	src     []byte
	hash    [32]byte
	modTime time.Time
	size    int64
	skip    bool
	readErr error
	result  *types.FileResult
}

// IndexProject indexes every supported source file below rootPath
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	if config == nil {
		config = &Config{}
	}
	cfg := *config
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if err := validatePatterns(cfg.Include, cfg.Exclude); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	startTime := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}

	project, err := idx.getOrCreateProject(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	fingerprint := idx.engines.Config().Fingerprint()
	if project.ConfigFingerprint != fingerprint && project.ConfigFingerprint != "" {
		idx.log.Info("chunking configuration changed, re-chunking all files", "root", root)
	}
	force := cfg.Force || project.ConfigFingerprint != fingerprint

	files, skippedLarge, err := idx.discoverFiles(root, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	stats.FilesSkipped += skippedLarge

	existing, err := idx.existingFiles(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed files: %w", err)
	}

	removed, err := idx.removeMissing(ctx, existing, files)
	if err != nil {
		return nil, fmt.Errorf("failed to remove deleted files: %w", err)
	}
	stats.FilesRemoved = removed

	for i := 0; i < len(files); i += cfg.BatchSize {
		end := min(i+cfg.BatchSize, len(files))
		if err := idx.indexBatch(ctx, project, files[i:end], existing, force, &cfg, stats); err != nil {
			return nil, err
		}
		if cfg.Progress != nil {
			cfg.Progress(end, len(files))
		}
	}

	project.ConfigFingerprint = fingerprint
	if err := idx.updateProjectStats(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	idx.log.Info("indexing complete",
		"root", root,
		"indexed", stats.FilesIndexed,
		"skipped", stats.FilesSkipped,
		"failed", stats.FilesFailed,
		"removed", stats.FilesRemoved,
		"chunks", stats.ChunksCreated,
		"duration", stats.Duration)
	return stats, nil
}

// getOrCreateProject retrieves an existing project or creates a new one
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string) (*storage.Project, error) {
	project, err := idx.storage.GetProject(ctx, rootPath)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	project = &storage.Project{
		RootPath:     rootPath,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := idx.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func validatePatterns(groups ...[]string) error {
	for _, patterns := range groups {
		for _, p := range patterns {
			if !doublestar.ValidatePattern(p) {
				return fmt.Errorf("%w: bad glob pattern %q", types.ErrInvalidConfig, p)
			}
		}
	}
	return nil
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// discoverFiles finds every file the engines can chunk. It also returns the
// number of files skipped for exceeding MaxFileBytes.
func (idx *Indexer) discoverFiles(root string, config *Config) ([]candidate, int, error) {
	var files []candidate
	tooLarge := 0
	forced := idx.engines.Config().Language != ""
	reg := idx.engines.Registry()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if len(config.Include) > 0 && !matchAny(config.Include, rel) {
			return nil
		}
		if matchAny(config.Exclude, rel) {
			return nil
		}
		if !forced {
			if _, ok := reg.DetectByPath(path); !ok {
				return nil
			}
		}

		if config.MaxFileBytes > 0 {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() > config.MaxFileBytes {
				idx.log.Debug("skipping large file", "path", rel, "size", info.Size())
				tooLarge++
				return nil
			}
		}

		files = append(files, candidate{path: path, rel: rel})
		return nil
	})
	return files, tooLarge, err
}

func (idx *Indexer) existingFiles(ctx context.Context, projectID int64) (map[string]*storage.File, error) {
	list, err := idx.storage.ListFiles(ctx, projectID)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]*storage.File, len(list))
	for _, f := range list {
		byPath[f.FilePath] = f
	}
	return byPath, nil
}

// removeMissing deletes stored files that were not discovered in this run.
// Their chunks go with them through the foreign key cascade.
func (idx *Indexer) removeMissing(ctx context.Context, existing map[string]*storage.File, files []candidate) (int, error) {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f.rel] = true
	}
	removed := 0
	for rel, f := range existing {
		if seen[rel] {
			continue
		}
		if err := idx.storage.DeleteFile(ctx, f.ID); err != nil {
			return removed, err
		}
		delete(existing, rel)
		removed++
	}
	return removed, nil
}

// indexBatch reads, chunks and stores one batch of files. Files are read and
// chunked concurrently; the writes share a single transaction.
func (idx *Indexer) indexBatch(ctx context.Context, project *storage.Project, batch []candidate,
	existing map[string]*storage.File, force bool, config *Config, stats *Statistics) error {

	jobs := make([]*fileJob, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for i, c := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			job := &fileJob{candidate: c}
			job.src, job.hash, job.modTime, job.size, job.readErr = readFile(c.path)
			if job.readErr == nil && !force {
				if prev, ok := existing[c.rel]; ok && prev.ContentHash == job.hash {
					job.skip = true
				}
			}
			jobs[i] = job
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var inputs []chunker.Input
	var pending []*fileJob
	for _, job := range jobs {
		switch {
		case job.readErr != nil:
			stats.FilesFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", job.rel, job.readErr))
			idx.log.Warn("failed to read file", "path", job.rel, "error", job.readErr)
		case job.skip:
			stats.FilesSkipped++
		default:
			inputs = append(inputs, chunker.Input{Path: job.rel, Src: job.src})
			pending = append(pending, job)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	results, err := idx.engines.ChunkFiles(ctx, inputs, config.Workers)
	if err != nil {
		return fmt.Errorf("failed to chunk batch: %w", err)
	}
	for i, job := range pending {
		job.result = results[i]
		job.src = nil
	}

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, job := range pending {
		if err := idx.storeFile(ctx, tx, project, job, existing[job.rel]); err != nil {
			return fmt.Errorf("failed to store %s: %w", job.rel, err)
		}
		res := job.result
		if !res.OK() {
			stats.FilesFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %s", job.rel, res.Err))
			idx.log.Warn("failed to chunk file", "path", job.rel, "error", res.Err)
			continue
		}
		stats.FilesIndexed++
		stats.ChunksCreated += len(res.Chunks)
		stats.OversizedChunks += res.Flags.Oversized
		if res.Flags.Truncated {
			stats.TruncatedFiles++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// storeFile replaces the stored record and chunks of one file. A file that
// could not be chunked is kept with its diagnostic and no chunks.
func (idx *Indexer) storeFile(ctx context.Context, store storage.Storage, project *storage.Project,
	job *fileJob, prev *storage.File) error {

	res := job.result
	file := &storage.File{
		ProjectID:   project.ID,
		FilePath:    job.rel,
		Language:    res.Language,
		ContentHash: job.hash,
		ModTime:     job.modTime,
		SizeBytes:   job.size,
	}
	if !res.OK() {
		msg := res.Err
		file.ChunkError = &msg
	}
	if err := store.UpsertFile(ctx, file); err != nil {
		return err
	}

	if prev != nil {
		if err := store.DeleteChunksByFile(ctx, file.ID); err != nil {
			return fmt.Errorf("failed to delete old chunks: %w", err)
		}
	}

	for i := range res.Chunks {
		if err := store.UpsertChunk(ctx, storage.FromTypesChunk(&res.Chunks[i], file.ID)); err != nil {
			return fmt.Errorf("failed to store chunk: %w", err)
		}
	}
	return nil
}

// updateProjectStats updates the project's file and chunk counts
func (idx *Indexer) updateProjectStats(ctx context.Context, project *storage.Project) error {
	status, err := idx.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return err
	}

	project.TotalFiles = status.FilesCount
	project.TotalChunks = status.ChunksCount
	project.IndexVersion = storage.CurrentSchemaVersion
	project.LastIndexedAt = time.Now()

	return idx.storage.UpdateProject(ctx, project)
}

// readFile loads a file and computes its SHA-256 hash
func readFile(filePath string) ([]byte, [32]byte, time.Time, int64, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, [32]byte{}, time.Time{}, 0, err
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, [32]byte{}, time.Time{}, 0, err
	}
	return src, sha256.Sum256(src), info.ModTime(), int64(len(src)), nil
}
