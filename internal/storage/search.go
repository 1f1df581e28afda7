package storage

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/codechunk/pkg/types"
)

// searchText runs a BM25-ranked FTS5 query over chunk content, scope paths,
// signatures and leading comments
func searchText(ctx context.Context, q querier, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	// Sanitize query for FTS5
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, ErrEmptyQuery
	}
	if filters != nil && filters.FilePattern != "" && !doublestar.ValidatePattern(filters.FilePattern) {
		return nil, fmt.Errorf("invalid file pattern %q", filters.FilePattern)
	}

	sqlQuery := `
		SELECT
			c.id AS chunk_id,
			f.file_path,
			bm25(chunks_fts) AS score
		FROM chunks_fts
		INNER JOIN chunks c ON chunks_fts.rowid = c.id
		INNER JOIN files f ON c.file_id = f.id
		WHERE chunks_fts MATCH ?
		AND f.project_id = ?
	`
	args := []interface{}{sanitized, projectID}

	sqlQuery, args = applyTextFilters(sqlQuery, args, filters)

	// Order by BM25 score (lower is better). File patterns are matched in
	// Go, so the limit is applied while collecting.
	sqlQuery += " ORDER BY score, c.id"
	if filters == nil || filters.FilePattern == "" {
		if limit > 0 {
			sqlQuery += " LIMIT ?"
			args = append(args, limit)
		}
	}

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]TextResult, 0)
	for rows.Next() {
		var result TextResult
		if err := rows.Scan(&result.ChunkID, &result.FilePath, &result.BM25Score); err != nil {
			return nil, err
		}

		if filters != nil && filters.FilePattern != "" {
			if ok, _ := doublestar.Match(filters.FilePattern, result.FilePath); !ok {
				continue
			}
		}

		// BM25 scores are negative, lower is better; typically in [-50, 0]
		result.BM25Score = normalizeBM25(result.BM25Score)
		if filters != nil && filters.MinRelevance > 0 && result.BM25Score < filters.MinRelevance {
			continue
		}

		results = append(results, result)
		if limit > 0 && len(results) == limit {
			break
		}
	}
	return results, rows.Err()
}

func normalizeBM25(score float64) float64 {
	return 1.0 / (1.0 + math.Abs(score)/50.0)
}

// applyTextFilters adds WHERE clause filters for text search
func applyTextFilters(query string, args []interface{}, filters *SearchFilters) (string, []interface{}) {
	if filters == nil {
		return query, args
	}

	if len(filters.Kinds) > 0 {
		placeholders := make([]string, len(filters.Kinds))
		for i, kind := range filters.Kinds {
			placeholders[i] = "?"
			args = append(args, string(kind))
		}
		query += " AND c.kind IN (" + strings.Join(placeholders, ",") + ")"
	}

	if prefix := strings.Trim(filters.ScopePrefix, ":"); prefix != "" {
		query += ` AND (c.scope = ? OR c.scope LIKE ? ESCAPE '\')`
		args = append(args, prefix, escapeLike(prefix)+types.ScopeSeparator+"%")
	}

	return query, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// sanitizeFTSQuery turns free text into an FTS5 query of quoted terms
// joined with OR. Quoting disables FTS5 operators and column filters.
func sanitizeFTSQuery(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + term + `"`
	}
	return strings.Join(quoted, " OR ")
}
