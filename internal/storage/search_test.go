package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codechunk/pkg/types"
)

func seedSearch(t *testing.T) (*SQLiteStorage, *Project) {
	t.Helper()
	store := setupTestDB(t)
	ctx := context.Background()

	project, lib := createFile(t, store, "src/lib/math.cpp")
	_, app := createFile(t, store, "app/main.cpp")

	add := testChunk(lib.ID, "add", 0, []string{"math", "add"}, "int add(int a, int b) { return a + b; }")
	add.LeadingComment = "// Adds two integers."
	require.NoError(t, store.UpsertChunk(ctx, add))

	vec := testChunk(lib.ID, "vec", 60, []string{"math", "Vector"}, "class Vector { double x, y; };")
	vec.Kind = types.KindClass
	vec.Signature = "class Vector"
	require.NoError(t, store.UpsertChunk(ctx, vec))

	main := testChunk(app.ID, "main", 0, []string{"main"}, "int main() { return add(1, 2); }")
	require.NoError(t, store.UpsertChunk(ctx, main))
	return store, project
}

func TestSearchText(t *testing.T) {
	store, project := seedSearch(t)
	ctx := context.Background()

	results, err := store.SearchText(ctx, project.ID, "add", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Greater(t, r.BM25Score, 0.0)
		assert.LessOrEqual(t, r.BM25Score, 1.0)
	}
	// the chunk whose scope, signature and comment mention add ranks first
	first, err := store.GetChunk(ctx, results[0].ChunkID)
	require.NoError(t, err)
	assert.Equal(t, "add", first.Key)
}

func TestSearchTextMatchesLeadingComment(t *testing.T) {
	store, project := seedSearch(t)
	results, err := store.SearchText(context.Background(), project.ID, "integers", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "src/lib/math.cpp", results[0].FilePath)
}

func TestSearchTextFilters(t *testing.T) {
	store, project := seedSearch(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		query   string
		filters *SearchFilters
		want    int
	}{
		{"kind", "math", &SearchFilters{Kinds: []types.DeclKind{types.KindClass}}, 1},
		{"scope prefix", "add", &SearchFilters{ScopePrefix: "math"}, 1},
		{"scope prefix is segment aligned", "add", &SearchFilters{ScopePrefix: "mat"}, 0},
		{"file pattern", "add", &SearchFilters{FilePattern: "app/**"}, 1},
		{"file pattern recursive", "int", &SearchFilters{FilePattern: "**/*.cpp"}, 2},
		{"no match", "quaternion", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.SearchText(ctx, project.ID, tt.query, 10, tt.filters)
			require.NoError(t, err)
			assert.Len(t, results, tt.want)
		})
	}
}

func TestSearchTextLimit(t *testing.T) {
	store, project := seedSearch(t)
	results, err := store.SearchText(context.Background(), project.ID, "int", 1, &SearchFilters{FilePattern: "**"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchTextRejectsBadInput(t *testing.T) {
	store, project := seedSearch(t)
	ctx := context.Background()

	_, err := store.SearchText(ctx, project.ID, "  ::  ", 10, nil)
	assert.Error(t, err)

	_, err = store.SearchText(ctx, project.ID, "add", 10, &SearchFilters{FilePattern: "[unclosed"})
	assert.Error(t, err)
}

func TestSanitizeFTSQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"add", `"add"`},
		{"utils::Helper", `"utils" OR "Helper"`},
		{`foo" OR bar*`, `"foo" OR "OR" OR "bar"`},
		{"NEAR(a b)", `"NEAR" OR "a" OR "b"`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFTSQuery(tt.in))
	}
}
