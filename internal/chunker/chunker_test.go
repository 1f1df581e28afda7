package chunker

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/pkg/types"
)

const scenarioSource = `namespace utils {
class Helper {
public:
    int calculate(int v) {
        return v * 2;
    }
};
}
`

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.MaxSize == 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	e, err := New(cfg, nil)
	require.NoError(t, err)
	return e
}

func chunkString(t *testing.T, cfg Config, src string) *types.FileResult {
	t.Helper()
	res, err := newEngine(t, cfg).Chunk(context.Background(), "test", []byte(src))
	require.NoError(t, err)
	require.True(t, res.OK())
	return res
}

func loadFixture(t *testing.T) []byte {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("testdata", "complex_cpp_sample.cpp"))
	require.NoError(t, err)
	return src
}

// requireCoverage checks that the chunks own every byte exactly once
func requireCoverage(t *testing.T, src []byte, chunks []types.Chunk) {
	t.Helper()
	var segs []types.Span
	for _, c := range chunks {
		require.NoError(t, c.Validate())
		segs = append(segs, c.Segments...)
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })
	var b strings.Builder
	pos := 0
	for _, s := range segs {
		require.Equal(t, pos, s.Start, "gap or overlap at %d", pos)
		b.Write(src[s.Start:s.End])
		pos = s.End
	}
	require.Equal(t, len(src), pos)
	require.Equal(t, string(src), b.String())
}

func byScope(chunks []types.Chunk, scope string, kind types.DeclKind) []types.Chunk {
	var out []types.Chunk
	for _, c := range chunks {
		if c.Scope() == scope && c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestNestedScopes(t *testing.T) {
	res := chunkString(t, Config{Language: "cpp"}, scenarioSource)
	chunks := res.Chunks
	require.Len(t, chunks, 3)
	requireCoverage(t, []byte(scenarioSource), chunks)

	ns := byScope(chunks, "utils", types.KindNamespace)
	require.Len(t, ns, 1)
	assert.Equal(t, "namespace utils", ns[0].Signature)

	class := byScope(chunks, "utils::Helper", types.KindClass)
	require.Len(t, class, 1)
	assert.Contains(t, class[0].Content, "class Helper {")
	assert.Contains(t, class[0].Content, "};")
	assert.NotContains(t, class[0].Content, "return v * 2;")

	fn := byScope(chunks, "utils::Helper::calculate", types.KindFunction)
	require.Len(t, fn, 1)
	assert.Equal(t, "int calculate(int v)", fn[0].Signature)
	assert.Equal(t, []string{"public"}, fn[0].Modifiers)
	assert.Equal(t, 4, fn[0].StartLine)
	assert.Equal(t, 6, fn[0].EndLine)
	assert.Nil(t, fn[0].SequenceIndex)

	assert.True(t, class[0].Span.Contains(fn[0].Span))
	assert.True(t, ns[0].Span.Contains(class[0].Span))

	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i-1].Start, chunks[i].Start)
	}
}

func TestSplitNeverCutsSignature(t *testing.T) {
	res := chunkString(t, Config{Language: "cpp", MaxSize: 1}, scenarioSource)
	requireCoverage(t, []byte(scenarioSource), res.Chunks)

	pieces := byScope(res.Chunks, "utils::Helper::calculate", types.KindFunction)
	require.Greater(t, len(pieces), 1)
	for i, p := range pieces {
		require.NotNil(t, p.SequenceIndex)
		assert.Equal(t, i, *p.SequenceIndex)
		assert.Equal(t, "int calculate(int v)", p.Signature)
		if i > 0 {
			assert.NotContains(t, p.Content, "calculate")
			assert.NotContains(t, p.Content, "(int v)")
		}
		if !p.Flags.Oversized {
			assert.LessOrEqual(t, p.Size, 1)
		}
	}
	assert.Contains(t, pieces[0].Content, "int calculate(int v) {")
	assert.True(t, pieces[0].Flags.Oversized)
	assert.Positive(t, res.Flags.Oversized)
}

func TestLeadingCommentAttached(t *testing.T) {
	src := `int helper() { return 1; }

/// Computes things.
/// Really.
int compute(int x) {
    return x + 1;
}
`
	res := chunkString(t, Config{Language: "cpp"}, src)
	requireCoverage(t, []byte(src), res.Chunks)
	require.Len(t, res.Chunks, 2)

	for _, c := range res.Chunks {
		assert.NotEqual(t, types.KindComment, c.Kind)
	}
	fn := byScope(res.Chunks, "compute", types.KindFunction)
	require.Len(t, fn, 1)
	assert.Equal(t, "/// Computes things.\n/// Really.", fn[0].LeadingComment)
	assert.True(t, strings.HasPrefix(fn[0].Content, "/// Computes things."))
	assert.Equal(t, 3, fn[0].StartLine)
	assert.Equal(t, "int compute(int x)", fn[0].Signature)
}

func TestDetachedCommentIsOwnChunk(t *testing.T) {
	src := `// License text

int compute(int x) { return x; } // trailing
`
	res := chunkString(t, Config{Language: "cpp"}, src)
	requireCoverage(t, []byte(src), res.Chunks)

	comments := byScope(res.Chunks, "", types.KindComment)
	require.Len(t, comments, 1)
	assert.Equal(t, "// License text", strings.TrimSpace(comments[0].Content))

	fn := byScope(res.Chunks, "compute", types.KindFunction)
	require.Len(t, fn, 1)
	assert.Empty(t, fn[0].LeadingComment)
}

func TestUnterminatedClass(t *testing.T) {
	src := `class Broken {
public:
    int x;
    void set(int v) { x = v; }
`
	res := chunkString(t, Config{Language: "cpp"}, src)
	requireCoverage(t, []byte(src), res.Chunks)
	assert.True(t, res.Flags.Truncated)

	var truncated []types.Chunk
	for _, c := range res.Chunks {
		if c.Flags.Truncated {
			truncated = append(truncated, c)
		}
	}
	require.Len(t, truncated, 1)
	assert.Equal(t, types.KindClass, truncated[0].Kind)
	assert.Equal(t, 0, truncated[0].Start)
	assert.Equal(t, len(src), truncated[0].End)
	assert.Contains(t, truncated[0].Modifiers, types.ModifierTruncated)

	fn := byScope(res.Chunks, "Broken::set", types.KindFunction)
	require.Len(t, fn, 1)
	assert.False(t, fn[0].Flags.Truncated)
}

func TestUnterminatedClassNeverSplit(t *testing.T) {
	src := "class Broken {\n    int a; int b; int c; int d;\n"
	res := chunkString(t, Config{Language: "cpp", MaxSize: 2}, src)
	require.Len(t, res.Chunks, 1)
	assert.True(t, res.Chunks[0].Flags.Truncated)
	assert.True(t, res.Chunks[0].Flags.Oversized)
	assert.Nil(t, res.Chunks[0].SequenceIndex)
}

func TestUnterminatedNestedFunction(t *testing.T) {
	src := "class A {\n    void f() {\n        int x = 1;\n"
	res := chunkString(t, Config{Language: "cpp"}, src)
	requireCoverage(t, []byte(src), res.Chunks)
	assert.True(t, res.Flags.Truncated)
	require.Len(t, res.Chunks, 2)

	class := byScope(res.Chunks, "A", types.KindClass)
	require.Len(t, class, 1)
	assert.True(t, class[0].Flags.Truncated)
	assert.Equal(t, 0, class[0].Start)
	assert.Contains(t, class[0].Content, "class A {")
	assert.NotContains(t, class[0].Content, "void f()")

	fn := byScope(res.Chunks, "A::f", types.KindFunction)
	require.Len(t, fn, 1)
	assert.True(t, fn[0].Flags.Truncated)
	assert.Equal(t, len(src), fn[0].End)
	assert.LessOrEqual(t, class[0].End, fn[0].Start)
	assert.Contains(t, fn[0].Content, "int x = 1;")
}

func TestLinkageBlocks(t *testing.T) {
	tests := []struct {
		name        string
		src         string
		fnScope     string
		afterScope  string
		headerScope string
		headerKind  types.DeclKind
	}{
		{
			name:        "file level",
			src:         "extern \"C\" {\nint f() { return 1; }\n}\nint h() { return 3; }\n",
			fnScope:     "f",
			afterScope:  "h",
			headerScope: "",
			headerKind:  types.KindOther,
		},
		{
			name:        "inside namespace",
			src:         "namespace n {\nextern \"C\" {\nint g() { return 2; }\n}\nint h() { return 3; }\n}\n",
			fnScope:     "n::g",
			afterScope:  "n::h",
			headerScope: "n",
			headerKind:  types.KindNamespace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := chunkString(t, Config{Language: "cpp"}, tt.src)
			requireCoverage(t, []byte(tt.src), res.Chunks)
			assert.False(t, res.Flags.Truncated)

			fn := byScope(res.Chunks, tt.fnScope, types.KindFunction)
			require.Len(t, fn, 1)
			assert.NotContains(t, fn[0].Content, "extern")

			assert.Len(t, byScope(res.Chunks, tt.afterScope, types.KindFunction), 1)

			header := byScope(res.Chunks, tt.headerScope, tt.headerKind)
			require.Len(t, header, 1)
			assert.Contains(t, header[0].Content, "extern \"C\" {")
			assert.Greater(t, len(header[0].Segments), 1)
			for _, c := range res.Chunks {
				assert.False(t, c.Flags.Truncated)
			}
		})
	}
}

func TestDropTruncated(t *testing.T) {
	src := "int ok() { return 0; }\nclass Broken {\n    int a;\n"
	res := chunkString(t, Config{Language: "cpp", DropTruncated: true}, src)
	for _, c := range res.Chunks {
		assert.False(t, c.Flags.Truncated)
	}
	assert.Len(t, byScope(res.Chunks, "ok", types.KindFunction), 1)
	assert.True(t, res.Flags.Truncated)
}

func TestFixture(t *testing.T) {
	src := loadFixture(t)
	res, err := newEngine(t, Config{Language: "cpp"}).Chunk(context.Background(), "complex_cpp_sample.cpp", src)
	require.NoError(t, err)
	requireCoverage(t, src, res.Chunks)
	assert.False(t, res.Flags.Truncated)
	assert.Zero(t, res.Flags.Oversized)

	tests := []struct {
		scope     string
		kind      types.DeclKind
		count     int
		signature string
	}{
		{"utils", types.KindNamespace, 1, "namespace utils"},
		{"utils::StatusCode", types.KindEnum, 1, "enum class StatusCode"},
		{"utils::Helper", types.KindClass, 1, "class Helper"},
		{"utils::Helper", types.KindOther, 1, "class Helper;"},
		{"utils::Helper::calculate", types.KindFunction, 1, "int calculate(int value)"},
		{"utils::Helper::format", types.KindFunction, 1, "std::string format(const std::string& input)"},
		{"utils::Container", types.KindClass, 1, "template<typename T> class Container"},
		{"utils::Container::at", types.KindFunction, 2, ""},
		{"utils::processData", types.KindFunction, 1, "template<typename T> std::vector<T> processData(const std::vector<T>& data)"},
		{"utils::strings", types.KindNamespace, 1, "namespace strings"},
		{"utils::strings::join", types.KindFunction, 1, ""},
		{"utils::strings::split", types.KindFunction, 1, ""},
		{"Application", types.KindClass, 1, "class Application"},
		{"Application::Application", types.KindFunction, 1, "Application()"},
		{"Application::run", types.KindFunction, 1, "void run()"},
		{"ComplexData", types.KindStruct, 1, "struct ComplexData"},
		{"ComplexData::Type", types.KindEnum, 1, "enum Type"},
		{"ComplexData::Entry", types.KindStruct, 1, "struct Entry"},
		{"ComplexData::Entry::operator<", types.KindFunction, 1, "bool operator<(const Entry& other) const"},
		{"main", types.KindFunction, 1, "int main()"},
	}
	for _, tt := range tests {
		t.Run(tt.scope+"/"+string(tt.kind), func(t *testing.T) {
			found := byScope(res.Chunks, tt.scope, tt.kind)
			require.Len(t, found, tt.count)
			if tt.signature != "" {
				assert.Equal(t, tt.signature, found[0].Signature)
			}
		})
	}

	ns := byScope(res.Chunks, "utils", types.KindNamespace)[0]
	assert.Contains(t, ns.LeadingComment, "A namespace containing utility functions")
	assert.Equal(t, 20, ns.StartLine)
	assert.Equal(t, 178, ns.EndLine)

	calc := byScope(res.Chunks, "utils::Helper::calculate", types.KindFunction)[0]
	assert.Contains(t, calc.LeadingComment, "Performs a calculation")
	assert.Equal(t, 49, calc.StartLine)
	assert.Equal(t, 57, calc.EndLine)
	assert.Contains(t, calc.Modifiers, "public")

	pd := byScope(res.Chunks, "utils::processData", types.KindFunction)[0]
	assert.Contains(t, pd.Modifiers, "template<typename T>")

	helper := byScope(res.Chunks, "utils::Helper", types.KindClass)[0]
	assert.Contains(t, helper.Content, "int mValue = 1; // Default value")
	assert.NotContains(t, helper.Content, "return value * mValue;")

	fileDoc := byScope(res.Chunks, "", types.KindComment)
	require.NotEmpty(t, fileDoc)
	assert.True(t, strings.HasPrefix(fileDoc[0].Content, "/**\n * @file complex_cpp_sample.cpp"))
	assert.Equal(t, 1, fileDoc[0].StartLine)

	top := byScope(res.Chunks, "", types.KindOther)
	require.Len(t, top, 1)
	assert.Contains(t, top[0].Content, "#include <iostream>")
	assert.Contains(t, top[0].Content, "const double PI")
	assert.Greater(t, len(top[0].Segments), 1)
}

func TestFixtureBudget(t *testing.T) {
	src := loadFixture(t)
	for _, unit := range []Unit{UnitTokens, UnitLines, UnitBytes} {
		for _, max := range []int{8, 40, 200} {
			e := newEngine(t, Config{Language: "cpp", MaxSize: max, Unit: unit})
			res, err := e.Chunk(context.Background(), "fixture.cpp", src)
			require.NoError(t, err)
			requireCoverage(t, src, res.Chunks)

			for _, c := range res.Chunks {
				if !c.Flags.Oversized && !c.Flags.Truncated {
					assert.LessOrEqual(t, c.Size, max, "%s %s %s", unit, c.Kind, c.Scope())
				}
				if c.IsSplit() && *c.SequenceIndex == 0 && c.Signature != "" {
					assert.Contains(t, strings.Join(strings.Fields(c.Content), " "), c.Signature)
				}
			}
		}
	}
}

func TestMergeSmallSiblings(t *testing.T) {
	src := `class Box {
public:
    int a() { return 1; }
    int b() { return 2; }
    int c() { return 3; }
};
`
	res := chunkString(t, Config{Language: "cpp", MinSize: 20, MergeAcrossKinds: true}, src)
	requireCoverage(t, []byte(src), res.Chunks)
	require.Len(t, res.Chunks, 3)

	merged := res.Chunks[1]
	assert.Equal(t, 2, merged.Merged)
	assert.Equal(t, types.KindFunction, merged.Kind)
	assert.Equal(t, "Box", merged.Scope())
	assert.Equal(t, "int a(); int b()", merged.Signature)
	assert.Equal(t, 18, merged.Size)

	last := res.Chunks[2]
	assert.Zero(t, last.Merged)
	assert.Equal(t, "Box::c", last.Scope())
}

func TestMergeCompleteness(t *testing.T) {
	src := loadFixture(t)
	const minSize = 30
	res, err := newEngine(t, Config{Language: "cpp", MaxSize: 200, MinSize: minSize, MergeAcrossKinds: true}).
		Chunk(context.Background(), "fixture.cpp", src)
	require.NoError(t, err)
	requireCoverage(t, src, res.Chunks)

	var merged int
	for _, c := range res.Chunks {
		if c.Merged > 1 {
			merged++
			assert.Less(t, c.Size, minSize)
		}
	}
	assert.Positive(t, merged)
}

func TestMergePolicyByKind(t *testing.T) {
	src := `namespace n {
struct A {};
int f() { return 1; }
}
`
	strict := chunkString(t, Config{Language: "cpp", MinSize: 20}, src)
	for _, c := range strict.Chunks {
		assert.Zero(t, c.Merged)
	}

	loose := chunkString(t, Config{Language: "cpp", MinSize: 20, MergeAcrossKinds: true}, src)
	var merged []types.Chunk
	for _, c := range loose.Chunks {
		if c.Merged > 0 {
			merged = append(merged, c)
		}
	}
	require.Len(t, merged, 1)
	assert.Equal(t, types.KindOther, merged[0].Kind)
	assert.Equal(t, "n", merged[0].Scope())
}

func TestIdempotent(t *testing.T) {
	src := loadFixture(t)
	e := newEngine(t, Config{Language: "cpp", MaxSize: 40, MinSize: 10, MergeAcrossKinds: true})
	first, err := e.Chunk(context.Background(), "fixture.cpp", src)
	require.NoError(t, err)
	second, err := e.Chunk(context.Background(), "fixture.cpp", src)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDeterministicUnderBoundaryOrder(t *testing.T) {
	src := loadFixture(t)
	e := newEngine(t, Config{Language: "cpp", MaxSize: 60})
	want, err := e.Chunk(context.Background(), "fixture.cpp", src)
	require.NoError(t, err)

	toks, err := e.tokenizer.Tokenize(context.Background(), src)
	require.NoError(t, err)
	stream, err := Normalize(src, toks, e.table)
	require.NoError(t, err)
	bounds := Scan(stream, e.table)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 5; i++ {
		shuffled := append([]types.Boundary(nil), bounds...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		tree, err := Build(shuffled)
		require.NoError(t, err)
		drafts := balance(tree, Extract(tree, stream), stream, e.table, e.budget)
		got, err := emit("fixture.cpp", stream, drafts, true)
		require.NoError(t, err)
		assert.Equal(t, want.Chunks, got)
	}
}

func TestBuildRejectsPartialOverlap(t *testing.T) {
	bounds := []types.Boundary{
		{Span: types.Span{Start: 0, End: 10}, Kind: types.KindClass, BodyStart: types.NoBody},
		{Span: types.Span{Start: 5, End: 15}, Kind: types.KindFunction, BodyStart: types.NoBody},
	}
	_, err := Build(bounds)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMalformedNesting)

	var nerr *types.NestingError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, types.Span{Start: 0, End: 10}, nerr.First)
	assert.Equal(t, types.KindFunction, nerr.SecondKind)
}

func TestBuildContainment(t *testing.T) {
	bounds := []types.Boundary{
		{Span: types.Span{Start: 20, End: 30}, Kind: types.KindFunction, BodyStart: types.NoBody},
		{Span: types.Span{Start: 0, End: 50}, Kind: types.KindNamespace, BodyStart: types.NoBody},
		{Span: types.Span{Start: 5, End: 40}, Kind: types.KindClass, BodyStart: types.NoBody},
		{Span: types.Span{Start: 60, End: 70}, Kind: types.KindFunction, BodyStart: types.NoBody},
		{Span: types.Span{Start: 70, End: 70}, Kind: types.KindOther, BodyStart: types.NoBody},
	}
	tree, err := Build(bounds)
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 4)
	require.Len(t, tree.Roots, 2)

	ns := tree.Nodes[tree.Roots[0]]
	assert.Equal(t, types.KindNamespace, ns.Boundary.Kind)
	require.Len(t, ns.Children, 1)
	class := tree.Nodes[ns.Children[0]]
	require.Len(t, class.Children, 1)
	fn := tree.Nodes[class.Children[0]]
	assert.Equal(t, 2, tree.Depth(fn.ID))
	assert.Equal(t, class.ID, fn.Parent)
}

func TestChunkTokensMalformedStream(t *testing.T) {
	e := newEngine(t, Config{Language: "c"})
	src := []byte("int x;")
	toks := []types.Token{
		{Kind: types.TokenKeyword, Start: 0, End: 3},
		{Kind: types.TokenIdent, Start: 2, End: 5},
	}
	res, err := e.ChunkTokens(context.Background(), "bad.c", src, toks)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidTokenStream)
	require.NotNil(t, res)
	assert.False(t, res.OK())
	assert.Empty(t, res.Chunks)
}

func TestChunkTokensRepairsGaps(t *testing.T) {
	e := newEngine(t, Config{Language: "c"})
	src := []byte("int f() { return 0; }\n")
	toks := []types.Token{
		{Kind: types.TokenIdent, Start: 0, End: 3},
		{Kind: types.TokenIdent, Start: 4, End: 5},
		{Kind: types.TokenPunct, Start: 5, End: 6},
		{Kind: types.TokenPunct, Start: 6, End: 7},
		{Kind: types.TokenPunct, Start: 8, End: 9},
		{Kind: types.TokenIdent, Start: 10, End: 16},
		{Kind: types.TokenNumber, Start: 17, End: 18},
		{Kind: types.TokenPunct, Start: 18, End: 19},
		{Kind: types.TokenPunct, Start: 20, End: 21},
	}
	res, err := e.ChunkTokens(context.Background(), "gap.c", src, toks)
	require.NoError(t, err)
	assert.True(t, res.Flags.Repaired)
	requireCoverage(t, src, res.Chunks)

	fn := byScope(res.Chunks, "f", types.KindFunction)
	require.Len(t, fn, 1)
	assert.Equal(t, "int f()", fn[0].Signature)
}

func TestEmptyFile(t *testing.T) {
	res := chunkString(t, Config{Language: "cpp"}, "")
	assert.Empty(t, res.Chunks)

	res = chunkString(t, Config{Language: "cpp"}, "\n\n")
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, types.KindOther, res.Chunks[0].Kind)
	assert.Zero(t, res.Chunks[0].Size)
}

func TestNewFailsFast(t *testing.T) {
	_, err := New(Config{Language: "cobol", MaxSize: 10}, nil)
	assert.ErrorIs(t, err, types.ErrUnknownLanguage)

	_, err = New(Config{Language: "cpp", MaxSize: 0}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)

	_, err = New(Config{Language: "cpp", MaxSize: 10, MinSize: 11}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)

	_, err = New(Config{Language: "cpp", MaxSize: 10, Unit: "words"}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)

	_, err = NewEngines(Config{Language: "cobol", MaxSize: 10}, nil)
	assert.ErrorIs(t, err, types.ErrUnknownLanguage)
}

func TestGoDeclarations(t *testing.T) {
	src := `package demo

// Server serves.
type Server struct {
	addr string
}

func (s *Server) Start() error {
	return nil
}

func helper() {}
`
	res := chunkString(t, Config{Language: "go"}, src)
	requireCoverage(t, []byte(src), res.Chunks)

	st := byScope(res.Chunks, "Server", types.KindStruct)
	require.Len(t, st, 1)
	assert.Equal(t, "// Server serves.", st[0].LeadingComment)

	start := byScope(res.Chunks, "Start", types.KindFunction)
	require.Len(t, start, 1)
	assert.Contains(t, start[0].Modifiers, "(s *Server)")
	assert.Equal(t, "func (s *Server) Start() error", start[0].Signature)

	assert.Len(t, byScope(res.Chunks, "helper", types.KindFunction), 1)

	top := byScope(res.Chunks, "", types.KindOther)
	require.Len(t, top, 1)
	assert.Equal(t, "package demo\n\n", top[0].Content)
}

func TestTypeScriptDeclarations(t *testing.T) {
	src := "export class Greeter {\n" +
		"  greet(name: string): string {\n" +
		"    return `hi ${name}`;\n" +
		"  }\n" +
		"}\n\n" +
		"export function main() {\n" +
		"  new Greeter().greet(\"x\");\n" +
		"}\n"
	res := chunkString(t, Config{Language: "typescript"}, src)
	requireCoverage(t, []byte(src), res.Chunks)

	class := byScope(res.Chunks, "Greeter", types.KindClass)
	require.Len(t, class, 1)
	assert.Contains(t, class[0].Modifiers, "export")
	assert.Len(t, byScope(res.Chunks, "Greeter::greet", types.KindFunction), 1)
	assert.Len(t, byScope(res.Chunks, "main", types.KindFunction), 1)
}

func TestRustDeclarations(t *testing.T) {
	src := `/// A point.
pub struct Point {
    x: i32,
}

impl Point {
    pub fn new(x: i32) -> Self {
        Point { x }
    }
}
`
	res := chunkString(t, Config{Language: "rust"}, src)
	requireCoverage(t, []byte(src), res.Chunks)

	st := byScope(res.Chunks, "Point", types.KindStruct)
	require.Len(t, st, 1)
	assert.Equal(t, "/// A point.", st[0].LeadingComment)
	assert.Len(t, byScope(res.Chunks, "Point", types.KindClass), 1)

	fn := byScope(res.Chunks, "Point::new", types.KindFunction)
	require.Len(t, fn, 1)
	assert.Contains(t, fn[0].Modifiers, "pub")
}

func TestCustomLanguageTable(t *testing.T) {
	kotlin := &lang.Table{
		Name:              "kotlin",
		Extensions:        []string{".kt"},
		LineComments:      []string{"//"},
		BlockComments:     []lang.CommentPair{{Open: "/*", Close: "*/"}},
		StringDelims:      []string{`"`},
		ClassKeywords:     map[string]types.DeclKind{"class": types.KindClass, "object": types.KindClass},
		FunctionKeywords:  []string{"fun"},
		ControlKeywords:   []string{"if", "when", "for", "while"},
		Terminators:       []string{";"},
		NewlineTerminates: true,
	}
	reg, err := lang.Builtin().Extend(kotlin)
	require.NoError(t, err)

	e, err := New(Config{Language: "kotlin", MaxSize: 100}, reg)
	require.NoError(t, err)
	src := "class Greeter {\n    fun greet(): String {\n        return \"hi\"\n    }\n}\n"
	res, err := e.Chunk(context.Background(), "Greeter.kt", []byte(src))
	require.NoError(t, err)
	requireCoverage(t, []byte(src), res.Chunks)
	assert.Len(t, byScope(res.Chunks, "Greeter::greet", types.KindFunction), 1)
}

func TestChunkFiles(t *testing.T) {
	es, err := NewEngines(DefaultConfig(), nil)
	require.NoError(t, err)

	inputs := []Input{
		{Path: "a.cpp", Src: []byte(scenarioSource)},
		{Path: "b.go", Src: []byte("package b\n\nfunc B() {}\n")},
		{Path: "README.md", Src: []byte("# readme\n")},
		{Path: "c.txt", Src: []byte("int main() { return 0; }\n"), Language: "c"},
	}
	results, err := es.ChunkFiles(context.Background(), inputs, 2)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))

	for i, res := range results {
		assert.Equal(t, inputs[i].Path, res.Path)
	}
	assert.True(t, results[0].OK())
	assert.Equal(t, "cpp", results[0].Language)
	assert.Len(t, results[0].Chunks, 3)
	assert.Equal(t, "go", results[1].Language)
	assert.False(t, results[2].OK())
	assert.Contains(t, results[2].Err, "unknown language")
	assert.Equal(t, "c", results[3].Language)
	assert.Len(t, byScope(results[3].Chunks, "main", types.KindFunction), 1)
}

func TestChunkFilesCancelled(t *testing.T) {
	es, err := NewEngines(DefaultConfig(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = es.ChunkFiles(ctx, []Input{{Path: "a.cpp", Src: []byte(scenarioSource)}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
