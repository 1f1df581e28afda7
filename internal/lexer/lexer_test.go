package lexer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codechunk/internal/lang"
	"github.com/dshills/codechunk/pkg/types"
)

func tokenize(t *testing.T, language, src string) []types.Token {
	t.Helper()
	table, err := lang.Builtin().Lookup(language)
	require.NoError(t, err)
	toks, err := NewLexer(table).Tokenize(context.Background(), []byte(src))
	require.NoError(t, err)
	return toks
}

// requireGapless checks that tokens tile src exactly
func requireGapless(t *testing.T, src string, toks []types.Token) {
	t.Helper()
	pos := 0
	var b strings.Builder
	for _, tok := range toks {
		require.Equal(t, pos, tok.Start, "gap or overlap before %q", tok.Text)
		require.Equal(t, src[tok.Start:tok.End], tok.Text)
		b.WriteString(tok.Text)
		pos = tok.End
	}
	require.Equal(t, len(src), pos)
	require.Equal(t, src, b.String())
}

func significant(toks []types.Token) []types.Token {
	var out []types.Token
	for _, tok := range toks {
		if tok.Kind != types.TokenWhitespace {
			out = append(out, tok)
		}
	}
	return out
}

func TestTokenizeCpp(t *testing.T) {
	src := "#include <vector>\n" +
		"namespace utils {\n" +
		"  // helper\n" +
		"  int add(int a, int b) { return a + b; } /* done */\n" +
		"}\n"
	toks := tokenize(t, "cpp", src)
	requireGapless(t, src, toks)

	sig := significant(toks)
	require.NotEmpty(t, sig)
	assert.Equal(t, types.TokenPreprocessor, sig[0].Kind)
	assert.Equal(t, "#include <vector>", sig[0].Text)
	assert.Equal(t, types.TokenKeyword, sig[1].Kind)
	assert.Equal(t, "namespace", sig[1].Text)
	assert.Equal(t, types.TokenIdent, sig[2].Kind)
	assert.Equal(t, 2, sig[1].Line)

	var comments []string
	for _, tok := range sig {
		if tok.Kind == types.TokenComment {
			comments = append(comments, tok.Text)
		}
	}
	assert.Equal(t, []string{"// helper", "/* done */"}, comments)
}

func TestTokenizeOperators(t *testing.T) {
	toks := significant(tokenize(t, "cpp", "a::b->c <<= d >> e;"))
	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"a", "::", "b", "->", "c", "<<=", "d", ">>", "e", ";"}, texts)
}

func TestTokenizeStrings(t *testing.T) {
	tests := []struct {
		name     string
		language string
		src      string
		want     string
	}{
		{"escaped quote", "cpp", `x = "a \"quoted\" word";`, `"a \"quoted\" word"`},
		{"raw cpp", "cpp", `auto s = R"delim(a "b" )c)delim";`, `R"delim(a "b" )c)delim"`},
		{"go raw", "go", "s := `line1\nline2`", "`line1\nline2`"},
		{"js template", "javascript", "const s = `hi ${name}`;", "`hi ${name}`"},
		{"char literal", "cpp", `char c = '}';`, `'}'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := tokenize(t, tt.language, tt.src)
			requireGapless(t, tt.src, toks)
			var found bool
			for _, tok := range toks {
				if tok.Kind == types.TokenString {
					assert.Equal(t, tt.want, tok.Text)
					found = true
				}
			}
			assert.True(t, found)
		})
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	src := "s = \"open\nint x;\n"
	toks := tokenize(t, "c", src)
	requireGapless(t, src, toks)
	sig := significant(toks)
	assert.Equal(t, types.TokenString, sig[2].Kind)
	assert.Equal(t, `"open`, sig[2].Text)
	assert.Equal(t, "int", sig[3].Text)
}

func TestTokenizeUnterminatedBlockComment(t *testing.T) {
	src := "int x; /* never closed\nint y;"
	toks := tokenize(t, "c", src)
	requireGapless(t, src, toks)
	last := toks[len(toks)-1]
	assert.Equal(t, types.TokenComment, last.Kind)
	assert.Equal(t, len(src), last.End)
}

func TestTokenizeRustLifetimes(t *testing.T) {
	src := "fn first<'a>(s: &'a str) -> char { 'x' }"
	toks := tokenize(t, "rust", src)
	requireGapless(t, src, toks)

	var strs []string
	for _, tok := range toks {
		if tok.Kind == types.TokenString {
			strs = append(strs, tok.Text)
		}
	}
	assert.Equal(t, []string{"'x'"}, strs)
}

func TestTokenizePreprocessorContinuation(t *testing.T) {
	src := "#define MAX(a, b) \\\n  ((a) > (b) ? (a) : (b))\nint x;"
	toks := tokenize(t, "c", src)
	requireGapless(t, src, toks)
	assert.Equal(t, types.TokenPreprocessor, toks[0].Kind)
	assert.True(t, strings.HasSuffix(toks[0].Text, "(b))"))
	assert.Equal(t, 3, significant(toks)[1].Line)
}

func TestTokenizeDigitSeparators(t *testing.T) {
	toks := significant(tokenize(t, "cpp", "x = 1'000'000 + 1.5e-3;"))
	assert.Equal(t, "1'000'000", toks[2].Text)
	assert.Equal(t, types.TokenNumber, toks[2].Kind)
	assert.Equal(t, "1.5e-3", toks[4].Text)
}

func TestTokenizeCancelled(t *testing.T) {
	table, err := lang.Builtin().Lookup("c")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLexer(table).Tokenize(ctx, []byte("int x;"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTokenizer(t *testing.T) {
	table, err := lang.Builtin().Lookup("cpp")
	require.NoError(t, err)

	tok, err := New("", table)
	require.NoError(t, err)
	assert.Equal(t, Builtin, tok.Name())

	_, err = New("magic", table)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)

	tok, err = New(TreeSitter, table)
	if !TreeSitterAvailable {
		assert.ErrorIs(t, err, types.ErrInvalidConfig)
		return
	}
	require.NoError(t, err)
	src := "int main() { return 0; }\n"
	toks, err := tok.Tokenize(context.Background(), []byte(src))
	require.NoError(t, err)
	requireGapless(t, src, toks)
}
