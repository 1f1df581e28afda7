package lang

import (
	"fmt"
	"strings"

	"github.com/dshills/codechunk/pkg/types"
)

// CommentPair delimits a block comment
type CommentPair struct {
	Open  string `yaml:"open" toml:"open"`
	Close string `yaml:"close" toml:"close"`
}

// Table describes the lexical and declaration syntax of one language.
// Tables are read-only once registered; concurrent readers need no locking.
type Table struct {
	Name       string   `yaml:"name" toml:"name"`
	Aliases    []string `yaml:"aliases" toml:"aliases"`
	Extensions []string `yaml:"extensions" toml:"extensions"`

	LineComments  []string      `yaml:"line_comments" toml:"line_comments"`
	BlockComments []CommentPair `yaml:"block_comments" toml:"block_comments"`
	// StringDelims open and close escaped string literals
	StringDelims []string `yaml:"string_delims" toml:"string_delims"`
	// RawStringDelims open and close literals without escapes, possibly multi-line
	RawStringDelims []string `yaml:"raw_string_delims" toml:"raw_string_delims"`
	// PrefixedRawStrings enables R"delim(...)delim" literals
	PrefixedRawStrings bool `yaml:"prefixed_raw_strings" toml:"prefixed_raw_strings"`
	// Lifetimes makes a lone quote a punctuation token unless it closes a char literal
	Lifetimes bool `yaml:"lifetimes" toml:"lifetimes"`
	// Preprocessor makes '#' at the start of a line begin a directive line
	Preprocessor bool `yaml:"preprocessor" toml:"preprocessor"`

	Keywords          []string                  `yaml:"keywords" toml:"keywords"`
	NamespaceKeywords []string                  `yaml:"namespace_keywords" toml:"namespace_keywords"`
	ClassKeywords     map[string]types.DeclKind `yaml:"class_keywords" toml:"class_keywords"`
	FunctionKeywords  []string                  `yaml:"function_keywords" toml:"function_keywords"`
	// RequireFunctionKeyword disables the parenthesis heuristic for functions
	RequireFunctionKeyword bool   `yaml:"require_function_keyword" toml:"require_function_keyword"`
	TemplateKeyword        string `yaml:"template_keyword" toml:"template_keyword"`
	OperatorKeyword        string `yaml:"operator_keyword" toml:"operator_keyword"`
	// Prototypes turns bodiless function declarations into boundaries
	Prototypes bool `yaml:"prototypes" toml:"prototypes"`
	// TransparentBlocks open blocks scanned as part of the enclosing level (extern "C")
	TransparentBlocks []string `yaml:"transparent_blocks" toml:"transparent_blocks"`

	ControlKeywords  []string `yaml:"control_keywords" toml:"control_keywords"`
	AccessSpecifiers []string `yaml:"access_specifiers" toml:"access_specifiers"`
	// Contextual words never name a class (final, sealed)
	Contextual []string `yaml:"contextual" toml:"contextual"`

	Terminators       []string `yaml:"terminators" toml:"terminators"`
	NewlineTerminates bool     `yaml:"newline_terminates" toml:"newline_terminates"`

	keywords    map[string]bool
	namespaces  map[string]bool
	functions   map[string]bool
	control     map[string]bool
	access      map[string]bool
	contextual  map[string]bool
	transparent map[string]bool
	terminators map[string]bool
}

func set(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// compile validates the table and builds its lookup sets
func (t *Table) compile() error {
	t.Name = strings.ToLower(strings.TrimSpace(t.Name))
	if t.Name == "" {
		return fmt.Errorf("%w: language table without a name", types.ErrInvalidConfig)
	}
	for word, kind := range t.ClassKeywords {
		switch kind {
		case types.KindClass, types.KindStruct, types.KindEnum:
		default:
			return fmt.Errorf("%w: %s: class keyword %q maps to %q", types.ErrInvalidConfig, t.Name, word, kind)
		}
	}
	for _, bc := range t.BlockComments {
		if bc.Open == "" || bc.Close == "" {
			return fmt.Errorf("%w: %s: empty block comment delimiter", types.ErrInvalidConfig, t.Name)
		}
	}
	if len(t.Terminators) == 0 && !t.NewlineTerminates {
		return fmt.Errorf("%w: %s: no statement terminator", types.ErrInvalidConfig, t.Name)
	}

	t.keywords = set(t.Keywords)
	t.namespaces = set(t.NamespaceKeywords)
	t.functions = set(t.FunctionKeywords)
	t.control = set(t.ControlKeywords)
	t.access = set(t.AccessSpecifiers)
	t.contextual = set(t.Contextual)
	t.transparent = set(t.TransparentBlocks)
	t.terminators = set(t.Terminators)
	for _, w := range t.NamespaceKeywords {
		t.keywords[w] = true
	}
	for w := range t.ClassKeywords {
		t.keywords[w] = true
	}
	for _, w := range t.FunctionKeywords {
		t.keywords[w] = true
	}
	if t.TemplateKeyword != "" {
		t.keywords[t.TemplateKeyword] = true
	}
	if t.OperatorKeyword != "" {
		t.keywords[t.OperatorKeyword] = true
	}
	return nil
}

// IsKeyword reports whether word is reserved in this language
func (t *Table) IsKeyword(word string) bool { return t.keywords[word] }

// IsNamespace reports whether word introduces a namespace
func (t *Table) IsNamespace(word string) bool { return t.namespaces[word] }

// ClassKind returns the kind introduced by a class-like keyword
func (t *Table) ClassKind(word string) (types.DeclKind, bool) {
	k, ok := t.ClassKeywords[word]
	return k, ok
}

// IsFunction reports whether word introduces a function
func (t *Table) IsFunction(word string) bool { return t.functions[word] }

// IsControl reports whether word starts a control-flow statement
func (t *Table) IsControl(word string) bool { return t.control[word] }

// IsAccess reports whether word is an access specifier label
func (t *Table) IsAccess(word string) bool { return t.access[word] }

// IsContextual reports whether word is a contextual modifier
func (t *Table) IsContextual(word string) bool { return t.contextual[word] }

// IsTransparent reports whether word opens a transparent block
func (t *Table) IsTransparent(word string) bool { return t.transparent[word] }

// IsTerminator reports whether text ends a statement
func (t *Table) IsTerminator(text string) bool { return t.terminators[text] }
