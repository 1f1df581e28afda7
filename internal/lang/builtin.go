package lang

import "github.com/dshills/codechunk/pkg/types"

var cFamilyControl = []string{
	"if", "else", "for", "while", "do", "switch", "case", "default",
	"try", "catch", "finally", "return", "throw", "goto", "break", "continue",
}

var cKeywords = []string{
	"auto", "break", "case", "char", "const", "continue", "default", "do",
	"double", "else", "enum", "extern", "float", "for", "goto", "if", "inline",
	"int", "long", "register", "restrict", "return", "short", "signed", "sizeof",
	"static", "struct", "switch", "typedef", "union", "unsigned", "void",
	"volatile", "while", "_Bool", "_Static_assert", "_Noreturn", "_Atomic",
}

var cppKeywords = []string{
	"alignas", "alignof", "asm", "auto", "bool", "break", "case", "catch",
	"char", "char8_t", "char16_t", "char32_t", "class", "const", "consteval",
	"constexpr", "constinit", "const_cast", "continue", "co_await", "co_return",
	"co_yield", "decltype", "default", "delete", "do", "double", "dynamic_cast",
	"else", "enum", "explicit", "export", "extern", "false", "float", "for",
	"friend", "goto", "if", "inline", "int", "long", "mutable", "namespace",
	"new", "noexcept", "nullptr", "operator", "private", "protected", "public",
	"register", "reinterpret_cast", "requires", "return", "short", "signed",
	"sizeof", "static", "static_assert", "static_cast", "struct", "switch",
	"template", "this", "thread_local", "throw", "true", "try", "typedef",
	"typeid", "typename", "union", "unsigned", "using", "virtual", "void",
	"volatile", "wchar_t", "while",
}

var javaKeywords = []string{
	"abstract", "assert", "boolean", "break", "byte", "case", "catch", "char",
	"class", "const", "continue", "default", "do", "double", "else", "enum",
	"extends", "final", "finally", "float", "for", "goto", "if", "implements",
	"import", "instanceof", "int", "interface", "long", "native", "new",
	"package", "private", "protected", "public", "record", "return", "short",
	"static", "strictfp", "super", "switch", "synchronized", "this", "throw",
	"throws", "transient", "try", "void", "volatile", "while",
}

var csharpKeywords = []string{
	"abstract", "as", "base", "bool", "break", "byte", "case", "catch", "char",
	"checked", "class", "const", "continue", "decimal", "default", "delegate",
	"do", "double", "else", "enum", "event", "explicit", "extern", "false",
	"finally", "fixed", "float", "for", "foreach", "goto", "if", "implicit",
	"in", "int", "interface", "internal", "is", "lock", "long", "namespace",
	"new", "null", "object", "operator", "out", "override", "params", "private",
	"protected", "public", "readonly", "record", "ref", "return", "sbyte",
	"sealed", "short", "sizeof", "stackalloc", "static", "string", "struct",
	"switch", "this", "throw", "true", "try", "typeof", "uint", "ulong",
	"unchecked", "unsafe", "ushort", "using", "virtual", "void", "volatile",
	"while",
}

var jsKeywords = []string{
	"async", "await", "break", "case", "catch", "class", "const", "continue",
	"debugger", "default", "delete", "do", "else", "export", "extends", "false",
	"finally", "for", "function", "if", "import", "in", "instanceof", "let",
	"new", "null", "return", "static", "super", "switch", "this", "throw",
	"true", "try", "typeof", "var", "void", "while", "with", "yield",
}

var tsExtraKeywords = []string{
	"abstract", "declare", "enum", "implements", "interface", "module",
	"namespace", "private", "protected", "public", "readonly", "type",
}

var goKeywords = []string{
	"break", "case", "chan", "const", "continue", "default", "defer", "else",
	"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
	"map", "package", "range", "return", "select", "struct", "switch", "type",
	"var",
}

var rustKeywords = []string{
	"as", "async", "await", "break", "const", "continue", "crate", "dyn",
	"else", "enum", "extern", "false", "fn", "for", "if", "impl", "in", "let",
	"loop", "match", "mod", "move", "mut", "pub", "ref", "return", "self",
	"Self", "static", "struct", "super", "trait", "true", "type", "union",
	"unsafe", "use", "where", "while",
}

func builtinTables() []*Table {
	cComments := []CommentPair{{Open: "/*", Close: "*/"}}
	lineSlash := []string{"//"}

	return []*Table{
		{
			Name:              "c",
			Extensions:        []string{".c", ".h"},
			LineComments:      lineSlash,
			BlockComments:     cComments,
			StringDelims:      []string{`"`, `'`},
			Preprocessor:      true,
			Keywords:          cKeywords,
			ClassKeywords:     map[string]types.DeclKind{"struct": types.KindStruct, "union": types.KindStruct, "enum": types.KindEnum},
			Prototypes:        true,
			TransparentBlocks: []string{"extern"},
			ControlKeywords:   cFamilyControl,
			Terminators:       []string{";"},
		},
		{
			Name:               "cpp",
			Aliases:            []string{"c++", "cxx", "cc"},
			Extensions:         []string{".cpp", ".cc", ".cxx", ".c++", ".hpp", ".hh", ".hxx", ".h++", ".ipp", ".tpp"},
			LineComments:       lineSlash,
			BlockComments:      cComments,
			StringDelims:       []string{`"`, `'`},
			Preprocessor:       true,
			Keywords:           cppKeywords,
			PrefixedRawStrings: true,
			NamespaceKeywords:  []string{"namespace"},
			ClassKeywords: map[string]types.DeclKind{
				"class":  types.KindClass,
				"struct": types.KindStruct,
				"union":  types.KindStruct,
				"enum":   types.KindEnum,
			},
			TemplateKeyword:   "template",
			OperatorKeyword:   "operator",
			Prototypes:        true,
			TransparentBlocks: []string{"extern"},
			ControlKeywords:   cFamilyControl,
			AccessSpecifiers:  []string{"public", "protected", "private"},
			Contextual:        []string{"final", "override"},
			Terminators:       []string{";"},
		},
		{
			Name:          "java",
			Extensions:    []string{".java"},
			LineComments:  lineSlash,
			BlockComments: cComments,
			StringDelims:  []string{`"`, `'`},
			Keywords:      javaKeywords,
			ClassKeywords: map[string]types.DeclKind{
				"class":     types.KindClass,
				"interface": types.KindClass,
				"record":    types.KindClass,
				"enum":      types.KindEnum,
			},
			Prototypes:      true,
			ControlKeywords: append([]string{"synchronized"}, cFamilyControl...),
			Contextual:      []string{"final", "sealed", "non-sealed"},
			Terminators:     []string{";"},
		},
		{
			Name:              "csharp",
			Aliases:           []string{"c#", "cs"},
			Extensions:        []string{".cs"},
			LineComments:      lineSlash,
			BlockComments:     cComments,
			StringDelims:      []string{`"`, `'`},
			Preprocessor:      true,
			Keywords:          csharpKeywords,
			NamespaceKeywords: []string{"namespace"},
			ClassKeywords: map[string]types.DeclKind{
				"class":     types.KindClass,
				"interface": types.KindClass,
				"record":    types.KindClass,
				"struct":    types.KindStruct,
				"enum":      types.KindEnum,
			},
			OperatorKeyword: "operator",
			Prototypes:      true,
			ControlKeywords: append([]string{"foreach", "lock", "using"}, cFamilyControl...),
			Contextual:      []string{"sealed", "partial"},
			Terminators:     []string{";"},
		},
		{
			Name:              "javascript",
			Aliases:           []string{"js", "jsx"},
			Extensions:        []string{".js", ".jsx", ".mjs", ".cjs"},
			LineComments:      lineSlash,
			BlockComments:     cComments,
			StringDelims:      []string{`"`, `'`},
			RawStringDelims:   []string{"`"},
			Keywords:          jsKeywords,
			ClassKeywords:     map[string]types.DeclKind{"class": types.KindClass},
			FunctionKeywords:  []string{"function"},
			ControlKeywords:   cFamilyControl,
			Terminators:       []string{";"},
			NewlineTerminates: true,
		},
		{
			Name:              "typescript",
			Aliases:           []string{"ts", "tsx"},
			Extensions:        []string{".ts", ".tsx", ".mts", ".cts"},
			LineComments:      lineSlash,
			BlockComments:     cComments,
			StringDelims:      []string{`"`, `'`},
			RawStringDelims:   []string{"`"},
			Keywords:          append(append([]string{}, jsKeywords...), tsExtraKeywords...),
			NamespaceKeywords: []string{"namespace", "module"},
			ClassKeywords: map[string]types.DeclKind{
				"class":     types.KindClass,
				"interface": types.KindClass,
				"enum":      types.KindEnum,
			},
			FunctionKeywords:  []string{"function"},
			ControlKeywords:   cFamilyControl,
			Terminators:       []string{";"},
			NewlineTerminates: true,
		},
		{
			Name:            "go",
			Aliases:         []string{"golang"},
			Extensions:      []string{".go"},
			LineComments:    lineSlash,
			BlockComments:   cComments,
			StringDelims:    []string{`"`, `'`},
			RawStringDelims: []string{"`"},
			Keywords:        goKeywords,
			ClassKeywords: map[string]types.DeclKind{
				"struct":    types.KindStruct,
				"interface": types.KindClass,
			},
			FunctionKeywords:       []string{"func"},
			RequireFunctionKeyword: true,
			Prototypes:             true,
			ControlKeywords:        append([]string{"select", "defer", "go"}, cFamilyControl...),
			Terminators:            []string{";"},
			NewlineTerminates:      true,
		},
		{
			Name:              "rust",
			Aliases:           []string{"rs"},
			Extensions:        []string{".rs"},
			LineComments:      lineSlash,
			BlockComments:     cComments,
			StringDelims:      []string{`"`, `'`},
			Lifetimes:         true,
			Keywords:          rustKeywords,
			NamespaceKeywords: []string{"mod"},
			ClassKeywords: map[string]types.DeclKind{
				"struct": types.KindStruct,
				"union":  types.KindStruct,
				"enum":   types.KindEnum,
				"trait":  types.KindClass,
				"impl":   types.KindClass,
			},
			FunctionKeywords:       []string{"fn"},
			RequireFunctionKeyword: true,
			Prototypes:             true,
			ControlKeywords:        append([]string{"loop", "match"}, cFamilyControl...),
			Terminators:            []string{";"},
		},
	}
}
