package lang

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dshills/codechunk/pkg/types"
)

// Registry maps language names, aliases and file extensions to tables.
// A Registry is immutable; Extend returns a new one.
type Registry struct {
	tables  map[string]*Table
	aliases map[string]string
	exts    map[string]string
}

var (
	builtinOnce sync.Once
	builtin     *Registry
	builtinErr  error
)

// Builtin returns the registry of built-in language tables
func Builtin() *Registry {
	builtinOnce.Do(func() {
		builtin, builtinErr = NewRegistry(builtinTables()...)
	})
	if builtinErr != nil {
		panic(fmt.Sprintf("built-in language tables: %v", builtinErr))
	}
	return builtin
}

// NewRegistry compiles the given tables into a registry. Later tables
// replace earlier ones with the same name.
func NewRegistry(tables ...*Table) (*Registry, error) {
	r := &Registry{
		tables:  make(map[string]*Table),
		aliases: make(map[string]string),
		exts:    make(map[string]string),
	}
	for _, t := range tables {
		if err := r.add(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(t *Table) error {
	if err := t.compile(); err != nil {
		return err
	}
	r.tables[t.Name] = t
	for _, a := range t.Aliases {
		r.aliases[strings.ToLower(a)] = t.Name
	}
	for _, ext := range t.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.exts[ext] = t.Name
	}
	return nil
}

// Extend returns a registry holding r's tables plus the given ones
func (r *Registry) Extend(tables ...*Table) (*Registry, error) {
	next := &Registry{
		tables:  make(map[string]*Table, len(r.tables)+len(tables)),
		aliases: make(map[string]string, len(r.aliases)),
		exts:    make(map[string]string, len(r.exts)),
	}
	for k, v := range r.tables {
		next.tables[k] = v
	}
	for k, v := range r.aliases {
		next.aliases[k] = v
	}
	for k, v := range r.exts {
		next.exts[k] = v
	}
	for _, t := range tables {
		if err := next.add(t); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// Lookup finds a table by name or alias, case-insensitively
func (r *Registry) Lookup(name string) (*Table, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if t, ok := r.tables[key]; ok {
		return t, nil
	}
	if canonical, ok := r.aliases[key]; ok {
		return r.tables[canonical], nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnknownLanguage, name)
}

// DetectByPath picks a table from the file extension
func (r *Registry) DetectByPath(path string) (*Table, bool) {
	name, ok := r.exts[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, false
	}
	return r.tables[name], true
}

// Names returns the registered language names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// tableFile is the on-disk layout of a language table file
type tableFile struct {
	Languages []*Table `yaml:"languages" toml:"languages"`
}

// LoadFile reads language tables from a TOML or YAML file
func LoadFile(path string) ([]*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read language file: %w", err)
	}

	var f tableFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported language file format %q", types.ErrInvalidConfig, path)
	}
	if len(f.Languages) == 0 {
		return nil, fmt.Errorf("%w: %s defines no languages", types.ErrInvalidConfig, path)
	}
	return f.Languages, nil
}

// LoadRegistry returns the built-in registry extended with the tables in files
func LoadRegistry(files ...string) (*Registry, error) {
	reg := Builtin()
	if len(files) == 0 {
		return reg, nil
	}
	var tables []*Table
	for _, path := range files {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, loaded...)
	}
	return reg.Extend(tables...)
}
