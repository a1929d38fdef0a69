package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/conductor/internal/debug"
)

// Registry file extensions recognized by the parser.
const (
	ExtTOML = ".toml"
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
	ExtJSON = ".json"
)

// BuiltinSource is the Source recorded for the embedded default pipelines.
const BuiltinSource = "builtin"

//go:embed pipelines.toml
var builtinPipelines []byte

// Parser loads registry files and merges them over the embedded defaults.
//
// NOTE: Parser is NOT thread-safe.
type Parser struct {
	// patterns are doublestar globs, relative to root unless absolute.
	patterns []string
	root     string
}

// NewParser creates a parser that searches root for registry files matching
// patterns. With no patterns the default search is used:
// .conductor/pipelines.{toml,yaml,yml,json} and .conductor/pipelines/**.
func NewParser(root string, patterns ...string) *Parser {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	return &Parser{root: root, patterns: patterns}
}

// DefaultPatterns returns the default project-level search globs.
func DefaultPatterns() []string {
	return []string{
		".conductor/pipelines.{toml,yaml,yml,json}",
		".conductor/pipelines/**/*.{toml,yaml,yml,json}",
	}
}

// Load returns the builtin registry with every discovered file merged over
// it in lexical path order, then validates the result.
func (p *Parser) Load() (*Registry, error) {
	reg, err := Builtin()
	if err != nil {
		return nil, err
	}
	paths, err := p.Discover()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		f, err := p.ParseFile(path)
		if err != nil {
			return nil, err
		}
		debug.Logf("registry: merged %s (%d pipelines, %d groups)", path, len(f.Pipelines), len(f.Groups))
		reg.Merge(f, path)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// Discover expands the search patterns into a sorted, de-duplicated list of
// existing files.
func (p *Parser) Discover() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range p.patterns {
		base, glob := p.root, pattern
		if filepath.IsAbs(pattern) {
			base, glob = doublestar.SplitPattern(filepath.ToSlash(pattern))
		}
		if base == "" {
			base = "."
		}
		matches, err := doublestar.Glob(os.DirFS(base), filepath.ToSlash(glob), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", pattern, err)
		}
		for _, m := range matches {
			full := filepath.Join(base, filepath.FromSlash(m))
			if !seen[full] {
				seen[full] = true
				out = append(out, full)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// ParseFile parses a registry file, detecting the format from its extension.
func (p *Parser) ParseFile(path string) (*File, error) {
	// #nosec G304 -- path comes from configured search patterns
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtTOML:
		f, err = ParseTOML(data)
	case ExtYAML, ExtYML:
		f, err = ParseYAML(data)
	case ExtJSON:
		f, err = ParseJSON(data)
	default:
		return nil, fmt.Errorf("parse %s: unsupported registry format", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// ParseTOML parses a registry file from TOML bytes.
func ParseTOML(data []byte) (*File, error) {
	var f File
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	return &f, nil
}

// ParseYAML parses a registry file from YAML bytes.
func ParseYAML(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return &f, nil
}

// ParseJSON parses a registry file from JSON bytes.
func ParseJSON(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return &f, nil
}

// Builtin returns a fresh registry holding only the embedded defaults.
func Builtin() (*Registry, error) {
	f, err := ParseTOML(builtinPipelines)
	if err != nil {
		return nil, fmt.Errorf("builtin pipelines: %w", err)
	}
	reg := New()
	reg.Merge(f, BuiltinSource)
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("builtin pipelines: %w", err)
	}
	return reg, nil
}
