// Package registry provides the pipeline registry: the read-only catalogue of
// workflow templates, parallel join groups, and per-stage display metadata.
//
// Registry files may be TOML, YAML, or JSON. Example pipelines.toml:
//
//	[roles]
//	debugger = "debugger"
//	developer = "developer"
//
//	[stages.REVIEW]
//	label = "Code review"
//	icon = "🔍"
//	agent = "reviewer"
//	category = "review"
//
//	[[groups]]
//	name = "verify"
//	members = ["REVIEW", "TEST"]
//
//	[[pipelines]]
//	name = "bugfix"
//	stages = ["DEV", "REVIEW", "TEST", "RETRO"]
//
// A pipeline entry may carry a mode tag after a slash ("TEST/spec"), which
// distinguishes repeated occurrences of the same base name.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/steveyegge/conductor/internal/stagekey"
	"github.com/steveyegge/conductor/internal/types"
)

// ModeSeparator splits a pipeline entry into base name and mode tag.
const ModeSeparator = "/"

// StageMeta is the display metadata for one base stage name.
type StageMeta struct {
	Label    string         `toml:"label" yaml:"label" json:"label"`
	Icon     string         `toml:"icon" yaml:"icon" json:"icon,omitempty"`
	Agent    string         `toml:"agent" yaml:"agent" json:"agent,omitempty"`
	Category types.Category `toml:"category" yaml:"category" json:"category,omitempty"`
}

// Group is a parallel join group: base names meant to run concurrently and
// converge before the pipeline advances past all of them.
type Group struct {
	Name    string   `toml:"name" yaml:"name" json:"name"`
	Members []string `toml:"members" yaml:"members" json:"members"`
}

// Has reports whether base is a member of the group.
func (g *Group) Has(base string) bool {
	for _, m := range g.Members {
		if m == base {
			return true
		}
	}
	return false
}

// Pipeline is a named, ordered list of stage entries. Names may repeat.
type Pipeline struct {
	Name        string   `toml:"name" yaml:"name" json:"name"`
	Description string   `toml:"description" yaml:"description" json:"description,omitempty"`
	Stages      []string `toml:"stages" yaml:"stages" json:"stages"`

	// Source tracks where this pipeline was loaded from (set by parser).
	Source string `toml:"-" yaml:"-" json:"source,omitempty"`
}

// Entry is one parsed pipeline stage entry.
type Entry struct {
	Key  string // concrete stage key (BASE or BASE:N)
	Base string
	Mode string
}

// Entries parses the stage list into concrete keys with mode tags.
func (p *Pipeline) Entries() []Entry {
	bases := make([]string, len(p.Stages))
	modes := make([]string, len(p.Stages))
	for i, raw := range p.Stages {
		bases[i], modes[i] = ParseEntry(raw)
	}
	keys := stagekey.Assign(bases)
	out := make([]Entry, len(p.Stages))
	for i := range p.Stages {
		out[i] = Entry{Key: keys[i], Base: bases[i], Mode: modes[i]}
	}
	return out
}

// ParseEntry splits "BASE/mode" into its parts. The mode is optional.
func ParseEntry(raw string) (base, mode string) {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, ModeSeparator); idx >= 0 {
		return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+1:])
	}
	return raw, ""
}

// Roles names the workers the hint engine proposes for remediation.
type Roles struct {
	Debugger  string `toml:"debugger" yaml:"debugger" json:"debugger,omitempty"`
	Developer string `toml:"developer" yaml:"developer" json:"developer,omitempty"`
}

// File is the on-disk shape of a registry file.
type File struct {
	Roles     Roles                 `toml:"roles" yaml:"roles" json:"roles"`
	Stages    map[string]*StageMeta `toml:"stages" yaml:"stages" json:"stages"`
	Groups    []*Group              `toml:"groups" yaml:"groups" json:"groups"`
	Pipelines []*Pipeline           `toml:"pipelines" yaml:"pipelines" json:"pipelines"`
}

// Registry is the merged, validated view over all registry files.
type Registry struct {
	roles     Roles
	stages    map[string]*StageMeta
	groups    []*Group
	pipelines map[string]*Pipeline
	order     []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		stages:    make(map[string]*StageMeta),
		pipelines: make(map[string]*Pipeline),
	}
}

// Merge layers f over the registry. Stages, groups and pipelines with the
// same name are replaced; roles are replaced field by field when set.
func (r *Registry) Merge(f *File, source string) {
	if f.Roles.Debugger != "" {
		r.roles.Debugger = f.Roles.Debugger
	}
	if f.Roles.Developer != "" {
		r.roles.Developer = f.Roles.Developer
	}
	for name, meta := range f.Stages {
		if meta == nil {
			continue
		}
		r.stages[name] = meta
	}
	for _, g := range f.Groups {
		if g == nil {
			continue
		}
		replaced := false
		for i, existing := range r.groups {
			if existing.Name == g.Name {
				r.groups[i] = g
				replaced = true
				break
			}
		}
		if !replaced {
			r.groups = append(r.groups, g)
		}
	}
	for _, p := range f.Pipelines {
		if p == nil {
			continue
		}
		p.Source = source
		if _, exists := r.pipelines[p.Name]; !exists {
			r.order = append(r.order, p.Name)
		}
		r.pipelines[p.Name] = p
	}
}

// Validate checks the registry for configuration errors. Group overlap is
// rejected here so that convergence never has to arbitrate between groups.
func (r *Registry) Validate() error {
	var errs []string

	for name, meta := range r.stages {
		if strings.Contains(name, stagekey.Separator) || strings.Contains(name, ModeSeparator) {
			errs = append(errs, fmt.Sprintf("stages.%s: name must not contain %q or %q", name, stagekey.Separator, ModeSeparator))
		}
		if meta.Category != "" && !meta.Category.IsValid() {
			errs = append(errs, fmt.Sprintf("stages.%s: invalid category %q (must be review, test, retro, or other)", name, meta.Category))
		}
	}

	owner := make(map[string]string)
	for i, g := range r.groups {
		if g.Name == "" {
			errs = append(errs, fmt.Sprintf("groups[%d]: name is required", i))
			continue
		}
		distinct := make(map[string]bool)
		for _, m := range g.Members {
			distinct[m] = true
		}
		if len(distinct) < 2 {
			errs = append(errs, fmt.Sprintf("groups[%d] (%s): need at least 2 distinct members, got %d", i, g.Name, len(distinct)))
		}
		for _, m := range g.Members {
			if prev, ok := owner[m]; ok && prev != g.Name {
				errs = append(errs, fmt.Sprintf("groups[%d] (%s): member %q already belongs to group %q", i, g.Name, m, prev))
				continue
			}
			owner[m] = g.Name
		}
	}

	for _, name := range r.order {
		p := r.pipelines[name]
		if p.Name == "" {
			errs = append(errs, "pipelines: name is required")
			continue
		}
		if len(p.Stages) == 0 {
			errs = append(errs, fmt.Sprintf("pipelines.%s: at least one stage is required", p.Name))
		}
		for j, raw := range p.Stages {
			base, _ := ParseEntry(raw)
			if base == "" {
				errs = append(errs, fmt.Sprintf("pipelines.%s.stages[%d]: empty stage name", p.Name, j))
			} else if strings.Contains(base, stagekey.Separator) {
				errs = append(errs, fmt.Sprintf("pipelines.%s.stages[%d]: stage name %q must not contain %q", p.Name, j, base, stagekey.Separator))
			}
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("invalid registry:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Pipeline returns the named template.
func (r *Registry) Pipeline(name string) (*Pipeline, error) {
	p, ok := r.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", types.ErrUnknownPipeline, name, strings.Join(r.order, ", "))
	}
	return p, nil
}

// PipelineNames returns template names in load order.
func (r *Registry) PipelineNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Groups returns the group definitions in declaration order.
func (r *Registry) Groups() []*Group {
	out := make([]*Group, len(r.groups))
	copy(out, r.groups)
	return out
}

// GroupOf returns the group containing base, or nil.
func (r *Registry) GroupOf(base string) *Group {
	for _, g := range r.groups {
		if g.Has(base) {
			return g
		}
	}
	return nil
}

// GroupsContaining returns every group that lists base as a member. With
// validated (disjoint) groups this has at most one element.
func (r *Registry) GroupsContaining(base string) []*Group {
	var out []*Group
	for _, g := range r.groups {
		if g.Has(base) {
			out = append(out, g)
		}
	}
	return out
}

// Roles returns the remediation roles.
func (r *Registry) Roles() Roles {
	return r.roles
}

// Meta returns the display metadata for base.
func (r *Registry) Meta(base string) (*StageMeta, bool) {
	m, ok := r.stages[base]
	return m, ok
}

// Known reports whether base has metadata or appears in some template.
func (r *Registry) Known(base string) bool {
	if _, ok := r.stages[base]; ok {
		return true
	}
	for _, p := range r.pipelines {
		for _, raw := range p.Stages {
			if b, _ := ParseEntry(raw); b == base {
				return true
			}
		}
	}
	return false
}

// Bases returns every known base name (metadata or template entries), sorted.
func (r *Registry) Bases() []string {
	seen := make(map[string]bool)
	for name := range r.stages {
		seen[name] = true
	}
	for _, p := range r.pipelines {
		for _, raw := range p.Stages {
			if b, _ := ParseEntry(raw); b != "" {
				seen[b] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Label returns the display label for base (the base itself when unset).
func (r *Registry) Label(base string) string {
	if m, ok := r.stages[base]; ok && m.Label != "" {
		return m.Label
	}
	return base
}

// Icon returns the display icon for base.
func (r *Registry) Icon(base string) string {
	if m, ok := r.stages[base]; ok {
		return m.Icon
	}
	return ""
}

// Agent returns the worker name associated with base.
func (r *Registry) Agent(base string) string {
	if m, ok := r.stages[base]; ok {
		return m.Agent
	}
	return ""
}

// Category returns the classification category for base. An explicit
// category in the metadata wins; otherwise it is inferred from the name.
func (r *Registry) Category(base string) types.Category {
	if m, ok := r.stages[base]; ok && m.Category != "" {
		return m.Category
	}
	return InferCategory(base)
}

// InferCategory guesses a category from a stage name.
func InferCategory(base string) types.Category {
	upper := strings.ToUpper(base)
	switch {
	case strings.Contains(upper, "REVIEW"), strings.Contains(upper, "AUDIT"):
		return types.CategoryReview
	case strings.Contains(upper, "TEST"), upper == "QA", strings.HasPrefix(upper, "QA_"), strings.HasPrefix(upper, "QA-"):
		return types.CategoryTest
	case strings.Contains(upper, "RETRO"):
		return types.CategoryRetro
	}
	return types.CategoryOther
}
