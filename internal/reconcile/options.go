// Package reconcile runs the name and field passes over the canonical store.
package reconcile

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/calcdata/internal/extract"
	"github.com/sells-group/calcdata/internal/resolve"
)

// Scope selects which sub-passes Run performs.
type Scope string

const (
	ScopeAll    Scope = ""
	ScopeNames  Scope = "names"
	ScopeFields Scope = "fields"
)

// ParseScope validates a --only flag value.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeAll, ScopeNames, ScopeFields:
		return Scope(s), nil
	case "all":
		return ScopeAll, nil
	}
	return "", eris.Errorf("reconcile: unknown scope %q (want names or fields)", s)
}

func (s Scope) names() bool  { return s == ScopeAll || s == ScopeNames }
func (s Scope) fields() bool { return s == ScopeAll || s == ScopeFields }

const (
	DefaultSkillThreshold = 0.8
	DefaultJobThreshold   = 0.9
	DefaultPlaceholder    = "DNA Stats"
)

// Options configures a reconciliation run. Zero values take the defaults.
type Options struct {
	Only           Scope
	RankCount      int
	SkillThreshold float64
	JobThreshold   float64
	Placeholder    string
}

func (o Options) withDefaults() Options {
	if o.RankCount <= 0 {
		o.RankCount = extract.DefaultRankCount
	}
	if o.SkillThreshold <= 0 {
		o.SkillThreshold = DefaultSkillThreshold
	}
	if o.JobThreshold <= 0 {
		o.JobThreshold = DefaultJobThreshold
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	return o
}

func (o Options) jobMode() resolve.Mode {
	return resolve.Mode{Name: "job", Threshold: o.JobThreshold, Norm: resolve.SpacedKey}
}

func (o Options) specMode() resolve.Mode {
	return resolve.Mode{Name: "spec", Threshold: o.JobThreshold, Norm: resolve.SpacedKey}
}

func (o Options) skillMode() resolve.Mode {
	return resolve.Mode{Name: "skill", Threshold: o.SkillThreshold, Norm: resolve.SpacedKey}
}

func (o Options) dnaMode() resolve.Mode {
	return resolve.Mode{
		Name:        "dna",
		Threshold:   o.SkillThreshold,
		Norm:        resolve.LooseKey,
		Fallback:    true,
		Placeholder: o.Placeholder,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
