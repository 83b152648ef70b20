package resolve

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Method records which rule produced a resolution.
type Method string

const (
	MethodNone     Method = ""
	MethodManual   Method = "manual"
	MethodExact    Method = "exact"
	MethodFuzzy    Method = "fuzzy"
	MethodFallback Method = "fallback"
)

// Reference is the part of the reference corpus the resolver consults.
type Reference interface {
	// Match returns the title whose key under norm equals key.
	Match(norm Normalizer, key string) (string, bool)
	// Titles returns every reference title, sorted.
	Titles() []string
}

// Mode configures one call site of the resolver.
type Mode struct {
	// Name labels the call site in logs ("skill", "job", ...).
	Name string
	// Threshold is the minimum accepted fuzzy score, inclusive.
	Threshold float64
	// Norm is the normalizer used for the exact reference lookup.
	Norm Normalizer
	// Fallback enables the camel-case split for names nothing else matched.
	Fallback bool
	// Placeholder, when set, marks names that only a manual override may
	// rename.
	Placeholder string
}

// Resolution is the outcome of resolving one raw name.
type Resolution struct {
	Name       string
	Confidence float64
	Method     Method
}

// Matched reports whether any rule produced a replacement name.
func (r Resolution) Matched() bool { return r.Method != MethodNone }

// Resolver maps noisy names onto canonical reference titles.
type Resolver struct {
	ref       Reference
	overrides Overrides
	scorer    Scorer
	titles    []string
	lowered   []string
	titleSet  map[string]struct{}
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithScorer replaces the default similarity metric.
func WithScorer(s Scorer) Option {
	return func(r *Resolver) {
		if s != nil {
			r.scorer = s
		}
	}
}

// NewResolver creates a resolver over ref with the given manual overrides.
// ref may be nil, in which case only overrides and the fallback apply.
func NewResolver(ref Reference, overrides Overrides, opts ...Option) *Resolver {
	r := &Resolver{
		ref:       ref,
		overrides: overrides,
		scorer:    LevenshteinScorer,
	}
	for _, o := range opts {
		o(r)
	}
	if ref != nil {
		r.titles = append([]string(nil), ref.Titles()...)
		sort.Strings(r.titles)
		r.lowered = make([]string, len(r.titles))
		r.titleSet = make(map[string]struct{}, len(r.titles))
		for i, t := range r.titles {
			r.lowered[i] = strings.ToLower(t)
			r.titleSet[t] = struct{}{}
		}
	}
	return r
}

// Resolve returns the best-effort canonical name for raw. Rules, first match
// wins:
//  1. Verbatim manual override (confidence 1.0)
//  2. Exact reference title or normalized key lookup (confidence 1.0)
//  3. Best fuzzy score at or above mode.Threshold
//  4. Camel-case split, when mode.Fallback is set and it changes the name;
//     the split form is tried against rules 2 and 3 first
//
// Names that are themselves override targets resolve to themselves, and
// placeholder names stop after rule 1, so a resolved name never moves again
// on a later pass.
func (r *Resolver) Resolve(raw string, mode Mode) Resolution {
	if to, ok := r.overrides.Lookup(raw); ok {
		return Resolution{Name: to, Confidence: 1, Method: MethodManual}
	}
	if r.overrides.IsTarget(raw) {
		return Resolution{Name: raw, Confidence: 1, Method: MethodManual}
	}

	if strings.TrimSpace(raw) == "" {
		return Resolution{}
	}
	// Anything mentioning the placeholder label is left for cleanup.
	if mode.Placeholder != "" && strings.Contains(raw, mode.Placeholder) {
		return Resolution{}
	}

	if res, ok := r.match(raw, mode); ok {
		return res
	}

	if mode.Fallback {
		if spaced := SpaceCamel(raw); spaced != raw {
			if res, ok := r.match(spaced, mode); ok {
				return res
			}
			return Resolution{Name: spaced, Method: MethodFallback}
		}
	}

	return Resolution{}
}

// match applies the reference rules: exact title, exact key, fuzzy.
func (r *Resolver) match(name string, mode Mode) (Resolution, bool) {
	if r.ref == nil {
		return Resolution{}, false
	}
	if _, ok := r.titleSet[name]; ok {
		return Resolution{Name: name, Confidence: 1, Method: MethodExact}, true
	}
	if key := mode.Norm.Key(name); key != "" {
		if title, ok := r.ref.Match(mode.Norm, key); ok {
			return Resolution{Name: title, Confidence: 1, Method: MethodExact}, true
		}
	}
	if title, score, ok := r.fuzzy(name, mode.Threshold); ok {
		zap.L().Debug("resolve: fuzzy match",
			zap.String("mode", mode.Name),
			zap.String("raw", name),
			zap.String("match", title),
			zap.Float64("score", score),
		)
		return Resolution{Name: title, Confidence: score, Method: MethodFuzzy}, true
	}
	return Resolution{}, false
}

// fuzzy scores raw against every title. Ties keep the earliest title in
// sorted order.
func (r *Resolver) fuzzy(raw string, threshold float64) (string, float64, bool) {
	if len(r.titles) == 0 {
		return "", 0, false
	}
	lower := strings.ToLower(raw)
	best, bestScore := -1, -1.0
	for i, cand := range r.lowered {
		if s := r.scorer(lower, cand); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 || bestScore < threshold {
		return "", bestScore, false
	}
	return r.titles[best], bestScore, true
}
