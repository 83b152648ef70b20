package resolve

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed overrides.yaml
var defaultOverridesYAML []byte

// Overrides is the hand-curated raw name -> corrected name table. It is
// consulted before any reference lookup and always trusted.
type Overrides struct {
	m       map[string]string
	targets map[string]struct{}
}

// NewOverrides builds an override table from m. Chained entries are collapsed
// so every key maps straight to its final value; cycles are logged and cut at
// the last distinct value.
func NewOverrides(m map[string]string) Overrides {
	o := Overrides{
		m:       make(map[string]string, len(m)),
		targets: make(map[string]struct{}, len(m)),
	}
	for from, to := range m {
		seen := map[string]bool{from: true}
		for {
			next, ok := m[to]
			if !ok || next == to {
				break
			}
			if seen[to] {
				zap.L().Warn("resolve: override cycle", zap.String("from", from), zap.String("at", to))
				break
			}
			seen[to] = true
			to = next
		}
		o.m[from] = to
	}
	for _, to := range o.m {
		o.targets[to] = struct{}{}
	}
	return o
}

// Lookup returns the corrected name for a verbatim raw key.
func (o Overrides) Lookup(raw string) (string, bool) {
	to, ok := o.m[raw]
	return to, ok
}

// IsTarget reports whether name is the corrected value of some override.
func (o Overrides) IsTarget(name string) bool {
	_, ok := o.targets[name]
	return ok
}

// Len returns the number of override keys.
func (o Overrides) Len() int { return len(o.m) }

// ParseOverrides decodes a YAML mapping of raw name to corrected name.
func ParseOverrides(data []byte) (map[string]string, error) {
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "resolve: parse overrides")
	}
	return m, nil
}

// DefaultOverrides returns the built-in correction table.
func DefaultOverrides() (Overrides, error) {
	m, err := ParseOverrides(defaultOverridesYAML)
	if err != nil {
		return Overrides{}, err
	}
	return NewOverrides(m), nil
}

// LoadOverrides returns the built-in table with the operator file at path
// merged on top. An empty path yields the built-in table alone.
func LoadOverrides(path string) (Overrides, error) {
	m, err := ParseOverrides(defaultOverridesYAML)
	if err != nil {
		return Overrides{}, err
	}
	if path == "" {
		return NewOverrides(m), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, eris.Wrapf(err, "resolve: read overrides %s", path)
	}
	extra, err := ParseOverrides(data)
	if err != nil {
		return Overrides{}, eris.Wrapf(err, "resolve: overrides %s", path)
	}
	for k, v := range extra {
		m[k] = v
	}
	return NewOverrides(m), nil
}
