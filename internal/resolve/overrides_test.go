package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOverrides(t *testing.T) {
	o, err := DefaultOverrides()
	require.NoError(t, err)
	assert.Greater(t, o.Len(), 50)

	to, ok := o.Lookup("Frame Nova")
	assert.True(t, ok)
	assert.Equal(t, "Flame Nova", to)

	_, ok = o.Lookup("frame nova")
	assert.False(t, ok, "keys match verbatim")
}

func TestNewOverrides_CollapsesChains(t *testing.T) {
	o := NewOverrides(map[string]string{
		"ShieldSence":  "Shield Sence",
		"Shield Sence": "Shield Sense",
	})

	to, ok := o.Lookup("ShieldSence")
	require.True(t, ok)
	assert.Equal(t, "Shield Sense", to)
	assert.True(t, o.IsTarget("Shield Sense"))
	assert.False(t, o.IsTarget("Shield Sence"))
}

func TestNewOverrides_Cycle(t *testing.T) {
	o := NewOverrides(map[string]string{"A": "B", "B": "A"})
	_, ok := o.Lookup("A")
	assert.True(t, ok)
	_, ok = o.Lookup("B")
	assert.True(t, ok)
}

func TestLoadOverrides_MergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Frame Nova: Frost Nova\nMy Typo: My Skill\n"), 0644))

	o, err := LoadOverrides(path)
	require.NoError(t, err)

	to, _ := o.Lookup("Frame Nova")
	assert.Equal(t, "Frost Nova", to)
	to, _ = o.Lookup("My Typo")
	assert.Equal(t, "My Skill", to)
	to, _ = o.Lookup("Spining Slash")
	assert.Equal(t, "Spinning Slash", to)
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	_, err := LoadOverrides(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read overrides")
}

func TestParseOverrides_Invalid(t *testing.T) {
	_, err := ParseOverrides([]byte("- not\n- a map\n"))
	require.Error(t, err)
}
