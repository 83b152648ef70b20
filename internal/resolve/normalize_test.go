package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoose(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fire Ball", "fireball"},
		{"FireBall", "fireball"},
		{"fire-ball!", "fireball"},
		{"Lv. 20 Strike", "lv20strike"},
		{"Öl Schlag", "lschlag"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Loose(tt.in))
		})
	}
}

func TestSpaced(t *testing.T) {
	assert.Equal(t, "blessofbody", Spaced("Bless of Body"))
	assert.Equal(t, "blessofbody", Spaced("BlessofBody"))
	assert.Equal(t, "self-heal", Spaced("Self-Heal"))
	assert.Equal(t, "ab", Spaced(" a\t b \n"))
	assert.Equal(t, "", Spaced(""))
}

func TestNormalizer_Key(t *testing.T) {
	assert.Equal(t, "selfheal", LooseKey.Key("Self-Heal"))
	assert.Equal(t, "self-heal", SpacedKey.Key("Self-Heal"))
	assert.Equal(t, "loose", LooseKey.String())
	assert.Equal(t, "spaced", SpacedKey.String())
}

func TestSpaceCamel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FireBall", "Fire Ball"},
		{"SelfLightningShockCast", "Self Lightning Shock Cast"},
		{"HPRecovery", "H P Recovery"},
		{"Fire Ball", "Fire Ball"},
		{"Self-Heal", "Self-Heal"},
		{"Level2Strike", "Level2 Strike"},
		{"fireball", "fireball"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SpaceCamel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, SpaceCamel(got), "applying twice must be stable")
		})
	}
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder("DNA Stats", "DNA Stats"))
	assert.True(t, IsPlaceholder("DNA Stats: Power", "DNA Stats"))
	assert.True(t, IsPlaceholder("  ", "DNA Stats"))
	assert.False(t, IsPlaceholder("Flame Nova", "DNA Stats"))
	assert.False(t, IsPlaceholder("Power DNA Stats", "DNA Stats"))
	assert.False(t, IsPlaceholder("Flame Nova", ""))
}
