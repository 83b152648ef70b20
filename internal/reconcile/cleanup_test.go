package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/calcdata/internal/model"
)

func TestCleanup(t *testing.T) {
	in := &model.Dataset{
		Skills: map[string][]model.Skill{"7": {{ID: "s", Name: "DNA Stats"}}},
		DNA: map[string][]model.DnaEntry{
			"7": {
				{ID: "a", Name: "Flame Nova"},
				{ID: "b", Name: "DNA Stats"},
				{ID: "c", Name: "DNA Stats: Power"},
			},
			"8": {{ID: "d", Name: "Iron Skin"}},
		},
	}

	out, res := Cleanup(in, "DNA Stats")

	require.Len(t, out.DNA["7"], 1)
	assert.Equal(t, "Flame Nova", out.DNA["7"][0].Name)
	assert.Equal(t, SpecCleanup{Removed: 2, Kept: 1}, res.Specs["7"])
	assert.Equal(t, SpecCleanup{Removed: 0, Kept: 1}, res.Specs["8"])
	assert.Equal(t, 2, res.Removed)
	assert.Equal(t, 2, res.Kept)
	assert.Equal(t, 2, res.Count())
	assert.Equal(t, "cleanup: removed 2 placeholder DNA entries, kept 2", res.Summary())

	require.Len(t, res.Changes, 2)
	assert.Equal(t, "b", res.Changes[0].EntityID)
	assert.Equal(t, MethodCleanup, res.Changes[0].Method)

	// Skills and the input are untouched.
	assert.Equal(t, "DNA Stats", out.Skills["7"][0].Name)
	assert.Len(t, in.DNA["7"], 3)
}

func TestCleanup_BlankAndAllRemoved(t *testing.T) {
	in := &model.Dataset{DNA: map[string][]model.DnaEntry{
		"1": {{ID: "x", Name: "  "}, {ID: "y", Name: ""}},
	}}

	out, res := Cleanup(in, "")

	assert.NotNil(t, out.DNA["1"])
	assert.Empty(t, out.DNA["1"])
	assert.Equal(t, 2, res.Removed)
}

func TestCleanup_Idempotent(t *testing.T) {
	in := &model.Dataset{DNA: map[string][]model.DnaEntry{
		"1": {{ID: "a", Name: "Flame Nova"}, {ID: "b", Name: "DNA Stats"}},
	}}

	first, _ := Cleanup(in, "DNA Stats")
	_, res := Cleanup(first, "DNA Stats")
	assert.Zero(t, res.Count())
}
