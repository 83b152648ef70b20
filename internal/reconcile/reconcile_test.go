package reconcile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/calcdata/internal/dataset"
	"github.com/sells-group/calcdata/internal/model"
	"github.com/sells-group/calcdata/internal/resolve"
	"github.com/sells-group/calcdata/internal/wiki"
)

const holyStrikePage = `<html><body>
<h1 class="page-title">Holy Strike</h1>
<table class="skill info">
  <tr><td>Type:</td><td>Active</td></tr>
  <tr><td>Levels:</td><td>5</td></tr>
  <tr><td>Target:</td><td>Enemy</td></tr>
</table>
<table>
  <tr><td><b>Prerequisites</b></td></tr>
  <tr><td>Job:</td><td>Templar, Level 12</td></tr>
  <tr><td>Prerequisite Skill:</td><td>Holy Bolt, Level 5</td></tr>
</table>
<table>
  <tr><th>Level needed</th><td>5</td><td></td><td></td><td>20</td><td></td></tr>
</table>
<table class="wikitable">
  <tr><th>Level</th><th>Damage</th></tr>
  <tr><td>1</td><td>+120</td></tr>
  <tr><td>2</td><td>140</td></tr>
</table>
</body></html>`

func page(t *testing.T, key, title, html string) *wiki.Page {
	t.Helper()
	if html == "" {
		html = `<html><body><h1 class="page-title">` + title + `</h1><p>stub</p></body></html>`
	}
	p, err := wiki.ParsePage(key, strings.NewReader(html))
	require.NoError(t, err)
	return p
}

func fixtureIndex(t *testing.T) *wiki.Index {
	t.Helper()
	idx := wiki.NewIndex()
	idx.Add(page(t, "site_pages_H_Holy_Strike.html.html", "", holyStrikePage))
	idx.Add(page(t, "site_pages_H_Holy_Bolt.html.html", "Holy Bolt", ""))
	idx.Add(page(t, "site_pages_W_Warrior.html.html", "Warrior", ""))
	idx.Add(page(t, "site_pages_T_Templar.html.html", "Templar", ""))
	return idx
}

func fixtureDataset() *model.Dataset {
	return &model.Dataset{
		Groups: []model.Group{{ID: "1", Name: "Human"}},
		Jobs: map[string][]model.Job{
			"1": {{ID: "10", Name: "Warrior", Specs: []model.Spec{{ID: "101", Name: "Templar"}}}},
		},
		Skills: map[string][]model.Skill{
			"101": {
				{ID: "s1", Name: "HolyStrike", MaxLevel: 10},
				{ID: "s2", Name: "Holy Bolt", MaxLevel: 10, Requires: model.Requirements{"job": {Name: "Warrior"}}},
			},
		},
		DNA: map[string][]model.DnaEntry{
			"101": {
				{ID: "d1", Name: "PowerBoost", MaxLevel: 10},
				{ID: "d2", Name: "DNA Stats", MaxLevel: 10},
			},
		},
	}
}

func fixtureResolver(idx *wiki.Index) *resolve.Resolver {
	return resolve.NewResolver(idx, resolve.NewOverrides(map[string]string{"PowerBoost": "Power Boost"}))
}

func intp(n int) *int { return &n }

func TestRun_NamesAndFields(t *testing.T) {
	idx := fixtureIndex(t)
	in := fixtureDataset()

	out, res := Run(in, idx, fixtureResolver(idx), Options{})

	assert.Equal(t, 2, res.Renamed)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 1, res.Enriched)
	assert.Equal(t, 7, res.Count())

	s1 := out.Skills["101"][0]
	assert.Equal(t, "Holy Strike", s1.Name)
	assert.Equal(t, 5, s1.MaxLevel)
	assert.Equal(t, &model.SkillInfo{Type: "Active", Levels: intp(5), Target: "Enemy"}, s1.Info)
	assert.Equal(t, model.Requirements{
		"job":                {Name: "Templar", Level: intp(12), ID: "101"},
		"prerequisite skill": {Name: "Holy Bolt", Level: intp(5), ID: "s2"},
	}, s1.Requires)
	assert.Equal(t, []int{5, 5, 5, 20, 20}, s1.LvlReq)
	assert.Equal(t, map[string][]model.StatValue{
		"damage": {model.IntStat(120), model.IntStat(140)},
	}, s1.Progression)

	assert.Equal(t, "Power Boost", out.DNA["101"][0].Name)
	assert.Equal(t, "DNA Stats", out.DNA["101"][1].Name)
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	idx := fixtureIndex(t)
	in := fixtureDataset()
	before, err := dataset.Marshal(in)
	require.NoError(t, err)

	_, res := Run(in, idx, fixtureResolver(idx), Options{})
	require.Positive(t, res.Count())

	after, err := dataset.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRun_Idempotent(t *testing.T) {
	idx := fixtureIndex(t)
	r := fixtureResolver(idx)

	first, res := Run(fixtureDataset(), idx, r, Options{})
	require.Positive(t, res.Count())

	second, res := Run(first, idx, r, Options{})
	assert.Zero(t, res.Count(), "changes: %+v", res.Changes)

	a, err := dataset.Marshal(first)
	require.NoError(t, err)
	b, err := dataset.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_MissingExtractorLeavesFieldAlone(t *testing.T) {
	idx := fixtureIndex(t)

	out, _ := Run(fixtureDataset(), idx, fixtureResolver(idx), Options{})

	s2 := out.Skills["101"][1]
	assert.Equal(t, model.Requirements{"job": {Name: "Warrior"}}, s2.Requires)
	assert.Nil(t, s2.LvlReq)
	assert.Nil(t, s2.Info)
}

func TestRun_NamesOnly(t *testing.T) {
	idx := fixtureIndex(t)

	out, res := Run(fixtureDataset(), idx, fixtureResolver(idx), Options{Only: ScopeNames})

	assert.Equal(t, 2, res.Count())
	assert.Equal(t, "Holy Strike", out.Skills["101"][0].Name)
	assert.Nil(t, out.Skills["101"][0].Info)
	for _, c := range res.Changes {
		assert.Equal(t, "name", c.Field)
	}
}

func TestRun_FieldsOnlyUsesStoredNames(t *testing.T) {
	idx := fixtureIndex(t)

	out, res := Run(fixtureDataset(), idx, fixtureResolver(idx), Options{Only: ScopeFields})

	// "HolyStrike" still finds its page through the loose key.
	assert.Equal(t, "HolyStrike", out.Skills["101"][0].Name)
	assert.Equal(t, 5, res.Count())
	for _, c := range res.Changes {
		assert.Equal(t, MethodExtract, c.Method)
		assert.Equal(t, "site_pages_H_Holy_Strike.html.html", c.Source)
	}
}

func TestRun_PadsToMaxLevel(t *testing.T) {
	html := `<html><body><h1 class="page-title">Long Curve</h1>
<table><tr><td>Level needed</td><td>1</td><td>10</td><td>20</td></tr></table></body></html>`
	idx := wiki.NewIndex()
	idx.Add(page(t, "k", "", html))
	ds := &model.Dataset{Skills: map[string][]model.Skill{
		"1": {{ID: "a", Name: "Long Curve", MaxLevel: 7}},
		"2": {{ID: "b", Name: "Long Curve", MaxLevel: 3}},
	}}

	out, _ := Run(ds, idx, nil, Options{Only: ScopeFields})

	assert.Equal(t, []int{1, 10, 20, 20, 20, 20, 20}, out.Skills["1"][0].LvlReq)
	assert.Equal(t, []int{1, 10, 20, 20, 20}, out.Skills["2"][0].LvlReq)
}

func TestRun_NilDataset(t *testing.T) {
	out, res := Run(nil, wiki.NewIndex(), nil, Options{})
	require.NotNil(t, out)
	assert.Zero(t, res.Count())
	assert.Equal(t, "reconcile: no changes; store unchanged", res.Summary())
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": ScopeAll, "all": ScopeAll, "names": ScopeNames, "fields": ScopeFields} {
		got, err := ParseScope(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseScope("everything")
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "", encode((*model.SkillInfo)(nil)))
	assert.Equal(t, "", encode([]int(nil)))
	assert.Equal(t, `"Holy Bolt"`, encode("Holy Bolt"))
	assert.Equal(t, "[1,2]", encode([]int{1, 2}))
}
