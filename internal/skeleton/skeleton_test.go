package skeleton

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/calcdata/internal/model"
)

const calculatorPage = `<html><body>
<div class='calculator_select_job' style='background-image: url(/template/images/clas/Templar.png);' clas='1'>Templar</div>
<a href='http://requiem.isnet.ru/calculator/101.html'><img src='/template/images/clas/1_Knight.png'></a>
<a href='http://requiem.isnet.ru/calculator/102.html'><img src='/template/images/clas/1_HolyAvenger.png'></a>
<a href='/news.html'>news</a>
<div class='calculator_select_job' style='background-image: url(/template/images/clas/Defender.png);' clas='2'>Defender</div>
<a href='http://requiem.isnet.ru/calculator/201.html'><img src='/template/images/clas/2_Guardian.png'></a>
<div class='calculator_select_job' style='background-image: url(/template/images/clas/SoulHunter.png);' clas='7'>Soul Hunter</div>
</body></html>`

const specPage = `<html><body>
<img class='skill' type='0' id='11' src='/template/images/skills/Holy_Strike.png'>
<img class='skill' type='0' id='12' src='/template/images/skills/HolyBolt_G.png'>
<img class='skill' type='0' id='11' src='/template/images/skills/Holy_Strike.png'>
<img class='skill' type='1' id='31' src='/template/images/skills/DNA_Power_Boost.png'>
<img class='skill' type='2' id='99' src='/template/images/skills/Other.png'>
<img class='icon' type='0' id='50' src='/template/images/skills/Ignored.png'>
</body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseCalculator(t *testing.T) {
	h := ParseCalculator(parse(t, calculatorPage))

	assert.Equal(t, []model.Group{
		{ID: "turian", Name: "Turian"},
		{ID: "kruxena", Name: "Kruxena"},
	}, h.Groups)

	require.Len(t, h.Jobs["turian"], 2)
	templar := h.Jobs["turian"][0]
	assert.Equal(t, "1", templar.ID)
	assert.Equal(t, "Templar", templar.Name)
	assert.Equal(t, []model.Spec{
		{ID: "101", Name: "Knight"},
		{ID: "102", Name: "Holy Avenger"},
	}, templar.Specs)
	assert.Equal(t, []model.Spec{{ID: "201", Name: "Guardian"}}, h.Jobs["turian"][1].Specs)

	require.Len(t, h.Jobs["kruxena"], 1)
	assert.Equal(t, "Soul Hunter", h.Jobs["kruxena"][0].Name)
	assert.Empty(t, h.Jobs["kruxena"][0].Specs)
}

func TestParseCalculator_UnknownClass(t *testing.T) {
	html := `<div class='calculator_select_job' style='background-image: url(/template/images/clas/StormCaller.png);' clas='9'></div>`
	h := ParseCalculator(parse(t, html))
	assert.Equal(t, []model.Group{{ID: "storm-caller", Name: "Storm Caller"}}, h.Groups)
	assert.Equal(t, "Storm Caller", h.Jobs["storm-caller"][0].Name)
}

func TestParseSpec(t *testing.T) {
	skills, dna := ParseSpec(parse(t, specPage))

	assert.Equal(t, []model.Skill{
		{ID: "11", Name: "Holy Strike", MaxLevel: model.DefaultMaxLevel},
		{ID: "12", Name: "HolyBolt", MaxLevel: model.DefaultMaxLevel},
	}, skills)
	assert.Equal(t, []model.DnaEntry{
		{ID: "31", Name: "Power Boost", MaxLevel: model.DefaultMaxLevel},
	}, dna)
}

func TestParseSpec_Empty(t *testing.T) {
	skills, dna := ParseSpec(parse(t, "<html></html>"))
	assert.NotNil(t, skills)
	assert.NotNil(t, dna)
	assert.Empty(t, skills)
	assert.Empty(t, dna)
}

func TestSkillNameFromImage(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"/template/images/skills/Fire_Ball.png", "Fire Ball"},
		{"/template/images/skills/DNA_Fire_Ball_G.png", "Fire Ball"},
		{"FireBall.jpg", "FireBall"},
		{"/a/b/_Trim_.png", "Trim"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SkillNameFromImage(tt.src), tt.src)
	}
}

func TestFindSnapshots_Latest(t *testing.T) {
	root := t.TempDir()
	host := filepath.Join(root, SnapshotHost)
	writeFile(t, filepath.Join(host, "20100101000000", "calculator.html"), "old")
	writeFile(t, filepath.Join(host, "20120101000000", "calculator.html"), "new")
	writeFile(t, filepath.Join(host, "20100101000000", "calculator", "101.html"), "old")
	writeFile(t, filepath.Join(host, "20110101000000", "calculator", "101.html"), "new")
	writeFile(t, filepath.Join(host, "20110101000000", "calculator", "notes.html"), "skip")

	snaps, err := FindSnapshots(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(host, "20120101000000", "calculator.html"), snaps.Index)
	assert.Equal(t, map[string]string{
		"101": filepath.Join(host, "20110101000000", "calculator", "101.html"),
	}, snaps.Specs)
}

func TestFindSnapshots_Missing(t *testing.T) {
	_, err := FindSnapshots(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skeleton: open snapshots")

	root := t.TempDir()
	writeFile(t, filepath.Join(root, SnapshotHost, "1", "other.html"), "x")
	_, err = FindSnapshots(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calculator.html not found")
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	host := filepath.Join(root, SnapshotHost, "20120101000000")
	writeFile(t, filepath.Join(host, "calculator.html"), calculatorPage)
	writeFile(t, filepath.Join(host, "calculator", "101.html"), specPage)

	ds, err := Build(root)
	require.NoError(t, err)

	assert.Len(t, ds.Groups, 2)
	assert.Len(t, ds.Jobs["turian"], 2)
	require.Contains(t, ds.Skills, "101")
	assert.Len(t, ds.Skills["101"], 2)
	assert.Len(t, ds.DNA["101"], 1)
	// Specs without a capture are left out of the skill and DNA maps.
	assert.NotContains(t, ds.Skills, "102")
	assert.NotContains(t, ds.DNA, "201")
}
