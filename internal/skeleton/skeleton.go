// Package skeleton builds the initial canonical store from archived
// calculator pages: groups, jobs, specs and the per-spec skill and DNA lists.
package skeleton

import (
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/calcdata/internal/model"
	"github.com/sells-group/calcdata/internal/resolve"
)

// groupFromClass maps a first-job class image key to its race.
var groupFromClass = map[string]string{
	"Defender":       "Turian",
	"Templar":        "Turian",
	"Warrior":        "Bartuk",
	"Shaman":         "Bartuk",
	"Rogue":          "Kruxena",
	"SoulHunter":     "Kruxena",
	"Hunter":         "Xenoa",
	"BattleMagician": "Xenoa",
}

var (
	classImageRe = regexp.MustCompile(`(?i)background-image:\s*url\(\s*['"]?/template/images/clas/([^/)'"]+)\.png`)
	specLinkRe   = regexp.MustCompile(`/calculator/(\d+)\.html$`)
	specImageRe  = regexp.MustCompile(`/template/images/clas/[^/]+_([A-Za-z]+)\.png$`)
)

// Hierarchy is the group / job / spec tree read from calculator.html.
type Hierarchy struct {
	Groups []model.Group
	Jobs   map[string][]model.Job
}

// ParseCalculator reads the job selector of calculator.html. Each
// div.calculator_select_job opens a first job; spec links that follow it in
// document order, up to the next selector, are its specs.
func ParseCalculator(doc *goquery.Document) Hierarchy {
	h := Hierarchy{Jobs: map[string][]model.Job{}}
	seenGroup := map[string]bool{}
	var cur *model.Job
	var curGroup string

	flush := func() {
		if cur != nil {
			h.Jobs[curGroup] = append(h.Jobs[curGroup], *cur)
		}
	}

	doc.Find("div.calculator_select_job, a[href]").Each(func(_ int, s *goquery.Selection) {
		if s.Is("div") {
			flush()
			cur = nil
			style, _ := s.Attr("style")
			m := classImageRe.FindStringSubmatch(style)
			id, _ := s.Attr("clas")
			if m == nil || id == "" {
				return
			}
			key := m[1]
			race, ok := groupFromClass[key]
			if !ok {
				race = resolve.SpaceCamel(key)
			}
			curGroup = strings.ReplaceAll(strings.ToLower(race), " ", "-")
			if !seenGroup[curGroup] {
				seenGroup[curGroup] = true
				h.Groups = append(h.Groups, model.Group{ID: curGroup, Name: race})
			}
			cur = &model.Job{ID: id, Name: resolve.SpaceCamel(key), Specs: []model.Spec{}}
			return
		}
		if cur == nil {
			return
		}
		href, _ := s.Attr("href")
		lm := specLinkRe.FindStringSubmatch(href)
		if lm == nil {
			return
		}
		src, _ := s.Find("img").First().Attr("src")
		im := specImageRe.FindStringSubmatch(src)
		if im == nil {
			return
		}
		cur.Specs = append(cur.Specs, model.Spec{ID: lm[1], Name: resolve.SpaceCamel(im[1])})
	})
	flush()
	return h
}

// ParseSpec reads the skill icons of a calculator/<id>.html page. Icons with
// type 0 are skills and type 1 are DNA entries; repeated ids are dropped.
func ParseSpec(doc *goquery.Document) ([]model.Skill, []model.DnaEntry) {
	skills := []model.Skill{}
	dna := []model.DnaEntry{}
	seenSkill, seenDNA := map[string]bool{}, map[string]bool{}

	doc.Find("img.skill").Each(func(_ int, s *goquery.Selection) {
		typ, _ := s.Attr("type")
		id, _ := s.Attr("id")
		src, _ := s.Attr("src")
		if id == "" || src == "" {
			return
		}
		name := SkillNameFromImage(src)
		switch typ {
		case "0":
			if !seenSkill[id] {
				seenSkill[id] = true
				skills = append(skills, model.Skill{ID: id, Name: name, MaxLevel: model.DefaultMaxLevel})
			}
		case "1":
			if !seenDNA[id] {
				seenDNA[id] = true
				dna = append(dna, model.DnaEntry{ID: id, Name: name, MaxLevel: model.DefaultMaxLevel})
			}
		}
	})
	return skills, dna
}

// SkillNameFromImage derives a display name from a skill icon path:
// "/template/images/skills/DNA_Fire_Ball_G.png" becomes "Fire Ball".
func SkillNameFromImage(src string) string {
	base := src[strings.LastIndex(src, "/")+1:]
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	base = strings.ReplaceAll(base, "_G", "")
	base = strings.TrimPrefix(base, "DNA_")
	return strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
}

// Build extracts a full skeleton dataset from the snapshot tree under root.
// Specs without a captured page get no skill or DNA lists.
func Build(root string) (*model.Dataset, error) {
	snaps, err := FindSnapshots(root)
	if err != nil {
		return nil, err
	}
	doc, err := readDoc(snaps.Index)
	if err != nil {
		return nil, err
	}
	h := ParseCalculator(doc)

	ds := &model.Dataset{
		Groups: h.Groups,
		Jobs:   h.Jobs,
		Skills: map[string][]model.Skill{},
		DNA:    map[string][]model.DnaEntry{},
	}
	if ds.Groups == nil {
		ds.Groups = []model.Group{}
	}
	for _, jobs := range h.Jobs {
		for _, j := range jobs {
			for _, sp := range j.Specs {
				path, ok := snaps.Specs[sp.ID]
				if !ok {
					zap.L().Warn("skeleton: no capture for spec", zap.String("spec", sp.ID), zap.String("name", sp.Name))
					continue
				}
				specDoc, err := readDoc(path)
				if err != nil {
					zap.L().Warn("skeleton: skipping spec page", zap.String("path", path), zap.Error(err))
					continue
				}
				ds.Skills[sp.ID], ds.DNA[sp.ID] = ParseSpec(specDoc)
			}
		}
	}

	zap.L().Info("skeleton: extracted",
		zap.String("index", snaps.Index),
		zap.Int("groups", len(ds.Groups)),
		zap.Int("specs", len(ds.Skills)),
	)
	return ds, nil
}

func readDoc(path string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "skeleton: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, eris.Wrapf(err, "skeleton: parse %s", path)
	}
	return doc, nil
}
