package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/calcdata/internal/model"
)

// BasicInfo reads the key/value table with classes "skill" and "info".
// Unknown keys are ignored.
func BasicInfo(doc *goquery.Document) (*model.SkillInfo, bool) {
	table := doc.Find("table.skill.info").First()
	if table.Length() == 0 {
		return nil, false
	}

	info := &model.SkillInfo{}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		value := text(cells.Eq(1))
		switch label(cells.Eq(0)) {
		case "type":
			info.Type = value
		case "levels":
			if n, ok := digits(value); ok {
				info.Levels = &n
			}
		case "casting time":
			info.CastTime = value
		case "skill downtime", "cooldown":
			info.Cooldown = value
		case "compatible weapon", "compatible weapons":
			info.Weapons = splitList(value)
		case "range":
			info.Range = value
		case "target":
			info.Target = value
		}
	})
	if info.Empty() {
		return nil, false
	}
	return info, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
