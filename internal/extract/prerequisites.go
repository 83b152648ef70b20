package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/calcdata/internal/model"
)

var numberRe = regexp.MustCompile(`\d+`)

// Prerequisites reads the table introduced by a bold "Prerequisites" label.
// Rows whose label mentions a job or skill become one requirement each.
func Prerequisites(doc *goquery.Document) (model.Requirements, bool) {
	header := doc.Find("b").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(text(s), "Prerequisites")
	}).First()
	if header.Length() == 0 {
		return nil, false
	}
	table := header.Closest("table")
	if table.Length() == 0 {
		return nil, false
	}

	reqs := model.Requirements{}
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		key := label(cells.Eq(0))
		if !strings.Contains(key, "job") && !strings.Contains(key, "skill") {
			return
		}
		if req, ok := ParseRequirement(text(cells.Eq(1))); ok {
			reqs[key] = req
		}
	})
	if len(reqs) == 0 {
		return nil, false
	}
	return reqs, true
}

// ParseRequirement splits a prerequisite value such as "Holy Bolt, Level 5"
// into its name and level. A part mentioning "level" with a number sets the
// level; the first other non-empty part is the name.
func ParseRequirement(value string) (model.Requirement, bool) {
	var req model.Requirement
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(strings.ToLower(part), "level") {
			if m := numberRe.FindString(part); m != "" {
				if n, err := strconv.Atoi(m); err == nil {
					req.Level = &n
				}
			}
			continue
		}
		if req.Name == "" {
			req.Name = part
		}
	}
	if req.Name == "" && req.Level == nil {
		return model.Requirement{}, false
	}
	return req, true
}
