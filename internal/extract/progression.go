package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/calcdata/internal/model"
)

var statNumberRe = regexp.MustCompile(`^\+?(\d+)$`)

// Progression reads the first wikitable of a skill page into per-column rank
// sequences. The first header must read "level"; rows whose cell count does
// not match the header count are skipped. A repeated header keeps its first
// column.
func Progression(doc *goquery.Document) (map[string][]model.StatValue, bool) {
	table := doc.Find("table.wikitable").First()
	if table.Length() == 0 {
		return nil, false
	}

	var headers []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(text(th)))
	})
	if len(headers) < 2 || headers[0] != "level" {
		return nil, false
	}

	columns := make(map[string]int, len(headers)-1)
	for i, h := range headers[1:] {
		if _, dup := columns[h]; !dup {
			columns[h] = i + 1
		}
	}

	stats := make(map[string][]model.StatValue, len(columns))
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil, false
	}
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != len(headers) {
			return
		}
		for h, i := range columns {
			stats[h] = append(stats[h], ParseStat(text(cells.Eq(i))))
		}
	})
	if len(stats) == 0 {
		return nil, false
	}
	return stats, true
}

// ParseStat converts "+12" or "12" to the integer 12 and keeps anything else
// as text.
func ParseStat(s string) model.StatValue {
	if m := statNumberRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return model.IntStat(n)
		}
	}
	return model.TextStat(s)
}
