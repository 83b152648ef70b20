package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultRankCount is the number of ranks a level curve covers in the
// reference corpus.
const DefaultRankCount = 5

const levelNeededLabel = "Level needed"

// LevelNeeded reads the "Level needed" row of a skill page. Blank or
// non-numeric cells repeat the previous level; blanks before the first
// number take that number. The curve is padded to rankCount by repeating its
// last value.
func LevelNeeded(doc *goquery.Document, rankCount int) ([]int, bool) {
	labelCell := doc.Find("th, td").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(text(s), levelNeededLabel) {
			return false
		}
		// Innermost cell only; an enclosing layout cell also contains the text.
		return s.Find("th, td").FilterFunction(func(_ int, c *goquery.Selection) bool {
			return strings.Contains(text(c), levelNeededLabel)
		}).Length() == 0
	}).First()
	if labelCell.Length() == 0 {
		return nil, false
	}
	row := labelCell.Closest("tr")
	if row.Length() == 0 {
		return nil, false
	}

	cells := row.ChildrenFiltered("td").NotSelection(labelCell)
	if cells.Length() == 0 {
		if ths := row.ChildrenFiltered("th"); ths.Length() > 1 {
			cells = ths.Slice(1, ths.Length())
		}
	}

	raw := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		raw = append(raw, text(c))
	})
	levels, ok := fillLevels(raw)
	if !ok {
		return nil, false
	}
	return PadTo(levels, rankCount), true
}

// fillLevels forward-fills a sparse row of level cells.
func fillLevels(cells []string) ([]int, bool) {
	first, found := 0, false
	for _, c := range cells {
		if n, ok := digits(c); ok {
			first, found = n, true
			break
		}
	}
	if !found {
		return nil, false
	}
	out := make([]int, len(cells))
	last := first
	for i, c := range cells {
		if n, ok := digits(c); ok {
			last = n
		}
		out[i] = last
	}
	return out, true
}

// PadTo returns levels extended to n entries by repeating the last value.
// Longer curves are returned unchanged.
func PadTo(levels []int, n int) []int {
	if len(levels) == 0 || len(levels) >= n {
		return levels
	}
	out := make([]int, n)
	copy(out, levels)
	last := levels[len(levels)-1]
	for i := len(levels); i < n; i++ {
		out[i] = last
	}
	return out
}
