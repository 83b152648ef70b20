// Package extract pulls structured skill fields out of reference pages.
// Every extractor returns (value, ok); a page that lacks the structure is
// reported as !ok, never as an error.
package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// text returns the trimmed, whitespace-collapsed text of s.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s.Text())), " ")
}

// label normalizes a key cell: lowercase, colons removed, trimmed.
func label(s *goquery.Selection) string {
	return strings.TrimSpace(strings.ToLower(strings.ReplaceAll(text(s), ":", "")))
}

// digits parses s when it is a non-empty run of ASCII digits.
func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
