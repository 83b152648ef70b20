package wiki

import (
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

// Page is one parsed reference page.
type Page struct {
	// Key is the storage key (file name) the page was read from.
	Key   string
	Title string
	Doc   *goquery.Document
}

// pageKeyRe matches the crawler's storage key for wiki pages:
// site_pages_<bucket>_<Title_With_Underscores>.html.html
var pageKeyRe = regexp.MustCompile(`^site_pages_[A-Z0-9]_(.+)\.html\.html$`)

// TitleFromKey derives a human-readable title from a storage key. Keys that
// do not follow the crawler pattern fall back to the file stem.
func TitleFromKey(key string) string {
	base := filepath.Base(key)
	if m := pageKeyRe.FindStringSubmatch(base); m != nil {
		return strings.TrimSpace(strings.ReplaceAll(m[1], "_", " "))
	}
	for {
		ext := strings.ToLower(filepath.Ext(base))
		if ext != ".html" && ext != ".htm" {
			return base
		}
		base = base[:len(base)-len(ext)]
	}
}

// ParsePage parses one cached page. The title is the text of h1.page-title,
// else the title derived from key.
func ParsePage(key string, r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrapf(err, "wiki: parse %s", key)
	}
	title := cleanText(doc.Find("h1.page-title").First().Text())
	if title == "" {
		title = TitleFromKey(key)
	}
	return &Page{Key: key, Title: title, Doc: doc}, nil
}

// cleanText folds compatibility characters (non-breaking spaces, full-width
// forms) and collapses whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
