// Package crawl populates the local corpora: the wiki page cache and the
// archived calculator payloads.
package crawl

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/calcdata/internal/fetcher"
)

// DefaultWikiBase is the root of the community wiki mirror.
const DefaultWikiBase = "https://rondayan42.github.io/requiem-wiki/"

// WikiOptions configures CrawlWiki.
type WikiOptions struct {
	BaseURL  string
	OutDir   string
	MaxPages int
}

// WikiResult summarizes a crawl.
type WikiResult struct {
	Saved  int
	Failed int
}

// CrawlWiki walks the wiki breadth-first from opts.BaseURL, saving every page
// under opts.OutDir. Only links below the base URL are followed; fragments
// are dropped. Pages that fail to download are logged and skipped.
func CrawlWiki(ctx context.Context, f fetcher.Fetcher, opts WikiOptions) (WikiResult, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultWikiBase
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return WikiResult{}, eris.Wrapf(err, "crawl: parse base %s", base)
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return WikiResult{}, eris.Wrapf(err, "crawl: create %s", opts.OutDir)
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 1200
	}

	zap.L().Info("crawl: starting wiki crawl", zap.String("base", base), zap.Int("max_pages", maxPages))

	var res WikiResult
	seen := map[string]bool{}
	queue := []string{base}
	for len(queue) > 0 && res.Saved < maxPages {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "crawl: wiki")
		}
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true

		content, err := download(ctx, f, next)
		if err != nil {
			res.Failed++
			zap.L().Warn("crawl: fetch failed", zap.String("url", next), zap.Error(err))
			continue
		}

		name := PageFileName(base, next)
		if err := os.WriteFile(filepath.Join(opts.OutDir, name), content, 0o644); err != nil {
			return res, eris.Wrapf(err, "crawl: save %s", name)
		}
		res.Saved++
		zap.L().Debug("crawl: saved", zap.String("file", name))

		for _, link := range links(content, next) {
			if !seen[link] && sameSite(baseURL, base, link) {
				queue = append(queue, link)
			}
		}
	}

	zap.L().Info("crawl: wiki crawl done", zap.Int("saved", res.Saved), zap.Int("failed", res.Failed))
	return res, nil
}

// PageFileName maps a page URL to its cache file name: the path below base
// with "/" replaced by "_", plus ".html". The base page itself is "index".
func PageFileName(base, pageURL string) string {
	rel := pageURL
	if strings.HasPrefix(pageURL, base) {
		rel = pageURL[len(base):]
	} else {
		rel = strings.Replace(rel, "://", "_", 1)
	}
	rel = strings.Trim(rel, "/")
	if rel == "" {
		rel = "index"
	}
	return strings.ReplaceAll(rel, "/", "_") + ".html"
}

func download(ctx context.Context, f fetcher.Fetcher, rawURL string) ([]byte, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	data, err := io.ReadAll(body)
	return data, eris.Wrap(err, "crawl: read body")
}

// links returns the absolute, fragment-free targets of every anchor in content.
func links(content []byte, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil
	}
	page, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := page.ResolveReference(ref)
		abs.Fragment = ""
		abs.RawFragment = ""
		out = append(out, abs.String())
	})
	return out
}

func sameSite(baseURL *url.URL, base, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return u.Host == baseURL.Host && strings.HasPrefix(link, base)
}
