package wiki

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/calcdata/internal/resolve"
)

// DefaultGlob matches the crawler's page files.
const DefaultGlob = "site_pages_*.html.html"

// Options configures BuildIndex.
type Options struct {
	// Glob selects page files inside the corpus directory.
	Glob string
	// Workers bounds concurrent page parsing. Assembly is always sequential.
	Workers int
}

// Index maps normalized page titles to parsed pages.
type Index struct {
	loose  map[string]*Page
	spaced map[string]*Page
	titles map[string]struct{}

	// Skipped counts pages that could not be read or parsed.
	Skipped int
	// Collisions counts pages that replaced an earlier page with the same key.
	Collisions int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		loose:  make(map[string]*Page),
		spaced: make(map[string]*Page),
		titles: make(map[string]struct{}),
	}
}

// BuildIndex parses every page in dir matching opts.Glob. Pages are added in
// file-name order, so when two titles normalize to the same key the later
// file wins. Unreadable pages are logged and skipped; only a missing or
// unreadable directory is an error.
func BuildIndex(ctx context.Context, dir string, opts Options) (*Index, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "wiki: open corpus %s", dir)
	}
	if !info.IsDir() {
		return nil, eris.Errorf("wiki: corpus %s is not a directory", dir)
	}

	glob := opts.Glob
	if glob == "" {
		glob = DefaultGlob
	}
	paths, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, eris.Wrapf(err, "wiki: glob %s", glob)
	}
	sort.Strings(paths)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	pages := make([]*Page, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := readPage(path)
			if err != nil {
				zap.L().Warn("wiki: skipping page", zap.String("path", path), zap.Error(err))
				return nil
			}
			pages[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "wiki: build index")
	}

	idx := NewIndex()
	for _, p := range pages {
		if p == nil {
			idx.Skipped++
			continue
		}
		idx.Add(p)
	}

	zap.L().Info("wiki: index built",
		zap.String("dir", dir),
		zap.Int("files", len(paths)),
		zap.Int("pages", idx.Len()),
		zap.Int("skipped", idx.Skipped),
		zap.Int("collisions", idx.Collisions),
	)
	return idx, nil
}

func readPage(path string) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "wiki: read %s", path)
	}
	return ParsePage(filepath.Base(path), bytes.NewReader(data))
}

// Add indexes p under both normalized forms of its title, replacing any page
// already stored under the same key.
func (idx *Index) Add(p *Page) {
	if p == nil || p.Title == "" {
		return
	}
	idx.titles[p.Title] = struct{}{}
	if key := resolve.Loose(p.Title); key != "" {
		if prev, ok := idx.loose[key]; ok && prev.Key != p.Key {
			idx.Collisions++
			zap.L().Debug("wiki: title collision",
				zap.String("key", key),
				zap.String("previous", prev.Key),
				zap.String("page", p.Key),
			)
		}
		idx.loose[key] = p
	}
	if key := resolve.Spaced(p.Title); key != "" {
		idx.spaced[key] = p
	}
}

// Lookup returns the page whose loose title key equals key.
func (idx *Index) Lookup(key string) (*Page, bool) {
	p, ok := idx.loose[key]
	return p, ok
}

// LookupSpaced returns the page whose spaced title key equals key.
func (idx *Index) LookupSpaced(key string) (*Page, bool) {
	p, ok := idx.spaced[key]
	return p, ok
}

// Match returns the title of the page stored under key for the given
// normalizer.
func (idx *Index) Match(n resolve.Normalizer, key string) (string, bool) {
	lookup := idx.Lookup
	if n == resolve.SpacedKey {
		lookup = idx.LookupSpaced
	}
	p, ok := lookup(key)
	if !ok {
		return "", false
	}
	return p.Title, true
}

// Titles returns every distinct page title, sorted.
func (idx *Index) Titles() []string {
	out := make([]string, 0, len(idx.titles))
	for t := range idx.titles {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct loose keys.
func (idx *Index) Len() int { return len(idx.loose) }
