package crawl

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/calcdata/internal/fetcher"
	"github.com/sells-group/calcdata/internal/model"
)

const (
	// DefaultArchiveBase is the Wayback Machine raw-snapshot prefix.
	DefaultArchiveBase = "https://web.archive.org/web/"
	ajaxOrigin         = "http://requiem.isnet.ru/ajax/calculator/load"
)

// DefaultSnapshotTimestamps are the archive captures known to hold
// calculator payloads, best first.
var DefaultSnapshotTimestamps = []string{
	"20170504110444",
	"20170429184609",
	"20170429185928",
	"20161221164956",
	"20161119113620",
	"20160924030950",
	"20160831035703",
}

// AjaxOptions configures FetchAjax.
type AjaxOptions struct {
	OutDir      string
	Timestamps  []string
	ArchiveBase string
}

// AjaxResult summarizes an AJAX payload fetch.
type AjaxResult struct {
	Fetched int
	Cached  int
	Failed  []string
}

// AjaxURL returns the archived calculator payload URL for one spec.
func AjaxURL(archiveBase, ts, specID string) string {
	if archiveBase == "" {
		archiveBase = DefaultArchiveBase
	}
	return archiveBase + ts + "id_/" + ajaxOrigin + "?" + url.Values{"c": {specID}}.Encode()
}

// AjaxFileName is the cache file for one spec payload at one capture.
func AjaxFileName(specID, ts string) string {
	return "load-" + specID + "-" + ts + ".txt"
}

// FetchAjax downloads the calculator payload for every spec, trying each
// timestamp in order until one succeeds. Specs that already have a cached
// payload for any timestamp are skipped.
func FetchAjax(ctx context.Context, f fetcher.Fetcher, specIDs []string, opts AjaxOptions) (AjaxResult, error) {
	timestamps := opts.Timestamps
	if len(timestamps) == 0 {
		timestamps = DefaultSnapshotTimestamps
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return AjaxResult{}, eris.Wrapf(err, "crawl: create %s", opts.OutDir)
	}

	var res AjaxResult
	for _, id := range specIDs {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "crawl: ajax")
		}
		if cached, ok := cachedPayload(opts.OutDir, id, timestamps); ok {
			res.Cached++
			zap.L().Debug("crawl: payload cached", zap.String("spec", id), zap.String("file", cached))
			continue
		}
		if fetchOne(ctx, f, id, timestamps, opts) {
			res.Fetched++
		} else {
			res.Failed = append(res.Failed, id)
			zap.L().Warn("crawl: all timestamps failed", zap.String("spec", id))
		}
	}
	return res, nil
}

func cachedPayload(dir, id string, timestamps []string) (string, bool) {
	for _, ts := range timestamps {
		name := AjaxFileName(id, ts)
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return name, true
		}
	}
	return "", false
}

func fetchOne(ctx context.Context, f fetcher.Fetcher, id string, timestamps []string, opts AjaxOptions) bool {
	for _, ts := range timestamps {
		dest := filepath.Join(opts.OutDir, AjaxFileName(id, ts))
		if _, err := f.DownloadToFile(ctx, AjaxURL(opts.ArchiveBase, ts, id), dest); err != nil {
			zap.L().Debug("crawl: snapshot failed",
				zap.String("spec", id),
				zap.String("timestamp", ts),
				zap.Int("status", fetcher.StatusCode(err)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("crawl: payload saved", zap.String("spec", id), zap.String("timestamp", ts))
		return true
	}
	return false
}

// SpecIDs returns every spec id in ds, sorted and deduplicated.
func SpecIDs(ds *model.Dataset) []string {
	set := map[string]struct{}{}
	for _, jobs := range ds.Jobs {
		for _, j := range jobs {
			for _, sp := range j.Specs {
				if sp.ID != "" {
					set[sp.ID] = struct{}{}
				}
			}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
