package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/calcdata/internal/crawl"
	"github.com/sells-group/calcdata/internal/dataset"
	"github.com/sells-group/calcdata/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download source material",
	Long:  "Commands for caching the wiki corpus and the archived calculator payloads.",
}

var fetchWikiCmd = &cobra.Command{
	Use:   "wiki",
	Short: "Crawl the wiki into the corpus directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		maxPages, _ := cmd.Flags().GetInt("max-pages")
		if maxPages <= 0 {
			maxPages = cfg.Fetch.MaxPages
		}

		res, err := crawl.CrawlWiki(cmd.Context(), newFetcher(), crawl.WikiOptions{
			BaseURL:  cfg.Wiki.BaseURL,
			OutDir:   cfg.Wiki.Dir,
			MaxPages: maxPages,
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "fetch wiki: saved %d pages, %d failed\n", res.Saved, res.Failed)
		return nil
	},
}

var fetchAjaxCmd = &cobra.Command{
	Use:   "ajax",
	Short: "Fetch archived calculator payloads for every spec in the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ds, err := dataset.Load(cfg.Store.Path)
		if err != nil {
			return err
		}

		res, err := crawl.FetchAjax(cmd.Context(), newFetcher(), crawl.SpecIDs(ds), crawl.AjaxOptions{
			OutDir:     cfg.Fetch.AjaxDir,
			Timestamps: cfg.Fetch.SnapshotTimestamps,
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "fetch ajax: fetched %d, cached %d, failed %d\n",
			res.Fetched, res.Cached, len(res.Failed))
		return nil
	},
}

func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:      cfg.Fetch.UserAgent,
		Timeout:        time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:     cfg.Fetch.MaxRetries,
		RequestsPerSec: cfg.Fetch.RequestsPerSec,
	})
}

func init() {
	fetchWikiCmd.Flags().Int("max-pages", 0, "page cap for the crawl (default from config)")

	fetchCmd.AddCommand(fetchWikiCmd)
	fetchCmd.AddCommand(fetchAjaxCmd)
	rootCmd.AddCommand(fetchCmd)
}
