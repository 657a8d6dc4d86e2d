package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"igfeed/internal/app"
	"igfeed/pkg/instagram"
	"igfeed/pkg/logger"
	"igfeed/pkg/ui"
)

var (
	fetchPage  int
	fetchLimit int
	fetchFresh bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <identity>",
	Short: "Scrape a profile once and print a feed page as JSON",
	Long: `Run the scrape and pagination pipeline once, without starting the server,
and print the resulting feed page to stdout as JSON.

Progress and errors go to stderr, so the output can be piped.`,
	Example: `  # First page with the default page size
  igfeed fetch natgeo

  # Third page of ten, keeping debug captures of the page
  igfeed fetch natgeo --page 2 --limit 10 --artifacts-dir ./captures

  # Ignore a cached entry in a shared redis cache
  igfeed fetch natgeo --cache-backend redis --fresh`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().IntVar(&fetchPage, "page", 0, "zero-based page index")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "posts per page (default from config)")
	fetchCmd.Flags().BoolVar(&fetchFresh, "fresh", false, "drop any cached entry before fetching")
}

func runFetch(cmd *cobra.Command, args []string) error {
	identity := instagram.SanitizeUsername(args[0])
	if !instagram.IsValidUsername(identity) {
		return fmt.Errorf("invalid identity %q", args[0])
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	log := logger.GetLogger().WithField("identity", identity)

	limit := fetchLimit
	if limit <= 0 {
		limit = cfg.Feed.DefaultLimit
	}
	if cfg.Feed.MaxLimit > 0 && limit > cfg.Feed.MaxLimit {
		limit = cfg.Feed.MaxLimit
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if fetchFresh {
		if err := a.Feed.Invalidate(ctx, identity); err != nil {
			return err
		}
	}

	ui.PrintInfo("Target profile", identity)
	ui.PrintHighlight("[SCRAPING]")

	page, err := a.Feed.GetPage(ctx, identity, fetchPage, limit)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(page); err != nil {
		return err
	}

	if page.Partial {
		ui.PrintWarning("Extraction was incomplete, profile is partial")
	}
	ui.PrintSuccess("[DONE]")
	return nil
}
