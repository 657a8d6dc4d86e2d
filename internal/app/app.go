// Package app assembles the feed pipeline from a loaded configuration.
package app

import (
	"context"
	"fmt"

	"igfeed/pkg/browser"
	"igfeed/pkg/cache"
	"igfeed/pkg/config"
	"igfeed/pkg/extract"
	"igfeed/pkg/feed"
	"igfeed/pkg/instagram"
	"igfeed/pkg/logger"
	"igfeed/pkg/ratelimit"
	"igfeed/pkg/scraper"
	"igfeed/pkg/storage"
)

// App holds the wired components
type App struct {
	Config    *config.Config
	Endpoints *instagram.Endpoints
	Browser   *browser.Chrome
	Scraper   *scraper.Scraper
	Store     cache.Store
	Feed      *feed.Service
	Artifacts *storage.Manager
}

// New builds the pipeline. No browser is launched until the first scrape.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	endpoints, err := instagram.NewEndpoints(cfg.Network.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	extractor := extract.New(endpoints, extract.Options{
		Placeholders:     cfg.Scraper.PlaceholderFallback,
		PlaceholderPosts: cfg.Scraper.PlaceholderPosts,
	}, log)

	chrome := browser.NewChrome(cfg.Browser, log)

	opts := []scraper.Option{
		scraper.WithLogger(log),
		scraper.WithLimiter(ratelimit.PerMinute(cfg.Scraper.ScrapesPerMinute)),
	}

	a := &App{Config: cfg, Endpoints: endpoints, Browser: chrome}
	if cfg.Debug.ArtifactsDir != "" {
		a.Artifacts, err = storage.NewManager(cfg.Debug.ArtifactsDir)
		if err != nil {
			return nil, fmt.Errorf("artifacts dir: %w", err)
		}
		opts = append(opts, scraper.WithArtifacts(a.Artifacts))
	}

	a.Scraper = scraper.New(cfg.Browser, endpoints, chrome, extractor, opts...)

	a.Store, err = cache.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.Feed = feed.NewService(a.Store, a.Scraper, cfg.Scraper.Timeout, log)

	logger.LogComponentStart(log, "pipeline", map[string]interface{}{
		"browser_mode":  chrome.Mode(),
		"cache_backend": cfg.Cache.Backend,
		"cache_ttl":     cfg.Cache.TTL.String(),
		"placeholders":  cfg.Scraper.PlaceholderFallback,
	})
	return a, nil
}

// Close releases the cache backend
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
