// Package ratelimit bounds how often igfeed launches a scrape.
//
// TokenBucket refills continuously at capacity/period and lets bursts up to
// capacity through. Wait honours context cancellation, so a request that
// gives up stops queueing for a token.
//
//	limiter := ratelimit.PerMinute(cfg.Scraper.ScrapesPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
