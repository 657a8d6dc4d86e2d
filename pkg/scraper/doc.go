// Package scraper drives a headless browser through a public profile page.
//
// A scrape pass is a fixed sequence of stages:
//
//	admit -> launch -> navigate -> wait_ready -> dismiss_interstitial
//	      -> scroll_expand -> extract -> teardown
//
// Admission waits on a token bucket so bursts of cache misses cannot hammer
// the network. Launch, navigation, readiness and extraction failures abort
// the pass; a dialog that cannot be dismissed or a scroll that fails only
// ends that stage early. Teardown runs on every path.
//
// Every error returned by Scrape is an automation error from pkg/errors; the
// stage and cause are kept for logs, clients only see the opaque message.
package scraper
