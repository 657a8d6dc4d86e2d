// Package storage keeps debug artifacts of scrape passes.
//
// When debug.artifacts_dir is set the scraper stores a screenshot and the
// rendered HTML of every page it extracts, named "<identity>-<unix>.png" and
// ".html". Files are written to a temporary name and renamed into place.
package storage
