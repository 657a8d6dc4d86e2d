// Package instagram holds the URL conventions of the scraped network: where
// profile and post pages live, how relative links resolve, and which
// external services render avatars and placeholder thumbnails.
package instagram
