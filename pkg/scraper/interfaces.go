package scraper

import (
	"igfeed/pkg/extract"
	"igfeed/pkg/models"
	"igfeed/pkg/storage"
)

// ProfileExtractor turns a rendered snapshot into a profile
type ProfileExtractor interface {
	Extract(snap extract.Snapshot, identity string) (*models.Profile, error)
}

// ArtifactStore persists debug captures of a scrape
type ArtifactStore interface {
	BaseName(identity string) string
	SaveScreenshot(base string, png []byte) (storage.Artifact, error)
	SaveHTML(base, html string) (storage.Artifact, error)
}
