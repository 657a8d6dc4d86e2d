// Package extract turns a rendered profile page into a models.Profile.
//
// Every field is read by a prioritized list of named strategies; the first
// one that yields a non-empty value wins. Strategies are pure functions over
// a parsed Page so they can be exercised against fixture HTML.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"igfeed/pkg/instagram"
)

// Attributes written by the in-page annotation script before the snapshot
const (
	AttrWidth   = "data-igfeed-w"
	AttrHeight  = "data-igfeed-h"
	AttrRadius  = "data-igfeed-radius"
	AttrDisplay = "data-igfeed-display"
)

// Snapshot is the rendered document and the location it was taken at
type Snapshot struct {
	HTML string `json:"html"`
	URL  string `json:"url"`
}

// Page is a parsed snapshot ready for strategies
type Page struct {
	Doc       *goquery.Document
	URL       string
	Endpoints *instagram.Endpoints
}

// Parse builds a Page from a snapshot
func Parse(snap Snapshot, endpoints *instagram.Endpoints) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot html: %w", err)
	}
	return &Page{Doc: doc, URL: snap.URL, Endpoints: endpoints}, nil
}

var styleDimension = map[string]*regexp.Regexp{
	"width":  regexp.MustCompile(`(?:^|[;\s])width\s*:\s*([\d.]+)px`),
	"height": regexp.MustCompile(`(?:^|[;\s])height\s*:\s*([\d.]+)px`),
}

// dimension reads a rendered size from the annotation, then the plain
// attribute, then inline style. Unknown sizes are 0.
func dimension(s *goquery.Selection, annotation, name string) float64 {
	for _, raw := range []string{s.AttrOr(annotation, ""), s.AttrOr(name, "")} {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw), "px"), 64); err == nil {
			return v
		}
	}
	if m := styleDimension[name].FindStringSubmatch(s.AttrOr("style", "")); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v
		}
	}
	return 0
}

// ImageSize returns the rendered width and height of an img
func ImageSize(img *goquery.Selection) (float64, float64) {
	return dimension(img, AttrWidth, "width"), dimension(img, AttrHeight, "height")
}

func compactStyle(s *goquery.Selection) string {
	return strings.ToLower(strings.ReplaceAll(s.AttrOr("style", ""), " ", ""))
}

// IsCircular reports whether a container renders its content as a circle
func IsCircular(div *goquery.Selection) bool {
	class := div.AttrOr("class", "")
	if strings.Contains(class, "rounded-full") || strings.Contains(class, "circle") {
		return true
	}
	if strings.TrimSpace(div.AttrOr(AttrRadius, "")) == "50%" {
		return true
	}
	return strings.Contains(compactStyle(div), "border-radius:50%")
}

// Display returns the CSS display of a container, preferring the rendered value
func Display(div *goquery.Selection) string {
	if d := strings.TrimSpace(div.AttrOr(AttrDisplay, "")); d != "" {
		return d
	}
	style := compactStyle(div)
	for _, d := range []string{"grid", "flex"} {
		if strings.Contains(style, "display:"+d) {
			return d
		}
	}
	return ""
}

func text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
