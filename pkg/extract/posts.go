package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RawPost is a post candidate before normalization
type RawPost struct {
	URL       string
	Thumbnail string
	Caption   string
}

const (
	minGridItems = 6
	minPostSide  = 150
)

// PostStrategies locate post thumbnails
var PostStrategies = []Strategy[[]RawPost]{
	{Name: "grid-container", Fn: PostsFromGrid},
	{Name: "post-links", Fn: PostsFromLinks},
	{Name: "large-images", Fn: PostsFromImages},
}

func isTag(s *goquery.Selection, tag string) bool {
	return goquery.NodeName(s) == tag
}

// readElement turns a link or image into a candidate. Links take href plus
// the first descendant image; images take src/alt and the enclosing link.
func readElement(el *goquery.Selection) RawPost {
	switch {
	case isTag(el, "a"):
		img := el.Find("img").First()
		return RawPost{
			URL:       el.AttrOr("href", ""),
			Thumbnail: img.AttrOr("src", ""),
			Caption:   img.AttrOr("alt", ""),
		}
	case isTag(el, "img"):
		return RawPost{
			URL:       el.Closest("a").AttrOr("href", ""),
			Thumbnail: el.AttrOr("src", ""),
			Caption:   el.AttrOr("alt", ""),
		}
	}
	return RawPost{}
}

func readAll(sel *goquery.Selection) []RawPost {
	posts := make([]RawPost, 0, sel.Length())
	sel.Each(func(_ int, el *goquery.Selection) {
		posts = append(posts, readElement(el))
	})
	return posts
}

func isGridContainer(s *goquery.Selection) bool {
	if s.Is(`div[style*="grid"], div.grid, article, div[role="presentation"] > div > div`) {
		return true
	}
	return isTag(s, "div") && Display(s) == "grid"
}

// PostsFromGrid uses the first grid-like container holding at least six
// image or link cells.
func PostsFromGrid(p *Page) []RawPost {
	var posts []RawPost
	p.Doc.Find("div, article").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return isGridContainer(s)
	}).EachWithBreak(func(_ int, c *goquery.Selection) bool {
		cells := c.Find("div > img, div > a")
		if cells.Length() >= minGridItems {
			posts = readAll(cells)
		}
		return posts == nil
	})
	return posts
}

// PostsFromLinks collects every anchor pointing at a post or reel page
func PostsFromLinks(p *Page) []RawPost {
	links := p.Doc.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return p.Endpoints.IsPostPath(a.AttrOr("href", ""))
	})
	if links.Length() == 0 {
		return nil
	}
	return readAll(links)
}

// PostsFromImages collects images larger than 150x150 that are neither
// labelled as a profile image nor the header avatar.
func PostsFromImages(p *Page) []RawPost {
	header := p.Doc.Find("header img").First()
	images := p.Doc.Find("img").FilterFunction(func(_ int, img *goquery.Selection) bool {
		w, h := ImageSize(img)
		if w <= minPostSide || h <= minPostSide {
			return false
		}
		if strings.Contains(strings.ToLower(img.AttrOr("alt", "")), "profile") {
			return false
		}
		return header.Length() == 0 || !img.IsSelection(header)
	})
	if images.Length() == 0 {
		return nil
	}
	return readAll(images)
}

// Normalize absolutizes URLs, drops candidates without a thumbnail and
// collapses duplicates (same url and thumbnail), keeping the first.
func (p *Page) Normalize(raw []RawPost) []RawPost {
	type key struct{ url, thumb string }
	seen := make(map[key]struct{}, len(raw))
	out := make([]RawPost, 0, len(raw))
	for _, r := range raw {
		r.Thumbnail = p.Endpoints.Absolutize(r.Thumbnail)
		if r.Thumbnail == "" {
			continue
		}
		r.URL = p.Endpoints.Absolutize(r.URL)
		r.Caption = strings.TrimSpace(r.Caption)
		k := key{r.URL, r.Thumbnail}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
