package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"igfeed/pkg/instagram"
)

// UnknownUsername is used when no strategy finds a handle
const UnknownUsername = "unknown"

const minAvatarSide = 75

func (p *Page) imageSrc(img *goquery.Selection) string {
	return p.Endpoints.Absolutize(img.AttrOr("src", ""))
}

// ProfilePicStrategies locate the avatar image, best guess first
var ProfilePicStrategies = []Strategy[string]{
	{Name: "alt-text", Fn: ProfilePicByAlt},
	{Name: "circular-container", Fn: ProfilePicByCircularContainer},
	{Name: "large-image", Fn: ProfilePicByLargeImage},
	{Name: "first-image", Fn: ProfilePicFirstImage},
}

// ProfilePicByAlt picks the first img whose alt mentions "profile picture"
func ProfilePicByAlt(p *Page) string {
	var src string
	p.Doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(img.AttrOr("alt", "")), "profile picture") {
			src = p.imageSrc(img)
		}
		return src == ""
	})
	return src
}

// ProfilePicByCircularContainer picks the first img whose nearest div is round
func ProfilePicByCircularContainer(p *Page) string {
	var src string
	p.Doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if div := img.Closest("div"); div.Length() > 0 && IsCircular(div) {
			src = p.imageSrc(img)
		}
		return src == ""
	})
	return src
}

// ProfilePicByLargeImage picks the first img larger than 75x75 that is not
// classed as a post.
func ProfilePicByLargeImage(p *Page) string {
	var src string
	p.Doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		w, h := ImageSize(img)
		if w > minAvatarSide && h > minAvatarSide && !strings.Contains(img.AttrOr("class", ""), "post") {
			src = p.imageSrc(img)
		}
		return src == ""
	})
	return src
}

// ProfilePicFirstImage picks the first img with a source
func ProfilePicFirstImage(p *Page) string {
	var src string
	p.Doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src = p.imageSrc(img)
		return src == ""
	})
	return src
}

// UsernameStrategies locate the profile handle
var UsernameStrategies = []Strategy[string]{
	{Name: "meta", Fn: UsernameFromMeta},
	{Name: "heading", Fn: UsernameFromHeading},
	{Name: "url-path", Fn: UsernameFromURL},
}

// UsernameFromMeta reads og:username or profile:username
func UsernameFromMeta(p *Page) string {
	for _, prop := range []string{"og:username", "profile:username"} {
		sel := p.Doc.Find(`meta[property="` + prop + `"]`).First()
		if v := strings.TrimSpace(sel.AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}

// UsernameFromHeading takes the first h1/h2 that starts with "@" or is a
// single word.
func UsernameFromHeading(p *Page) string {
	var name string
	p.Doc.Find("h1, h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		t := text(h)
		if t != "" && (strings.HasPrefix(t, "@") || !strings.Contains(t, " ")) {
			name = strings.ReplaceAll(t, "@", "")
		}
		return name == ""
	})
	return name
}

// UsernameFromURL takes the first path segment of the page location
func UsernameFromURL(p *Page) string {
	return instagram.FirstPathSegment(p.URL)
}

// FullName returns the first span/h1/h2 text that reads like a display name,
// falling back to the username.
func FullName(p *Page, username string) string {
	var name string
	p.Doc.Find("span, h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := text(s)
		if t != "" && t != username && strings.Contains(t, " ") && !strings.Contains(t, "@") {
			name = t
		}
		return name == ""
	})
	if name == "" {
		return username
	}
	return name
}

// Bio returns the first span directly under a div that is long enough and
// does not look like a handle or a counter.
func Bio(p *Page) string {
	var bio string
	p.Doc.Find("div > span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := text(s)
		lower := strings.ToLower(t)
		if len([]rune(t)) > 10 &&
			!strings.Contains(t, "@") &&
			!strings.Contains(lower, "posts") &&
			!strings.Contains(lower, "followers") {
			bio = t
		}
		return bio == ""
	})
	return bio
}
