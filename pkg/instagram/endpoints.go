package instagram

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// BaseURL is the default network origin
	BaseURL = "https://www.instagram.com"

	// AvatarServiceURL renders initials avatars for profiles without a picture
	AvatarServiceURL = "https://ui-avatars.com/api/"

	// PlaceholderImageURL serves random stock thumbnails for placeholder posts
	PlaceholderImageURL = "https://picsum.photos/500/500"
)

var postPath = regexp.MustCompile(`^/(?:p|reel)/[^/?#]+/?$`)

// Endpoints builds and resolves URLs against one network origin
type Endpoints struct {
	base *url.URL
}

// NewEndpoints parses base, which must be an absolute http(s) origin
func NewEndpoints(base string) (*Endpoints, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("base url %q is not an absolute http(s) url", base)
	}
	return &Endpoints{base: u}, nil
}

// MustEndpoints is NewEndpoints for compile-time constants
func MustEndpoints(base string) *Endpoints {
	e, err := NewEndpoints(base)
	if err != nil {
		panic(err)
	}
	return e
}

// Base returns the origin without a trailing slash
func (e *Endpoints) Base() string {
	return e.base.String()
}

// ProfileURL returns the public profile page of identity
func (e *Endpoints) ProfileURL(identity string) string {
	if identity == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", e.Base(), url.PathEscape(identity))
}

// PostURL returns the canonical page of a post shortcode
func (e *Endpoints) PostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", e.Base(), shortcode)
}

// PlaceholderPostURL is the link given to synthesized post i
func (e *Endpoints) PlaceholderPostURL(i int) string {
	return fmt.Sprintf("%s/p/dummy-%d", e.Base(), i)
}

// Absolutize resolves ref against the origin. Empty refs stay empty and
// unparseable refs are returned unchanged.
func (e *Endpoints) Absolutize(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return e.base.ResolveReference(u).String()
}

// IsPostPath reports whether href points at a post or reel page. Absolute
// links on other hosts never match.
func (e *Endpoints) IsPostPath(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	if u.Host != "" && !strings.EqualFold(u.Host, e.base.Host) {
		return false
	}
	return postPath.MatchString(u.Path)
}

// FirstPathSegment returns the first non-empty path segment of a page URL
func FirstPathSegment(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}

// AvatarURL returns a generated initials avatar for identity
func AvatarURL(identity string) string {
	return fmt.Sprintf("%s?name=%s&background=random", AvatarServiceURL, url.QueryEscape(identity))
}

// PlaceholderImage returns a random stock image keyed by i
func PlaceholderImage(i int) string {
	return fmt.Sprintf("%s?random=%d", PlaceholderImageURL, i)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading "@" and any surrounding spaces or
// trailing slashes.
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
