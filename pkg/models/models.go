package models

import "time"

// Post is a single thumbnail discovered on a profile page
type Post struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Caption      string `json:"caption,omitempty"`
	Likes        int    `json:"likes"`
	Comments     int    `json:"comments"`
}

// Profile is the result of one scrape pass. Posts holds every post found,
// in the order they appeared on the page.
type Profile struct {
	Username       string `json:"username"`
	FullName       string `json:"fullName"`
	ProfilePicURL  string `json:"profilePicUrl"`
	Bio            string `json:"bio"`
	PostsCount     int64  `json:"postsCount"`
	FollowersCount int64  `json:"followersCount"`
	FollowingCount int64  `json:"followingCount"`
	Posts          []Post `json:"posts"`

	// Partial is set when extraction was degenerate and placeholder
	// synthesis is disabled.
	Partial bool `json:"partial,omitempty"`

	ScrapedAt time.Time `json:"-"`
}

// FeedPage is one page of a cached profile as returned to feed clients
type FeedPage struct {
	Username       string `json:"username"`
	FullName       string `json:"fullName"`
	ProfilePicURL  string `json:"profilePicUrl"`
	Bio            string `json:"bio"`
	PostsCount     int64  `json:"postsCount"`
	FollowersCount int64  `json:"followersCount"`
	FollowingCount int64  `json:"followingCount"`
	Posts          []Post `json:"posts"`
	HasMore        bool   `json:"hasMore"`
	Partial        bool   `json:"partial,omitempty"`
}

// Page slices the profile's posts for the given zero-based page index.
// Pages past the end yield an empty, non-nil slice.
func (p *Profile) Page(page, limit int) FeedPage {
	total := len(p.Posts)
	start, end := total, total
	if page >= 0 && limit > 0 && page <= total/limit {
		start = page * limit
		if limit < total-start {
			end = start + limit
		}
	}

	posts := make([]Post, end-start)
	copy(posts, p.Posts[start:end])

	return FeedPage{
		Username:       p.Username,
		FullName:       p.FullName,
		ProfilePicURL:  p.ProfilePicURL,
		Bio:            p.Bio,
		PostsCount:     p.PostsCount,
		FollowersCount: p.FollowersCount,
		FollowingCount: p.FollowingCount,
		Posts:          posts,
		HasMore:        end < total,
		Partial:        p.Partial,
	}
}
