package extract

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"igfeed/pkg/instagram"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
)

// Options control degenerate-result handling
type Options struct {
	// Placeholders enables synthesized avatar, posts and engagement numbers
	Placeholders bool
	// PlaceholderPosts is the size of the synthesized batch
	PlaceholderPosts int
	// Rand drives synthesized engagement numbers. Nil seeds from the clock.
	Rand *rand.Rand
}

// Extractor runs every field's strategy list against a snapshot
type Extractor struct {
	endpoints *instagram.Endpoints
	opts      Options
	logger    logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an Extractor
func New(endpoints *instagram.Endpoints, opts Options, log logger.Logger) *Extractor {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Extractor{
		endpoints: endpoints,
		opts:      opts,
		logger:    log.WithField("component", "extract"),
		rng:       rng,
	}
}

func (e *Extractor) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// Extract reads a profile out of snap. identity names the requested profile
// and seeds the fallback avatar. Only malformed input is an error; weak
// pages produce a degenerate profile that ApplyFallback repairs.
func (e *Extractor) Extract(snap Snapshot, identity string) (*models.Profile, error) {
	page, err := Parse(snap, e.endpoints)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", identity, err)
	}

	used := make(map[string]interface{}, 4)

	avatar, name := First(page, ProfilePicStrategies, nonEmpty)
	used["avatar_strategy"] = name

	username, name := First(page, UsernameStrategies, nonEmpty)
	if username == "" {
		username = UnknownUsername
	}
	used["username_strategy"] = name

	stats, name := First(page, StatsStrategies, Stats.Found)
	used["stats_strategy"] = name

	raw, name := First(page, PostStrategies, func(r []RawPost) bool {
		return len(page.Normalize(r)) > 0
	})
	used["posts_strategy"] = name

	profile := &models.Profile{
		Username:       username,
		FullName:       FullName(page, username),
		ProfilePicURL:  avatar,
		Bio:            Bio(page),
		PostsCount:     stats.Posts,
		FollowersCount: stats.Followers,
		FollowingCount: stats.Following,
		Posts:          e.buildPosts(page.Normalize(raw)),
	}

	used["identity"] = identity
	used["posts"] = len(profile.Posts)
	e.logger.DebugWithFields("Extraction strategies", used)

	if IsDegenerate(profile) {
		e.ApplyFallback(profile, identity)
	}
	return profile, nil
}

func (e *Extractor) buildPosts(raw []RawPost) []models.Post {
	posts := make([]models.Post, len(raw))
	for i, r := range raw {
		posts[i] = models.Post{
			ID:           fmt.Sprintf("post-%d", i),
			URL:          r.URL,
			ThumbnailURL: r.Thumbnail,
			Caption:      r.Caption,
		}
		if e.opts.Placeholders {
			posts[i].Likes = e.intn(1000)
			posts[i].Comments = e.intn(100)
		}
	}
	return posts
}

// IsDegenerate reports an extraction without posts or without an avatar
func IsDegenerate(p *models.Profile) bool {
	return len(p.Posts) == 0 || p.ProfilePicURL == ""
}

// ApplyFallback repairs a degenerate profile. With placeholders enabled a
// missing avatar becomes a generated initials image and an empty post list
// becomes a batch of stock thumbnails; extracted counts are kept. With
// placeholders disabled the profile is only flagged as partial.
func (e *Extractor) ApplyFallback(p *models.Profile, identity string) {
	log := e.logger.WithFields(map[string]interface{}{
		"identity":   identity,
		"has_avatar": p.ProfilePicURL != "",
		"posts":      len(p.Posts),
	})

	if !e.opts.Placeholders {
		p.Partial = true
		log.Warn("Degenerate extraction, returning partial profile")
		return
	}

	if p.ProfilePicURL == "" {
		p.ProfilePicURL = instagram.AvatarURL(identity)
	}
	if len(p.Posts) == 0 {
		p.Posts = make([]models.Post, e.opts.PlaceholderPosts)
		for i := range p.Posts {
			p.Posts[i] = models.Post{
				ID:           fmt.Sprintf("dummy-post-%d", i),
				URL:          e.endpoints.PlaceholderPostURL(i),
				ThumbnailURL: instagram.PlaceholderImage(i),
				Caption:      fmt.Sprintf("Post %d", i+1),
				Likes:        e.intn(1000),
				Comments:     e.intn(100),
			}
		}
	}
	log.Warn("Degenerate extraction, placeholders applied")
}
