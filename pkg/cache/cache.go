// Package cache keeps the last scraped profiles together with the set of
// pages already served from them.
//
// An entry lives for a fixed TTL measured from its creation; reads never
// extend it. A miss is always answered by a fresh entry that replaces the
// previous one for that identity, never merges with it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"igfeed/pkg/config"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
	"igfeed/pkg/retry"
)

// ErrNoEntry is returned when marking a page on an identity with no live entry
var ErrNoEntry = errors.New("cache: no live entry")

// Entry is a cached profile and the pages handed out from it
type Entry struct {
	Identity    string
	Profile     *models.Profile
	ServedPages map[int]struct{}
	CreatedAt   time.Time
}

// Served reports whether page was already handed out
func (e *Entry) Served(page int) bool {
	_, ok := e.ServedPages[page]
	return ok
}

// Pages returns the served pages in ascending order
func (e *Entry) Pages() []int {
	pages := make([]int, 0, len(e.ServedPages))
	for p := range e.ServedPages {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

func newEntry(identity string, profile *models.Profile, initialPage int, now time.Time) *Entry {
	return &Entry{
		Identity:    identity,
		Profile:     profile,
		ServedPages: map[int]struct{}{initialPage: {}},
		CreatedAt:   now,
	}
}

// Store is implemented by every cache backend
type Store interface {
	// Get returns the live entry for identity, or nil when it is absent or
	// expired.
	Get(ctx context.Context, identity string) (*Entry, error)
	// Put replaces any entry for identity with a fresh one whose served set
	// is {initialPage}.
	Put(ctx context.Context, identity string, profile *models.Profile, initialPage int) (*Entry, error)
	// MarkServed adds page to the served set and reports whether it was
	// newly added.
	MarkServed(ctx context.Context, identity string, page int) (bool, error)
	IsPageServed(ctx context.Context, identity string, page int) (bool, error)
	Delete(ctx context.Context, identity string) error
	Close() error
}

// New selects the backend named by cfg.Cache.Backend
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (Store, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory, "":
		return NewMemoryStore(cfg.Cache.TTL, cfg.Cache.MaxProfiles), nil
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		err := retry.Do(ctx, func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}, &retry.Config{
			MaxAttempts: cfg.Redis.ConnectAttempts,
			Backoff:     retry.DefaultExponentialBackoff(),
			Logger:      log,
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		if log != nil {
			log.WithField("addr", cfg.Redis.Addr).Info("Using redis profile cache")
		}
		return NewRedisStore(client, RedisOptions{
			KeyPrefix:   cfg.Redis.KeyPrefix,
			TTL:         cfg.Cache.TTL,
			MaxProfiles: cfg.Cache.MaxProfiles,
		}), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
