package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"igfeed/pkg/models"
)

// RedisOptions configure a RedisStore
type RedisOptions struct {
	KeyPrefix   string
	TTL         time.Duration
	MaxProfiles int
}

// RedisStore shares entries between processes. The served set is a Redis
// set, so marking a page is a single atomic SADD.
type RedisStore struct {
	client *redis.Client
	opts   RedisOptions
	now    func() time.Time
}

type record struct {
	Profile   *models.Profile `json:"profile"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, opts RedisOptions) *RedisStore {
	if opts.MaxProfiles <= 0 {
		opts.MaxProfiles = 1
	}
	return &RedisStore{client: client, opts: opts, now: time.Now}
}

func (r *RedisStore) profileKey(identity string) string {
	return r.opts.KeyPrefix + "profile:" + identity
}

func (r *RedisStore) servedKey(identity string) string {
	return r.opts.KeyPrefix + "served:" + identity
}

func (r *RedisStore) recentKey() string {
	return r.opts.KeyPrefix + "recent"
}

func (r *RedisStore) Get(ctx context.Context, identity string) (*Entry, error) {
	val, err := r.client.Get(ctx, r.profileKey(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var rec record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("cache unmarshal error: %w", err)
	}
	if rec.Profile == nil || r.now().Sub(rec.CreatedAt) > r.opts.TTL {
		return nil, nil
	}

	members, err := r.client.SMembers(ctx, r.servedKey(identity)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache served pages error: %w", err)
	}
	served := make(map[int]struct{}, len(members))
	for _, m := range members {
		if p, err := strconv.Atoi(m); err == nil {
			served[p] = struct{}{}
		}
	}

	rec.Profile.ScrapedAt = rec.CreatedAt
	return &Entry{
		Identity:    identity,
		Profile:     rec.Profile,
		ServedPages: served,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

func (r *RedisStore) Put(ctx context.Context, identity string, profile *models.Profile, initialPage int) (*Entry, error) {
	entry := newEntry(identity, profile, initialPage, r.now())

	data, err := json.Marshal(record{Profile: profile, CreatedAt: entry.CreatedAt})
	if err != nil {
		return nil, fmt.Errorf("cache marshal error: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.profileKey(identity), data, r.opts.TTL)
		pipe.Del(ctx, r.servedKey(identity))
		pipe.SAdd(ctx, r.servedKey(identity), initialPage)
		pipe.Expire(ctx, r.servedKey(identity), r.opts.TTL)
		pipe.LRem(ctx, r.recentKey(), 0, identity)
		pipe.LPush(ctx, r.recentKey(), identity)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache set error: %w", err)
	}

	if err := r.evict(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// evict drops every identity beyond MaxProfiles in the recency list
func (r *RedisStore) evict(ctx context.Context) error {
	stale, err := r.client.LRange(ctx, r.recentKey(), int64(r.opts.MaxProfiles), -1).Result()
	if err != nil {
		return fmt.Errorf("cache eviction scan error: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range stale {
			pipe.Del(ctx, r.profileKey(id), r.servedKey(id))
		}
		pipe.LTrim(ctx, r.recentKey(), 0, int64(r.opts.MaxProfiles-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache eviction error: %w", err)
	}
	return nil
}

func (r *RedisStore) MarkServed(ctx context.Context, identity string, page int) (bool, error) {
	entry, err := r.Get(ctx, identity)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, ErrNoEntry
	}

	added, err := r.client.SAdd(ctx, r.servedKey(identity), page).Result()
	if err != nil {
		return false, fmt.Errorf("cache mark served error: %w", err)
	}
	return added == 1, nil
}

func (r *RedisStore) IsPageServed(ctx context.Context, identity string, page int) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.servedKey(identity), page).Result()
	if err != nil {
		return false, fmt.Errorf("cache served lookup error: %w", err)
	}
	return ok, nil
}

func (r *RedisStore) Delete(ctx context.Context, identity string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.profileKey(identity), r.servedKey(identity))
		pipe.LRem(ctx, r.recentKey(), 0, identity)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
