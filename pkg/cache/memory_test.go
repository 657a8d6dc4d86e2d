package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igfeed/pkg/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func testProfile(username string, posts int) *models.Profile {
	p := &models.Profile{Username: username}
	for i := 0; i < posts; i++ {
		p.Posts = append(p.Posts, models.Post{ID: "post-" + string(rune('a'+i))})
	}
	return p
}

func TestMemoryPutAndGet(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := newMemoryStore(time.Hour, 1, clock.now)

	entry, err := store.Get(ctx, "natgeo")
	require.NoError(t, err)
	assert.Nil(t, entry)

	_, err = store.Put(ctx, "natgeo", testProfile("natgeo", 3), 2)
	require.NoError(t, err)

	entry, err = store.Get(ctx, "natgeo")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "natgeo", entry.Profile.Username)
	assert.Equal(t, []int{2}, entry.Pages())
	assert.Equal(t, clock.t, entry.CreatedAt)
}

func TestMemoryEntryExpires(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := newMemoryStore(time.Hour, 1, clock.now)

	_, err := store.Put(ctx, "natgeo", testProfile("natgeo", 1), 0)
	require.NoError(t, err)

	clock.advance(59 * time.Minute)
	entry, err := store.Get(ctx, "natgeo")
	require.NoError(t, err)
	require.NotNil(t, entry)

	// reads never extend the lifetime
	clock.advance(2 * time.Minute)
	entry, err = store.Get(ctx, "natgeo")
	require.NoError(t, err)
	assert.Nil(t, entry)

	_, err = store.MarkServed(ctx, "natgeo", 1)
	assert.ErrorIs(t, err, ErrNoEntry)
}

func TestMemoryNewIdentityReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(time.Hour, 1, newClock().now)

	_, err := store.Put(ctx, "natgeo", testProfile("natgeo", 1), 0)
	require.NoError(t, err)
	_, err = store.Put(ctx, "nasa", testProfile("nasa", 1), 0)
	require.NoError(t, err)

	entry, err := store.Get(ctx, "natgeo")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryPutResetsServedPages(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(time.Hour, 1, newClock().now)

	_, err := store.Put(ctx, "natgeo", testProfile("natgeo", 1), 0)
	require.NoError(t, err)
	_, err = store.MarkServed(ctx, "natgeo", 1)
	require.NoError(t, err)

	_, err = store.Put(ctx, "natgeo", testProfile("natgeo", 1), 3)
	require.NoError(t, err)

	entry, err := store.Get(ctx, "natgeo")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, entry.Pages())
}

func TestMemoryMarkServed(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(time.Hour, 1, newClock().now)

	_, err := store.MarkServed(ctx, "natgeo", 0)
	assert.ErrorIs(t, err, ErrNoEntry)

	_, err = store.Put(ctx, "natgeo", testProfile("natgeo", 1), 0)
	require.NoError(t, err)

	added, err := store.MarkServed(ctx, "natgeo", 0)
	require.NoError(t, err)
	assert.False(t, added)

	added, err = store.MarkServed(ctx, "natgeo", 1)
	require.NoError(t, err)
	assert.True(t, added)

	served, err := store.IsPageServed(ctx, "natgeo", 1)
	require.NoError(t, err)
	assert.True(t, served)

	served, err = store.IsPageServed(ctx, "natgeo", 2)
	require.NoError(t, err)
	assert.False(t, served)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(time.Hour, 1, newClock().now)

	_, err := store.Put(ctx, "natgeo", testProfile("natgeo", 1), 0)
	require.NoError(t, err)

	entry, err := store.Get(ctx, "natgeo")
	require.NoError(t, err)
	entry.ServedPages[5] = struct{}{}

	served, err := store.IsPageServed(ctx, "natgeo", 5)
	require.NoError(t, err)
	assert.False(t, served)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(time.Hour, 1, newClock().now)

	_, err := store.Put(ctx, "natgeo", testProfile("natgeo", 1), 0)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "natgeo"))

	entry, err := store.Get(ctx, "natgeo")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, store.Close())
}
