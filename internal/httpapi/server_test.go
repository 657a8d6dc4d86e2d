package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igfeed/pkg/cache"
	"igfeed/pkg/config"
	apperrors "igfeed/pkg/errors"
	"igfeed/pkg/feed"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
)

type countingScraper struct {
	posts int
	err   error
	calls atomic.Int32
}

func (s *countingScraper) Scrape(ctx context.Context, identity string) (*models.Profile, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	p := &models.Profile{Username: identity, ProfilePicURL: "https://cdn.example/avatar.jpg"}
	for i := 0; i < s.posts; i++ {
		p.Posts = append(p.Posts, models.Post{ID: fmt.Sprintf("post-%d", i)})
	}
	return p, nil
}

func newTestServer(t *testing.T, scraper feed.ProfileScraper) (*httptest.Server, *logger.TestLogger) {
	t.Helper()
	cfg := config.DefaultConfig()
	log := logger.NewTestLogger()

	svc := feed.NewService(cache.NewMemoryStore(time.Hour, 1), scraper, time.Minute, logger.NewNopLogger())
	srv := httptest.NewServer(NewRouter(cfg, svc, log))
	t.Cleanup(srv.Close)
	return srv, log
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func postIDs(body map[string]interface{}) []string {
	var ids []string
	for _, p := range body["posts"].([]interface{}) {
		ids = append(ids, p.(map[string]interface{})["id"].(string))
	}
	return ids
}

func TestProfileFeedScenarios(t *testing.T) {
	scraper := &countingScraper{posts: 15}
	srv, _ := newTestServer(t, scraper)

	// cold cache scrapes and returns the first page
	resp, body := get(t, srv, "/profile-feed?identity=demo&page=0&limit=6")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "demo", body["username"])
	assert.Equal(t, []string{"post-0", "post-1", "post-2", "post-3", "post-4", "post-5"}, postIDs(body))
	assert.Equal(t, true, body["hasMore"])

	// the same page again is refused
	resp, body = get(t, srv, "/profile-feed?identity=demo&page=0&limit=6")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"error": "Page already served"}, body)

	// the next page comes from the same scrape
	resp, body = get(t, srv, "/profile-feed?identity=demo&page=1&limit=6")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"post-6", "post-7", "post-8", "post-9", "post-10", "post-11"}, postIDs(body))
	assert.Equal(t, true, body["hasMore"])

	resp, body = get(t, srv, "/profile-feed?identity=demo&page=2&limit=6")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, postIDs(body), 3)
	assert.Equal(t, false, body["hasMore"])

	assert.Equal(t, int32(1), scraper.calls.Load())
}

func TestMissingIdentity(t *testing.T) {
	scraper := &countingScraper{posts: 15}
	srv, _ := newTestServer(t, scraper)

	resp, body := get(t, srv, "/profile-feed?page=0&limit=6")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"error": apperrors.MsgIdentityRequired}, body)
	assert.Zero(t, scraper.calls.Load())
}

func TestUsernameAlias(t *testing.T) {
	srv, _ := newTestServer(t, &countingScraper{posts: 3})

	resp, body := get(t, srv, "/profile-feed?username=demo")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "demo", body["username"])
	assert.Len(t, postIDs(body), 3)
}

func TestInvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"negative page", "identity=demo&page=-1", "Invalid page parameter"},
		{"non numeric page", "identity=demo&page=two", "Invalid page parameter"},
		{"page too large", "identity=demo&page=10001", "Invalid page parameter"},
		{"zero limit", "identity=demo&limit=0", "Invalid limit parameter"},
		{"non numeric limit", "identity=demo&limit=lots", "Invalid limit parameter"},
		{"malformed identity", "identity=..%2Fnot+a+handle%3F%3Cx%3E", apperrors.MsgInvalidIdentity},
		{"identity with dash", "username=nat-geo", apperrors.MsgInvalidIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scraper := &countingScraper{posts: 3}
			srv, _ := newTestServer(t, scraper)

			resp, body := get(t, srv, "/profile-feed?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, body["error"])
			assert.Zero(t, scraper.calls.Load())
		})
	}
}

func TestLimitIsCapped(t *testing.T) {
	srv, _ := newTestServer(t, &countingScraper{posts: 80})

	resp, body := get(t, srv, "/profile-feed?identity=demo&limit=500")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, postIDs(body), config.DefaultConfig().Feed.MaxLimit)
}

func TestScrapeFailureIsOpaque(t *testing.T) {
	scraper := &countingScraper{err: apperrors.NewAutomation(errors.New("navigate: net::ERR_TIMED_OUT"))}
	srv, _ := newTestServer(t, scraper)

	resp, body := get(t, srv, "/profile-feed?identity=demo")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"error": "Failed to load profile"}, body)
}

func TestRequestIDAndLogging(t *testing.T) {
	srv, log := newTestServer(t, &countingScraper{posts: 3})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))

	require.Eventually(t, func() bool { return log.HasMessage("HTTP request completed") }, time.Second, 10*time.Millisecond)
	msgs := log.GetMessagesByLevel("INFO")
	require.NotEmpty(t, msgs)
	assert.Equal(t, "req-123", msgs[len(msgs)-1].Fields["request_id"])
}

func TestGeneratedRequestID(t *testing.T) {
	srv, _ := newTestServer(t, &countingScraper{posts: 3})

	resp, _ := get(t, srv, "/healthz")
	assert.Len(t, resp.Header.Get(RequestIDHeader), 36)
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, &countingScraper{posts: 3})

	resp, body := get(t, srv, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", body["error"])
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, &countingScraper{posts: 3})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/profile-feed", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHandlerRecoversFromPanics(t *testing.T) {
	cfg := config.DefaultConfig()
	srv := httptest.NewServer(NewRouter(cfg, panickingFeed{}, logger.NewNopLogger()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/profile-feed?identity=demo")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

type panickingFeed struct{}

func (panickingFeed) GetPage(context.Context, string, int, int) (*models.FeedPage, error) {
	panic("boom")
}
