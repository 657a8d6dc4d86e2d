package scraper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igfeed/pkg/browser"
	"igfeed/pkg/config"
	apperrors "igfeed/pkg/errors"
	"igfeed/pkg/extract"
	"igfeed/pkg/instagram"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
	"igfeed/pkg/storage"
)

const gridHTML = `<html><body>
<header><div class="rounded-full"><img src="/avatar.jpg" alt="natgeo's profile picture"></div></header>
<ul><li>3 posts</li><li>10 followers</li><li>2 following</li></ul>
<a href="/p/A/"><img src="/a.jpg"></a><a href="/p/B/"><img src="/b.jpg"></a><a href="/p/C/"><img src="/c.jpg"></a>
</body></html>`

// fakeSession records calls and fails on demand
type fakeSession struct {
	mu          sync.Mutex
	calls       []string
	navigatedTo string
	heights     []int64
	dialog      bool
	html        string

	navigateErr   error
	readyErr      error
	dismissErr    error
	scrollErr     error
	snapshotErr   error
	screenshotErr error
	closed        int
}

func (f *fakeSession) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSession) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.record("navigate")
	f.navigatedTo = url
	return f.navigateErr
}

func (f *fakeSession) WaitReady(ctx context.Context) error {
	f.record("wait_ready")
	return f.readyErr
}

func (f *fakeSession) DismissDialog(ctx context.Context) (bool, error) {
	f.record("dismiss")
	return f.dialog, f.dismissErr
}

func (f *fakeSession) ScrollHeight(ctx context.Context) (int64, error) {
	f.record("height")
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.heights) == 0 {
		return 1000, nil
	}
	h := f.heights[0]
	if len(f.heights) > 1 {
		f.heights = f.heights[1:]
	}
	return h, nil
}

func (f *fakeSession) ScrollToBottom(ctx context.Context) error {
	f.record("scroll")
	return f.scrollErr
}

func (f *fakeSession) Snapshot(ctx context.Context) (extract.Snapshot, error) {
	f.record("snapshot")
	if f.snapshotErr != nil {
		return extract.Snapshot{}, f.snapshotErr
	}
	return extract.Snapshot{HTML: f.html, URL: f.navigatedTo}, nil
}

func (f *fakeSession) Screenshot(ctx context.Context) ([]byte, error) {
	f.record("screenshot")
	return []byte("png"), f.screenshotErr
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

type fakeFactory struct {
	session *fakeSession
	err     error
}

func (f *fakeFactory) Acquire(ctx context.Context) (browser.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(extract.Snapshot, string) (*models.Profile, error) {
	panic("selector exploded")
}

type denyLimiter struct{}

func (denyLimiter) Allow() bool                    { return false }
func (denyLimiter) Wait(ctx context.Context) error { return context.DeadlineExceeded }
func (denyLimiter) Reset()                         {}

var endpoints = instagram.MustEndpoints(instagram.BaseURL)

func newTestScraper(session *fakeSession, opts ...Option) (*Scraper, *[]time.Duration) {
	cfg := config.DefaultConfig().Browser
	ex := extract.New(endpoints, extract.Options{Placeholders: true, PlaceholderPosts: 18}, logger.NewNopLogger())
	s := New(cfg, endpoints, &fakeFactory{session: session}, ex, append([]Option{WithLogger(logger.NewNopLogger())}, opts...)...)

	var slept []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return s, &slept
}

func TestScrapeHappyPath(t *testing.T) {
	session := &fakeSession{html: gridHTML, heights: []int64{1000, 2000, 2000, 3000, 3000, 3000}}
	s, slept := newTestScraper(session)

	profile, err := s.Scrape(context.Background(), "natgeo")
	require.NoError(t, err)

	assert.Equal(t, "https://www.instagram.com/natgeo/", session.navigatedTo)
	assert.Len(t, profile.Posts, 3)
	assert.Equal(t, int64(10), profile.FollowersCount)
	assert.False(t, profile.ScrapedAt.IsZero())
	assert.Equal(t, 1, session.closed)

	// three iterations allowed, the third saw no growth
	assert.Equal(t, 3, session.count("scroll"))
	assert.Len(t, *slept, 3)
	assert.Equal(t, 0, session.count("screenshot"))
}

func TestScrollStopsWhenPageStopsGrowing(t *testing.T) {
	session := &fakeSession{html: gridHTML, heights: []int64{1000}}
	s, _ := newTestScraper(session)

	_, err := s.Scrape(context.Background(), "natgeo")
	require.NoError(t, err)
	assert.Equal(t, 1, session.count("scroll"))
}

func TestDialogIsDismissedWithPause(t *testing.T) {
	session := &fakeSession{html: gridHTML, dialog: true, heights: []int64{1000}}
	s, slept := newTestScraper(session)

	_, err := s.Scrape(context.Background(), "natgeo")
	require.NoError(t, err)
	require.NotEmpty(t, *slept)
	assert.Equal(t, config.DefaultConfig().Browser.DialogPause, (*slept)[0])
}

func TestNonFatalStageErrors(t *testing.T) {
	session := &fakeSession{
		html:       gridHTML,
		dismissErr: errors.New("dialog detached"),
		scrollErr:  errors.New("evaluation failed"),
	}
	s, _ := newTestScraper(session)

	profile, err := s.Scrape(context.Background(), "natgeo")
	require.NoError(t, err)
	assert.Len(t, profile.Posts, 3)
	assert.Equal(t, 1, session.count("scroll"))
}

func TestFatalStagesCloseSession(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(*fakeSession)
		stage Stage
	}{
		{"navigate", func(f *fakeSession) { f.navigateErr = boom }, StageNavigate},
		{"wait ready", func(f *fakeSession) { f.readyErr = boom }, StageWaitReady},
		{"snapshot", func(f *fakeSession) { f.snapshotErr = boom }, StageExtract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{html: gridHTML}
			tt.setup(session)
			s, _ := newTestScraper(session)

			profile, err := s.Scrape(context.Background(), "natgeo")
			assert.Nil(t, profile)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrLoadFailed)
			assert.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), string(tt.stage))
			assert.Equal(t, 1, session.closed)
		})
	}
}

func TestLaunchFailure(t *testing.T) {
	s, _ := newTestScraper(nil)
	s.sessions = &fakeFactory{err: errors.New("chrome not found")}

	_, err := s.Scrape(context.Background(), "natgeo")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeAutomation, apperrors.TypeOf(err))
	assert.Contains(t, err.Error(), "launch")
}

func TestPanicInExtractionIsRecovered(t *testing.T) {
	session := &fakeSession{html: gridHTML}
	s, _ := newTestScraper(session)
	s.extractor = panickingExtractor{}

	profile, err := s.Scrape(context.Background(), "natgeo")
	assert.Nil(t, profile)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLoadFailed)
	assert.Contains(t, err.Error(), "selector exploded")
	assert.Equal(t, 1, session.closed)
}

func TestAdmissionDenied(t *testing.T) {
	session := &fakeSession{html: gridHTML}
	s, _ := newTestScraper(session, WithLimiter(denyLimiter{}))

	_, err := s.Scrape(context.Background(), "natgeo")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, session.calls)
	assert.Zero(t, session.closed)
}

func TestCancelledContextAbortsScroll(t *testing.T) {
	session := &fakeSession{html: gridHTML, heights: []int64{1000, 2000}}
	s, _ := newTestScraper(session)

	ctx, cancel := context.WithCancel(context.Background())
	s.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := s.Scrape(ctx, "natgeo")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, session.closed)
}

func TestArtifactsAreSaved(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewManager(dir)
	require.NoError(t, err)

	session := &fakeSession{html: gridHTML}
	s, _ := newTestScraper(session, WithArtifacts(store))

	_, err = s.Scrape(context.Background(), "natgeo")
	require.NoError(t, err)

	artifacts, err := store.List()
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, 1, session.count("screenshot"))
}

func TestArtifactFailuresAreIgnored(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewManager(dir)
	require.NoError(t, err)

	session := &fakeSession{html: gridHTML, screenshotErr: errors.New("capture failed")}
	s, _ := newTestScraper(session, WithArtifacts(store))

	profile, err := s.Scrape(context.Background(), "natgeo")
	require.NoError(t, err)
	assert.NotNil(t, profile)

	artifacts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, artifacts, 1)
}
