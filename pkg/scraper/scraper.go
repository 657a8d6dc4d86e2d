package scraper

import (
	"context"
	"fmt"
	"time"

	"igfeed/pkg/browser"
	"igfeed/pkg/config"
	apperrors "igfeed/pkg/errors"
	"igfeed/pkg/extract"
	"igfeed/pkg/instagram"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
	"igfeed/pkg/ratelimit"
)

// Stage names one step of a scrape pass
type Stage string

const (
	StageAdmit     Stage = "admit"
	StageLaunch    Stage = "launch"
	StageNavigate  Stage = "navigate"
	StageWaitReady Stage = "wait_ready"
	StageDismiss   Stage = "dismiss_interstitial"
	StageScroll    Stage = "scroll_expand"
	StageExtract   Stage = "extract"
)

// Scraper drives one browser session through a profile page:
// launch, navigate, wait, dismiss, scroll, extract, teardown.
type Scraper struct {
	sessions  browser.SessionFactory
	extractor ProfileExtractor
	endpoints *instagram.Endpoints
	limiter   ratelimit.Limiter
	artifacts ArtifactStore
	cfg       config.BrowserConfig
	logger    logger.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option customizes a Scraper
type Option func(*Scraper)

// WithLimiter gates scrape starts
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Scraper) { s.limiter = l }
}

// WithArtifacts stores a screenshot and the HTML of every extracted page
func WithArtifacts(a ArtifactStore) Option {
	return func(s *Scraper) { s.artifacts = a }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// New creates a Scraper
func New(cfg config.BrowserConfig, endpoints *instagram.Endpoints, sessions browser.SessionFactory, extractor ProfileExtractor, opts ...Option) *Scraper {
	s := &Scraper{
		sessions:  sessions,
		extractor: extractor,
		endpoints: endpoints,
		limiter:   ratelimit.Unlimited{},
		cfg:       cfg,
		logger:    logger.GetLogger(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "scraper")
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func stageError(stage Stage, err error) error {
	return apperrors.NewAutomation(fmt.Errorf("%s: %w", stage, err))
}

// Scrape runs one full pass for identity. The browser session is closed on
// every path, including panics during extraction. All failures are
// automation errors.
func (s *Scraper) Scrape(ctx context.Context, identity string) (profile *models.Profile, err error) {
	log := s.logger.WithField("identity", identity)
	start := time.Now()
	stage := StageAdmit

	defer func() {
		if r := recover(); r != nil {
			profile = nil
			err = stageError(stage, fmt.Errorf("panic: %v", r))
		}
		posts := 0
		if profile != nil {
			posts = len(profile.Posts)
		}
		logger.LogScrape(log.WithField("stage", string(stage)), identity, posts, time.Since(start), err)
	}()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, stageError(stage, err)
	}

	stage = StageLaunch
	session, err := s.sessions.Acquire(ctx)
	if err != nil {
		return nil, stageError(stage, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close browser session")
		}
	}()

	stage = StageNavigate
	if err := session.Navigate(ctx, s.endpoints.ProfileURL(identity)); err != nil {
		return nil, stageError(stage, err)
	}

	stage = StageWaitReady
	if err := session.WaitReady(ctx); err != nil {
		return nil, stageError(stage, err)
	}

	stage = StageDismiss
	if err := s.dismissInterstitial(ctx, session, log); err != nil {
		return nil, stageError(stage, err)
	}

	stage = StageScroll
	if err := s.scrollExpand(ctx, session, log); err != nil {
		return nil, stageError(stage, err)
	}

	stage = StageExtract
	snap, err := session.Snapshot(ctx)
	if err != nil {
		return nil, stageError(stage, err)
	}
	s.saveArtifacts(ctx, session, identity, snap, log)

	profile, err = s.extractor.Extract(snap, identity)
	if err != nil {
		return nil, stageError(stage, err)
	}
	profile.ScrapedAt = time.Now()
	return profile, nil
}

// dismissInterstitial closes a login or cookie dialog when present. Failures
// are logged and ignored; only cancellation aborts.
func (s *Scraper) dismissInterstitial(ctx context.Context, session browser.Session, log logger.Logger) error {
	dismissed, err := session.DismissDialog(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Debug("No dialog dismissed")
		return nil
	}
	if !dismissed {
		return nil
	}
	log.Debug("Dismissed interstitial dialog")
	return s.sleep(ctx, s.cfg.DialogPause)
}

// scrollExpand scrolls to the bottom up to the configured number of times,
// stopping once the page stops growing.
func (s *Scraper) scrollExpand(ctx context.Context, session browser.Session, log logger.Logger) error {
	for i := 0; i < s.cfg.ScrollIterations; i++ {
		before, err := session.ScrollHeight(ctx)
		if err == nil {
			err = session.ScrollToBottom(ctx)
		}
		if err == nil {
			err = s.sleep(ctx, s.cfg.ScrollPause)
		}
		var after int64
		if err == nil {
			after, err = session.ScrollHeight(ctx)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).WithField("iteration", i).Warn("Scrolling stopped early")
			return nil
		}
		if after <= before {
			log.DebugWithFields("Page stopped growing", map[string]interface{}{"iteration": i, "height": after})
			return nil
		}
	}
	return nil
}

func (s *Scraper) saveArtifacts(ctx context.Context, session browser.Session, identity string, snap extract.Snapshot, log logger.Logger) {
	if s.artifacts == nil {
		return
	}
	base := s.artifacts.BaseName(identity)

	if png, err := session.Screenshot(ctx); err != nil {
		log.WithError(err).Warn("Failed to capture screenshot")
	} else if _, err := s.artifacts.SaveScreenshot(base, png); err != nil {
		log.WithError(err).Warn("Failed to save screenshot")
	}

	if a, err := s.artifacts.SaveHTML(base, snap.HTML); err != nil {
		log.WithError(err).Warn("Failed to save HTML snapshot")
	} else {
		log.WithField("path", a.Path).Debug("Saved debug artifacts")
	}
}
