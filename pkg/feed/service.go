// Package feed serves pages of scraped profiles to clients, scraping on a
// cache miss and refusing pages that were already handed out from the live
// cache entry.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"igfeed/pkg/cache"
	apperrors "igfeed/pkg/errors"
	"igfeed/pkg/instagram"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
)

// ProfileScraper runs one scrape pass for an identity
type ProfileScraper interface {
	Scrape(ctx context.Context, identity string) (*models.Profile, error)
}

// DefaultScrapeTimeout bounds a shared scrape when no timeout is configured
const DefaultScrapeTimeout = 3 * time.Minute

// Service answers GetPage requests
type Service struct {
	store   cache.Store
	scraper ProfileScraper
	timeout time.Duration
	logger  logger.Logger

	// mu serializes every read-modify-write on the store
	mu    sync.Mutex
	group singleflight.Group
}

// NewService creates a Service. A zero timeout selects DefaultScrapeTimeout.
func NewService(store cache.Store, scraper ProfileScraper, timeout time.Duration, log logger.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultScrapeTimeout
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{
		store:   store,
		scraper: scraper,
		timeout: timeout,
		logger:  log.WithField("component", "feed"),
	}
}

type flightResult struct {
	profile *models.Profile
	// cached is set when the flight found a live entry instead of scraping
	cached bool
}

// GetPage returns page (zero-based) of identity's posts, limit per page.
//
// A page can be handed out once per cache entry. A miss or expired entry
// triggers a scrape; concurrent misses for the same identity share it.
func (s *Service) GetPage(ctx context.Context, identity string, page, limit int) (*models.FeedPage, error) {
	identity = instagram.SanitizeUsername(identity)
	if identity == "" {
		return nil, apperrors.NewValidation(apperrors.MsgIdentityRequired)
	}
	if !instagram.IsValidUsername(identity) {
		return nil, apperrors.NewValidation(apperrors.MsgInvalidIdentity)
	}
	if page < 0 {
		return nil, apperrors.NewValidation("Invalid page parameter")
	}
	if limit <= 0 {
		return nil, apperrors.NewValidation("Invalid limit parameter")
	}

	log := s.logger.WithFields(map[string]interface{}{
		"identity": identity,
		"page":     page,
		"limit":    limit,
	})

	result, hit, err := s.fromCache(ctx, identity, page, limit)
	if err != nil || hit {
		if errors.Is(err, apperrors.ErrPageServed) {
			log.Debug("Page already served")
		}
		return result, err
	}

	log.Debug("Cache miss, scraping profile")

	leader := false
	ch := s.group.DoChan(identity, func() (interface{}, error) {
		leader = true
		return s.load(ctx, identity)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if res.Err != nil {
		log.WithError(res.Err).Error("Profile load failed")
		if apperrors.TypeOf(res.Err) == apperrors.ErrorTypeAutomation {
			return nil, res.Err
		}
		return nil, apperrors.NewAutomation(res.Err)
	}

	flight := res.Val.(*flightResult)
	return s.claim(ctx, identity, flight, leader && !flight.cached, page, limit)
}

// fromCache serves the page from a live entry. hit is false on a miss.
func (s *Service) fromCache(ctx context.Context, identity string, page, limit int) (*models.FeedPage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.store.Get(ctx, identity)
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}
	if entry == nil {
		return nil, false, nil
	}
	if entry.Served(page) {
		return nil, true, apperrors.NewDuplicatePage(page)
	}

	added, err := s.store.MarkServed(ctx, identity, page)
	switch {
	case errors.Is(err, cache.ErrNoEntry):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("cache mark served: %w", err)
	case !added:
		return nil, true, apperrors.NewDuplicatePage(page)
	}

	fp := entry.Profile.Page(page, limit)
	return &fp, true, nil
}

// load runs inside the flight. It re-checks the cache so a caller that
// missed just before another flight landed does not scrape again.
func (s *Service) load(ctx context.Context, identity string) (*flightResult, error) {
	s.mu.Lock()
	entry, err := s.store.Get(ctx, identity)
	s.mu.Unlock()
	if err == nil && entry != nil {
		return &flightResult{profile: entry.Profile, cached: true}, nil
	}

	scrapeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	profile, err := s.scraper.Scrape(scrapeCtx, identity)
	if err != nil {
		return nil, err
	}
	return &flightResult{profile: profile}, nil
}

// claim records page against the entry produced by a flight. The caller
// that scraped installs the entry; everyone else marks their own page.
func (s *Service) claim(ctx context.Context, identity string, flight *flightResult, install bool, page, limit int) (*models.FeedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !install {
		added, err := s.store.MarkServed(ctx, identity, page)
		switch {
		case errors.Is(err, cache.ErrNoEntry):
			install = true
		case err != nil:
			return nil, fmt.Errorf("cache mark served: %w", err)
		case !added:
			return nil, apperrors.NewDuplicatePage(page)
		}
	}

	if install {
		if _, err := s.store.Put(ctx, identity, flight.profile, page); err != nil {
			return nil, fmt.Errorf("cache store: %w", err)
		}
		s.logger.WithFields(map[string]interface{}{
			"identity": identity,
			"posts":    len(flight.profile.Posts),
		}).Info("Cached profile")
	}

	fp := flight.profile.Page(page, limit)
	return &fp, nil
}

// Invalidate drops the cached entry for identity
func (s *Service) Invalidate(ctx context.Context, identity string) error {
	identity = instagram.SanitizeUsername(identity)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, identity); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
