package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"igfeed/pkg/config"
	apperrors "igfeed/pkg/errors"
	"igfeed/pkg/models"
)

// FeedService is the pagination backend behind the handlers
type FeedService interface {
	GetPage(ctx context.Context, identity string, page, limit int) (*models.FeedPage, error)
}

// Handlers serves the feed endpoints
type Handlers struct {
	feed FeedService
	cfg  config.FeedConfig
}

// NewHandlers creates the feed handlers
func NewHandlers(feed FeedService, cfg config.FeedConfig) *Handlers {
	return &Handlers{feed: feed, cfg: cfg}
}

// feedQuery is a validated /profile-feed request
type feedQuery struct {
	identity string
	page     int
	limit    int
}

func (h *Handlers) parseFeedQuery(r *http.Request) (feedQuery, error) {
	q := r.URL.Query()

	identity := strings.TrimSpace(q.Get("identity"))
	if identity == "" {
		identity = strings.TrimSpace(q.Get("username"))
	}
	if identity == "" {
		return feedQuery{}, apperrors.NewValidation(apperrors.MsgIdentityRequired)
	}

	fq := feedQuery{identity: identity, limit: h.cfg.DefaultLimit}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 || (h.cfg.MaxPage > 0 && page > h.cfg.MaxPage) {
			return feedQuery{}, apperrors.NewValidation("Invalid page parameter")
		}
		fq.page = page
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return feedQuery{}, apperrors.NewValidation("Invalid limit parameter")
		}
		fq.limit = limit
	}
	if h.cfg.MaxLimit > 0 && fq.limit > h.cfg.MaxLimit {
		fq.limit = h.cfg.MaxLimit
	}
	return fq, nil
}

// HandleProfileFeed serves GET /profile-feed
func (h *Handlers) HandleProfileFeed(w http.ResponseWriter, r *http.Request) {
	log := LoggerFrom(r.Context()).WithField("handler", "profile_feed")

	fq, err := h.parseFeedQuery(r)
	if err != nil {
		log.WithError(err).Debug("Rejected feed request")
		WriteError(w, err)
		return
	}

	log = log.WithFields(map[string]interface{}{
		"identity": fq.identity,
		"page":     fq.page,
		"limit":    fq.limit,
	})

	page, err := h.feed.GetPage(r.Context(), fq.identity, fq.page, fq.limit)
	if err != nil {
		switch apperrors.TypeOf(err) {
		case apperrors.ErrorTypeValidation, apperrors.ErrorTypeDuplicatePage:
			log.WithError(err).Info("Feed request refused")
		default:
			log.WithError(err).Error("Feed request failed")
		}
		WriteError(w, err)
		return
	}

	log.WithField("posts", len(page.Posts)).Debug("Served feed page")
	WriteJSON(w, http.StatusOK, page)
}

// HandleHealth serves GET /healthz
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
