package service

import (
	"Shortr-Backend/internal/domain"
	"Shortr-Backend/internal/repository"
	"Shortr-Backend/internal/visits"
	"Shortr-Backend/pkg/base62"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrInvalidURL = errors.New("invalid url")

// VisitRecorder accepts visits for asynchronous recording.
type VisitRecorder interface {
	Submit(visit *visits.Visit) error
}

// LinkService orchestrates link creation, lookup, ownership sync and
// visit triggering.
type LinkService struct {
	storage  repository.Storage
	recorder VisitRecorder
	log      *zap.Logger
}

// NewLinkService creates a new link service.
func NewLinkService(storage repository.Storage, recorder VisitRecorder, log *zap.Logger) *LinkService {
	return &LinkService{
		storage:  storage,
		recorder: recorder,
		log:      log,
	}
}

// Create validates the long URL, inserts the link and derives its short
// code from the store-assigned id. Validation happens before any store
// interaction; a malformed URL never reaches storage.
func (s *LinkService) Create(ctx context.Context, longURL string, ownerID *int64) (*domain.Link, error) {
	longURL = strings.TrimSpace(longURL)
	if !isAbsoluteURL(longURL) {
		return nil, ErrInvalidURL
	}

	link := &domain.Link{
		LongURL: longURL,
		OwnerID: ownerID,
	}

	if err := s.storage.SaveLink(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	code, err := base62.Encode(uint64(link.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to derive short code: %w", err)
	}

	if err := s.storage.SetShortCode(ctx, link.ID, code); err != nil {
		// A row without a code can never be resolved or claimed; remove it
		// rather than leaving it stranded. Best effort only.
		if delErr := s.storage.DeleteLink(ctx, link.ID); delErr != nil {
			s.log.Warn("failed to remove link left without short code",
				zap.Int64("link_id", link.ID),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to persist short code: %w", err)
	}
	link.ShortCode = code

	s.log.Info("created link",
		zap.Int64("link_id", link.ID),
		zap.String("short_code", code),
		zap.Bool("owned", ownerID != nil))

	return link, nil
}

// GetByShortCode is a pure lookup. An unknown code yields (nil, nil),
// not an error; the redirect handler maps absence to 404.
func (s *LinkService) GetByShortCode(ctx context.Context, code string) (*domain.Link, error) {
	link, err := s.storage.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up link: %w", err)
	}
	return link, nil
}

// GetByIDs bulk-fetches links; duplicate and unknown ids are excluded
// from the result.
func (s *LinkService) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Link, error) {
	links, err := s.storage.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch links by ids: %w", err)
	}
	return links, nil
}

// GetAllForOwner returns every link owned by the given user.
func (s *LinkService) GetAllForOwner(ctx context.Context, ownerID int64) ([]*domain.Link, error) {
	links, err := s.storage.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner links: %w", err)
	}
	return links, nil
}

// SyncOwnership claims each code for ownerID when it is unowned or already
// theirs. Unknown codes and codes owned by other users are silently
// skipped; the batch is best-effort, not a transaction, and the client can
// safely re-drive it.
func (s *LinkService) SyncOwnership(ctx context.Context, codes []string, ownerID int64) {
	for _, code := range codes {
		err := s.storage.SetOwner(ctx, code, ownerID)
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			s.log.Debug("ownership sync skipped unknown code", zap.String("short_code", code))
		case err != nil:
			s.log.Warn("ownership sync failed for code",
				zap.String("short_code", code),
				zap.Int64("owner_id", ownerID),
				zap.Error(err))
		}
	}
}

// RecordVisit hands the visit to the background recorder. It is
// fire-and-forget: the redirect response never waits on it and a failed
// submit is only logged.
func (s *LinkService) RecordVisit(link *domain.Link, ip, userAgent string) {
	visit := &visits.Visit{
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		IP:        ip,
		UserAgent: userAgent,
		VisitedAt: time.Now(),
	}

	if err := s.recorder.Submit(visit); err != nil {
		s.log.Error("failed to submit visit",
			zap.String("short_code", link.ShortCode),
			zap.Error(err))
	}
}

// isAbsoluteURL reports whether raw is a well-formed absolute http(s) URL.
func isAbsoluteURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
