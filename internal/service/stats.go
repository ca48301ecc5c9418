package service

import (
	"Shortr-Backend/internal/repository"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// LinkStats is the minimal public stats projection of a link. Per-visit
// geolocation records are retained in storage but not exposed here.
type LinkStats struct {
	LongURL    string
	ShortCode  string
	VisitCount int64
}

// StatsService serves read-only stats views over links.
type StatsService struct {
	storage repository.Storage
	log     *zap.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(storage repository.Storage, log *zap.Logger) *StatsService {
	return &StatsService{
		storage: storage,
		log:     log,
	}
}

// StatsFor returns the stats projection for a short code, or
// repository.ErrLinkNotFound when the code is unknown.
func (s *StatsService) StatsFor(ctx context.Context, code string) (*LinkStats, error) {
	link, err := s.storage.FindByCode(ctx, code)
	if err != nil {
		if err == repository.ErrLinkNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load link stats: %w", err)
	}

	return &LinkStats{
		LongURL:    link.LongURL,
		ShortCode:  link.ShortCode,
		VisitCount: link.VisitCount,
	}, nil
}
