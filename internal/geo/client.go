// Package geo wraps the external IP geolocation provider. Lookups are
// best-effort: callers must treat every error as recoverable and never
// let it block visit accounting.
package geo

import (
	"Shortr-Backend/internal/config"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var ErrEmptyIP = errors.New("ip address is empty")

// Location is the geolocation data attached to a visit.
type Location struct {
	Continent    string
	CountryCode  string
	CountryName  string
	RegionCode   string
	RegionName   string
	City         string
	Latitude     float64
	Longitude    float64
	CountryEmoji string
}

// Provider resolves an IP address to a Location.
type Provider interface {
	Lookup(ctx context.Context, ip string) (*Location, error)
}

// Client is an HTTP client for an ipwho.is-compatible lookup endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	log        *zap.Logger
}

// NewClient creates a geolocation client. The configured timeout bounds
// every lookup so a slow provider cannot pile up background work.
func NewClient(cfg *config.Geo, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		log:        log,
	}
}

// lookupResponse mirrors the provider's JSON payload.
type lookupResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	Continent   string  `json:"continent"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country"`
	RegionCode  string  `json:"region_code"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Flag        struct {
		Emoji string `json:"emoji"`
	} `json:"flag"`
}

// Lookup resolves the given IP address against the provider.
func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	if ip == "" {
		return nil, ErrEmptyIP
	}

	lookupURL := fmt.Sprintf("%s/%s", c.endpoint, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geo lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo provider returned status %d", resp.StatusCode)
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geo response: %w", err)
	}

	if !payload.Success {
		return nil, fmt.Errorf("geo provider rejected lookup: %s", payload.Message)
	}

	c.log.Debug("geo lookup succeeded",
		zap.String("ip", ip),
		zap.String("country_code", payload.CountryCode),
		zap.String("city", payload.City))

	return &Location{
		Continent:    payload.Continent,
		CountryCode:  payload.CountryCode,
		CountryName:  payload.Country,
		RegionCode:   payload.RegionCode,
		RegionName:   payload.Region,
		City:         payload.City,
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
		CountryEmoji: payload.Flag.Emoji,
	}, nil
}
