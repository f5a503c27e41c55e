package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// GeocodeTTL is how long a resolved address stays cached. Addresses barely
// move, so the entries live for weeks.
const GeocodeTTL = 30 * 24 * time.Hour

// Service resolves addresses to coordinates and computes distances. Geocode
// degrades to ok=false instead of failing, so callers can fall back to
// non-geo ranking.
type Service interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, ok bool)
	DistanceKm(lat1, lng1, lat2, lng2 float64) float64
}

// DefaultGeoService is the production implementation: an external HTTP
// geocoder behind a Redis cache.
type DefaultGeoService struct {
	Cache      *redis.Client
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Logger     *zap.Logger
}

// NewDefaultGeoService builds a geo service with a short upstream timeout so
// a slow geocoder cannot stall a scheduling attempt.
func NewDefaultGeoService(cache *redis.Client, baseURL, apiKey string, logger *zap.Logger) *DefaultGeoService {
	return &DefaultGeoService{
		Cache:      cache,
		HTTPClient: &http.Client{Timeout: 3 * time.Second},
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Logger:     logger,
	}
}

type geocodeResult struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NormalizeAddress case-folds the address and collapses whitespace runs, so
// trivially different spellings share a cache entry.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

func (s *DefaultGeoService) Geocode(ctx context.Context, address string) (float64, float64, bool) {
	norm := NormalizeAddress(address)
	if norm == "" {
		return 0, 0, false
	}
	cacheKey := "geocode:" + norm

	if s.Cache != nil {
		if cached, err := s.Cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var res geocodeResult
			if err := json.Unmarshal([]byte(cached), &res); err == nil {
				return res.Lat, res.Lng, true
			}
		}
	}

	if s.BaseURL == "" {
		return 0, 0, false
	}

	reqURL := fmt.Sprintf("%s?q=%s&key=%s", s.BaseURL, url.QueryEscape(norm), url.QueryEscape(s.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		s.Logger.Warn("geocode request build failed", zap.String("address", norm), zap.Error(err))
		return 0, 0, false
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		s.Logger.Warn("geocoder unavailable", zap.String("address", norm), zap.Error(err))
		return 0, 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.Logger.Warn("geocoder returned non-OK status", zap.String("address", norm), zap.Int("status", resp.StatusCode))
		return 0, 0, false
	}

	var res geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		s.Logger.Warn("failed to decode geocoder response", zap.String("address", norm), zap.Error(err))
		return 0, 0, false
	}

	if s.Cache != nil {
		if data, err := json.Marshal(res); err == nil {
			s.Cache.Set(ctx, cacheKey, data, GeocodeTTL)
		}
	}

	return res.Lat, res.Lng, true
}

// DistanceKm computes the great-circle distance between two points.
func (s *DefaultGeoService) DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	return Haversine(lat1, lng1, lat2, lng2)
}

// Haversine calculates the great-circle distance (in km) between two lat/lng points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
