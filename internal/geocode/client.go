package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/time/rate"

	"faftonnage/internal/config"
)

var ErrNoResults = errors.New("no geocoding results")

// Location is the best match for a query.
type Location struct {
	Query       string
	DisplayName string
	// Point holds longitude, latitude.
	Point orb.Point
}

// Lon returns the longitude.
func (l *Location) Lon() float64 { return l.Point.Lon() }

// Lat returns the latitude.
func (l *Location) Lat() float64 { return l.Point.Lat() }

// searchResult is one element of the Nominatim search response
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Client queries the search endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client from the geocode configuration.
func NewClient(cfg config.GeocodeConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:     logger.With(slog.String("component", "geocode")),
	}
}

// Geocode returns the longitude/latitude of the best match for query.
func (c *Client) Geocode(ctx context.Context, query string) (orb.Point, error) {
	loc, err := c.Lookup(ctx, query)
	if err != nil {
		return orb.Point{}, err
	}
	return loc.Point, nil
}

// Lookup returns the best match for query. It blocks until the rate limiter
// admits the request or ctx is done.
func (c *Client) Lookup(ctx context.Context, query string) (*Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrNoResults)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "geocode request", slog.String("query", query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocode request failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoResults, query)
	}

	best := results[0]
	lat, err := strconv.ParseFloat(best.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", best.Lat, err)
	}
	lon, err := strconv.ParseFloat(best.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", best.Lon, err)
	}

	c.logger.InfoContext(ctx, "geocoded",
		slog.String("query", query),
		slog.String("display_name", best.DisplayName),
		slog.Float64("lon", lon),
		slog.Float64("lat", lat))

	return &Location{
		Query:       query,
		DisplayName: best.DisplayName,
		Point:       orb.Point{lon, lat},
	}, nil
}
