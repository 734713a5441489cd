package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bbernstein/busschema/internal/auth"
	"github.com/bbernstein/busschema/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const (
	// SearchRadiusMeters is the fixed radius for coordinate searches
	SearchRadiusMeters = 1000
	// TextSearchLimit is the fixed result limit for text searches
	TextSearchLimit = 10
)

// UpstreamError is a non-success or malformed answer from the transit API.
type UpstreamError struct {
	StatusCode int
	// Malformed is set when a success status came with a body that is not JSON
	Malformed bool
}

func (e *UpstreamError) Error() string {
	if e.Malformed {
		return fmt.Sprintf("API error: invalid JSON in %d response", e.StatusCode)
	}
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// API is the subset of the transit API the proxy forwards to. Each call
// returns the upstream JSON body untouched.
type API interface {
	SearchByText(ctx context.Context, query string) ([]byte, error)
	SearchByCoordinates(ctx context.Context, lat, lon float64, limit string) ([]byte, error)
	Departures(ctx context.Context, gid, limit, timeSpan string) ([]byte, error)
}

type Client struct {
	httpClient client.Interface
	tokens     auth.TokenProvider
}

// NewClient expects httpClient to be rooted at the API base URL.
func NewClient(httpClient client.Interface, tokens auth.TokenProvider) *Client {
	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
	}
}

func (c *Client) SearchByText(ctx context.Context, query string) ([]byte, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(TextSearchLimit))
	return c.get(ctx, "/locations/by-text?"+params.Encode())
}

func (c *Client) SearchByCoordinates(ctx context.Context, lat, lon float64, limit string) ([]byte, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("radiusInMeters", strconv.Itoa(SearchRadiusMeters))
	params.Set("limit", limit)
	return c.get(ctx, "/locations/by-coordinates?"+params.Encode())
}

func (c *Client) Departures(ctx context.Context, gid, limit, timeSpan string) ([]byte, error) {
	params := url.Values{}
	params.Set("limit", limit)
	params.Set("timeSpan", timeSpan)
	return c.get(ctx, "/stop-areas/"+url.PathEscape(gid)+"/departures?"+params.Encode())
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	token, err := c.tokens.FetchToken(ctx)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Get(ctx, path, header)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}

	if !resp.OK() {
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", string(resp.Body)).
			Msg("Transit API error")
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	if !json.Valid(resp.Body) {
		log.Error().
			Int("status", resp.StatusCode).
			Int("bytes", len(resp.Body)).
			Msg("Transit API returned invalid JSON")
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Malformed: true}
	}

	return resp.Body, nil
}
