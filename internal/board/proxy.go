package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bbernstein/busschema/internal/api"
	"github.com/bbernstein/busschema/internal/models"
	"github.com/bbernstein/busschema/pkg/http/client"
)

const (
	// DeparturesLimit and DeparturesTimeSpan are what the board asks for
	DeparturesLimit    = 15
	DeparturesTimeSpan = 120
)

// Proxy is the board's view of the proxy endpoints.
type Proxy interface {
	SearchStops(ctx context.Context, query string) ([]models.LocationResult, error)
	NearbyStops(ctx context.Context, lat, lon float64) ([]models.LocationResult, error)
	Departures(ctx context.Context, gid string) (models.DepartureResponse, error)
}

// ProxyError is a non-success answer from the proxy.
type ProxyError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *ProxyError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("proxy returned %d: %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("proxy returned %d: %s", e.StatusCode, e.Message)
}

type HTTPProxy struct {
	httpClient client.Interface
}

// NewHTTPProxy expects httpClient to be rooted at the proxy base URL.
func NewHTTPProxy(httpClient client.Interface) *HTTPProxy {
	return &HTTPProxy{httpClient: httpClient}
}

func (p *HTTPProxy) SearchStops(ctx context.Context, query string) ([]models.LocationResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var resp models.LocationResponse
	if err := p.get(ctx, "/stops/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (p *HTTPProxy) NearbyStops(ctx context.Context, lat, lon float64) ([]models.LocationResult, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))

	var resp models.LocationResponse
	if err := p.get(ctx, "/stops/nearby?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (p *HTTPProxy) Departures(ctx context.Context, gid string) (models.DepartureResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(DeparturesLimit))
	params.Set("timeSpan", strconv.Itoa(DeparturesTimeSpan))

	var resp models.DepartureResponse
	err := p.get(ctx, "/departures/"+url.PathEscape(gid)+"?"+params.Encode(), &resp)
	return resp, err
}

func (p *HTTPProxy) get(ctx context.Context, path string, out any) error {
	header := http.Header{}
	header.Set("Accept", "application/json")

	resp, err := p.httpClient.Get(ctx, path, header)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}

	if !resp.OK() {
		proxyErr := &ProxyError{StatusCode: resp.StatusCode, Message: resp.Status}
		var body api.ErrorResponse
		if json.Unmarshal(resp.Body, &body) == nil && body.Error != "" {
			proxyErr.Message = body.Error
			proxyErr.Detail = body.Message
		}
		return proxyErr
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
