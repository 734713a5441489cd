package transit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bbernstein/busschema/internal/auth"
	"github.com/bbernstein/busschema/pkg/http/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticToken(token string) auth.TokenProvider {
	return auth.TokenFunc(func(ctx context.Context) (string, error) {
		return token, nil
	})
}

func TestClientRequests(t *testing.T) {
	tests := []struct {
		name      string
		call      func(c *Client) ([]byte, error)
		wantPath  string
		wantQuery map[string]string
	}{
		{
			name: "text search",
			call: func(c *Client) ([]byte, error) {
				return c.SearchByText(context.Background(), "Brunnsparken & co")
			},
			wantPath: "/pr/v4/locations/by-text",
			wantQuery: map[string]string{
				"q":     "Brunnsparken & co",
				"limit": "10",
			},
		},
		{
			name: "coordinate search",
			call: func(c *Client) ([]byte, error) {
				return c.SearchByCoordinates(context.Background(), 57.7089, 11.9746, "7")
			},
			wantPath: "/pr/v4/locations/by-coordinates",
			wantQuery: map[string]string{
				"latitude":       "57.7089",
				"longitude":      "11.9746",
				"radiusInMeters": "1000",
				"limit":          "7",
			},
		},
		{
			name: "departures",
			call: func(c *Client) ([]byte, error) {
				return c.Departures(context.Background(), "9021014001760000", "15", "120")
			},
			wantPath: "/pr/v4/stop-areas/9021014001760000/departures",
			wantQuery: map[string]string{
				"limit":    "15",
				"timeSpan": "120",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				for key, want := range tt.wantQuery {
					assert.Equal(t, want, r.URL.Query().Get(key), key)
				}
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(`{"results":[]}`))
			}))
			defer server.Close()

			httpClient := client.New(client.Options{BaseURL: server.URL + "/pr/v4", Timeout: 5 * time.Second})
			c := NewClient(httpClient, staticToken("tok"))

			body, err := tt.call(c)
			require.NoError(t, err)
			assert.JSONEq(t, `{"results":[]}`, string(body))
		})
	}
}

func TestClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"detail":"maintenance"}`))
	}))
	defer server.Close()

	httpClient := client.New(client.Options{BaseURL: server.URL, Timeout: 5 * time.Second})
	c := NewClient(httpClient, staticToken("tok"))

	_, err := c.Departures(context.Background(), "123", "20", "60")
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusServiceUnavailable, upstreamErr.StatusCode)
	assert.Equal(t, "API error: 503", err.Error())
}

func TestClientTokenErrorSkipsUpstream(t *testing.T) {
	httpClient := client.New(client.Options{})
	httpClient.GetFunc = func(ctx context.Context, path string, header http.Header) (*client.Response, error) {
		t.Fatal("upstream must not be called without a token")
		return nil, nil
	}

	tokenErr := &auth.Error{Kind: auth.KindMissingCredentials, Message: "missing"}
	c := NewClient(httpClient, auth.TokenFunc(func(ctx context.Context) (string, error) {
		return "", tokenErr
	}))

	_, err := c.SearchByText(context.Background(), "abc")
	assert.ErrorIs(t, err, tokenErr)
}

func TestDeparturesEscapesGID(t *testing.T) {
	var gotPath string
	httpClient := client.New(client.Options{})
	httpClient.GetFunc = func(ctx context.Context, path string, header http.Header) (*client.Response, error) {
		gotPath = path
		return &client.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
	}

	c := NewClient(httpClient, staticToken("tok"))
	_, err := c.Departures(context.Background(), "../admin", "20", "60")
	require.NoError(t, err)
	assert.Equal(t, "/stop-areas/..%2Fadmin/departures?limit=20&timeSpan=60", gotPath)
}

func TestClientMalformedBody(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) ([]byte, error)
	}{
		{"text search", func(c *Client) ([]byte, error) {
			return c.SearchByText(context.Background(), "Brunnsparken")
		}},
		{"coordinate search", func(c *Client) ([]byte, error) {
			return c.SearchByCoordinates(context.Background(), 57.7089, 11.9746, "10")
		}},
		{"departures", func(c *Client) ([]byte, error) {
			return c.Departures(context.Background(), "9021014001760000", "20", "60")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>gateway page</html>`))
			}))
			defer server.Close()

			c := NewClient(client.New(client.Options{BaseURL: server.URL, Timeout: 5 * time.Second}), staticToken("tok"))

			body, err := tt.call(c)
			assert.Nil(t, body)

			var upstreamErr *UpstreamError
			require.True(t, errors.As(err, &upstreamErr))
			assert.True(t, upstreamErr.Malformed)
			assert.Equal(t, http.StatusOK, upstreamErr.StatusCode)
			assert.Equal(t, "API error: invalid JSON in 200 response", err.Error())
		})
	}
}
