package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bbernstein/busschema/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const missingCredentialsMessage = "VASTTRAFIK_CLIENT_ID and VASTTRAFIK_CLIENT_SECRET must be set in environment variables"

// TokenProvider hands out a bearer token for a single outbound call.
type TokenProvider interface {
	FetchToken(ctx context.Context) (string, error)
}

// ClientCredentials performs a fresh OAuth2 client-credentials exchange on
// every call. Nothing is cached.
type ClientCredentials struct {
	httpClient   client.Interface
	authURL      string
	clientID     string
	clientSecret string
}

func NewClientCredentials(httpClient client.Interface, authURL, clientID, clientSecret string) *ClientCredentials {
	return &ClientCredentials{
		httpClient:   httpClient,
		authURL:      authURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (p *ClientCredentials) FetchToken(ctx context.Context) (string, error) {
	token, err := p.exchange(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get access token")
		return "", err
	}
	log.Debug().Msg("Got new access token")
	return token, nil
}

func (p *ClientCredentials) exchange(ctx context.Context) (string, error) {
	if p.clientID == "" || p.clientSecret == "" {
		return "", newError(KindMissingCredentials, missingCredentialsMessage, nil)
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(p.clientID + ":" + p.clientSecret))
	header := http.Header{}
	header.Set("Authorization", "Basic "+credentials)

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	resp, err := p.httpClient.PostForm(ctx, p.authURL, form, header)
	if err != nil {
		return "", newError(KindTransport, "Auth request failed", err)
	}

	if !resp.OK() {
		return "", newError(KindRejected, fmt.Sprintf("Auth failed: %s - %s", resp.Status, string(resp.Body)), nil)
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", newError(KindMalformed, "Invalid token response", err)
	}
	if body.AccessToken == "" {
		return "", newError(KindMalformed, "No access token in response", nil)
	}

	return body.AccessToken, nil
}

// TokenFunc adapts a plain function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) FetchToken(ctx context.Context) (string, error) {
	return f(ctx)
}
