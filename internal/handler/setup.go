package handler

import (
	"github.com/bbernstein/busschema/internal/auth"
	"github.com/bbernstein/busschema/internal/config"
	"github.com/bbernstein/busschema/internal/metrics"
	"github.com/bbernstein/busschema/internal/transit"
	"github.com/bbernstein/busschema/pkg/http/client"
)

// FromConfig builds a ProxyHandler talking to the endpoints in cfg. The
// collector may be nil.
func FromConfig(cfg *config.Config, collector *metrics.Collector, opts ...Option) *ProxyHandler {
	// the auth client has no base URL, the token endpoint is used as is
	authClient := client.New(client.Options{Timeout: cfg.HTTPTimeout})
	apiClient := client.New(client.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
	})

	tokens := metrics.InstrumentTokens(
		auth.NewClientCredentials(authClient, cfg.AuthURL, cfg.ClientID, cfg.ClientSecret),
		collector,
	)

	opts = append([]Option{WithMetrics(collector)}, opts...)
	return NewProxyHandler(transit.NewClient(apiClient, tokens), cfg.Environment, opts...)
}
