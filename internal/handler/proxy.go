package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/busschema/internal/api"
	"github.com/bbernstein/busschema/internal/config"
	"github.com/bbernstein/busschema/internal/metrics"
	"github.com/bbernstein/busschema/internal/transit"
	"github.com/rs/zerolog/log"
)

const (
	defaultNearbyLimit       = "10"
	defaultDeparturesLimit   = "20"
	defaultDeparturesMinutes = "60"
	isoMillis                = "2006-01-02T15:04:05.000Z07:00"
)

// ProxyHandler serves the health, stop search, nearby search and departures
// endpoints. It keeps no state between requests.
type ProxyHandler struct {
	transit     transit.API
	environment string
	metrics     *metrics.Collector
	now         func() time.Time
}

type Option func(*ProxyHandler)

func WithMetrics(c *metrics.Collector) Option {
	return func(h *ProxyHandler) {
		h.metrics = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *ProxyHandler) {
		h.now = now
	}
}

func NewProxyHandler(api transit.API, environment string, opts ...Option) *ProxyHandler {
	h := &ProxyHandler{
		transit:     api,
		environment: environment,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type handlerFunc func() (events.APIGatewayProxyResponse, error)

func (h *ProxyHandler) Health(_ context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.instrument("health", request, func() (events.APIGatewayProxyResponse, error) {
		return api.Success(api.HealthResponse{
			Status:      "ok",
			Timestamp:   h.now().UTC().Format(isoMillis),
			Service:     config.ServiceName,
			Environment: h.environment,
		})
	})
}

func (h *ProxyHandler) SearchStops(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.instrument("search", request, func() (events.APIGatewayProxyResponse, error) {
		query, err := api.RequireParam(request.QueryStringParameters, "query", "Query parameter required")
		if err != nil {
			return api.Error(err.Error(), http.StatusBadRequest)
		}

		body, err := h.transit.SearchByText(ctx, query)
		if err != nil {
			return upstreamFailure("Failed to search stops", err)
		}
		return api.Raw(body)
	})
}

func (h *ProxyHandler) NearbyStops(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.instrument("nearby", request, func() (events.APIGatewayProxyResponse, error) {
		params := request.QueryStringParameters

		lat, lon, err := api.ParseCoordinates(params)
		if err != nil {
			var validationErr *api.ValidationError
			if errors.As(err, &validationErr) {
				return api.Error(validationErr.Message, http.StatusBadRequest)
			}
			return api.Error("Invalid parameters", http.StatusBadRequest)
		}

		limit := api.ParamOrDefault(params, "limit", defaultNearbyLimit)

		body, err := h.transit.SearchByCoordinates(ctx, lat, lon, limit)
		if err != nil {
			return upstreamFailure("Failed to search nearby stops", err)
		}
		return api.Raw(body)
	})
}

func (h *ProxyHandler) Departures(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.instrument("departures", request, func() (events.APIGatewayProxyResponse, error) {
		params := request.QueryStringParameters

		// API Gateway puts {gid} in the path parameters; direct invocations may use the query
		source := request.PathParameters
		if source["gid"] == "" {
			source = params
		}
		gid, err := api.RequireParam(source, "gid", "GID parameter required")
		if err != nil {
			return api.Error(err.Error(), http.StatusBadRequest)
		}

		limit := api.ParamOrDefault(params, "limit", defaultDeparturesLimit)
		timeSpan := api.ParamOrDefault(params, "timeSpan", defaultDeparturesMinutes)

		body, err := h.transit.Departures(ctx, gid, limit, timeSpan)
		if err != nil {
			return upstreamFailure("Failed to fetch departures", err)
		}
		return api.Raw(body)
	})
}

// instrument enforces GET and reports the outcome to the metrics collector.
func (h *ProxyHandler) instrument(endpoint string, request events.APIGatewayProxyRequest, fn handlerFunc) (events.APIGatewayProxyResponse, error) {
	start := h.now()

	var resp events.APIGatewayProxyResponse
	var err error
	if api.AllowsMethod(request, http.MethodGet) {
		resp, err = fn()
	} else {
		resp, err = api.MethodNotAllowed()
	}

	h.metrics.ObserveRequest(endpoint, resp.StatusCode, h.now().Sub(start))
	return resp, err
}

func upstreamFailure(message string, err error) (events.APIGatewayProxyResponse, error) {
	log.Error().Err(err).Msg(message)
	return api.ErrorWithDetail(message, err.Error(), http.StatusInternalServerError)
}
