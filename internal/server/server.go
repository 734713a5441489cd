package server

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/busschema/internal/api"
	"github.com/bbernstein/busschema/internal/handler"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

// LambdaFunc is the signature shared by the API Gateway handlers.
type LambdaFunc func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// every method reaches the handlers so they answer 405 themselves
var routedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// NewRouter serves the proxy endpoints under the same paths API Gateway
// uses. metricsHandler may be nil.
func NewRouter(h *handler.ProxyHandler, metricsHandler http.Handler) *httprouter.Router {
	router := httprouter.New()
	router.HandleMethodNotAllowed = false
	router.GlobalOPTIONS = http.HandlerFunc(preflight)
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeLambda(w, r, mustResponse(api.Error("Not found", http.StatusNotFound)))
	})

	routes := map[string]LambdaFunc{
		"/health":          h.Health,
		"/stops/search":    h.SearchStops,
		"/stops/nearby":    h.NearbyStops,
		"/departures/:gid": h.Departures,
		// without a gid the handler answers 400 instead of the router's 404
		"/departures":  h.Departures,
		"/departures/": h.Departures,
	}
	for path, fn := range routes {
		for _, method := range routedMethods {
			router.Handle(method, path, Adapt(fn))
		}
	}

	if metricsHandler != nil {
		router.Handler(http.MethodGet, "/metrics", metricsHandler)
	}

	return router
}

// New wraps the router with request ids, access logs and compression.
func New(h *handler.ProxyHandler, metricsHandler http.Handler) http.Handler {
	return Chain(NewRouter(h, metricsHandler),
		RequestIDMiddleware,
		RequestLoggingMiddleware,
		CompressionMiddleware,
	)
}

// Adapt turns a Lambda handler into an httprouter handle.
func Adapt(fn LambdaFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		resp, err := fn(r.Context(), toRequest(r, params))
		if err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Handler failed")
			resp = mustResponse(api.Error("Internal Server Error", http.StatusInternalServerError))
		}
		writeLambda(w, r, resp)
	}
}

func toRequest(r *http.Request, params httprouter.Params) events.APIGatewayProxyRequest {
	request := events.APIGatewayProxyRequest{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		Headers:               make(map[string]string, len(r.Header)),
		MultiValueHeaders:     r.Header,
		QueryStringParameters: make(map[string]string),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:   RequestID(r.Context()),
			HTTPMethod:  r.Method,
			Path:        r.URL.Path,
			RequestTime: time.Now().UTC().Format(time.RFC3339),
		},
	}

	for key := range r.Header {
		request.Headers[key] = r.Header.Get(key)
	}

	query := r.URL.Query()
	request.MultiValueQueryStringParameters = query
	for key := range query {
		request.QueryStringParameters[key] = query.Get(key)
	}

	if len(params) > 0 {
		request.PathParameters = make(map[string]string, len(params))
		for _, p := range params {
			request.PathParameters[p.Key] = p.Value
		}
	}

	return request
}

func writeLambda(w http.ResponseWriter, r *http.Request, resp events.APIGatewayProxyResponse) {
	header := w.Header()
	for key, value := range resp.Headers {
		header.Set(key, value)
	}
	for key, values := range resp.MultiValueHeaders {
		for _, value := range values {
			header.Add(key, value)
		}
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			log.Error().Err(err).Msg("Invalid base64 response body")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		body = decoded
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

func preflight(w http.ResponseWriter, r *http.Request) {
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusNoContent)
}

func mustResponse(resp events.APIGatewayProxyResponse, _ error) events.APIGatewayProxyResponse {
	return resp
}

// Run serves handler on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func Run(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
