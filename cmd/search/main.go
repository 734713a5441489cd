package main

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bbernstein/busschema/internal/config"
	"github.com/bbernstein/busschema/internal/handler"
	"github.com/rs/zerolog/log"
)

var (
	proxy     *handler.ProxyHandler
	setupOnce sync.Once
)

func init() {
	setupOnce.Do(func() {
		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()

		log.Debug().Str("env", cfg.Environment).Msg("Environment")

		proxy = handler.FromConfig(cfg, nil)
	})
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Info().Msg("Handling stop search request")
	return proxy.SearchStops(ctx, request)
}

func main() {
	lambda.Start(handleRequest)
}
