package main

// Lambda entry point serving the web UI and JSON API behind API Gateway HTTP APIs:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"repo-analyzer-client/internal/bootstrap"
	"repo-analyzer-client/internal/shared/config"
	"repo-analyzer-client/internal/shared/telemetry"
)

type lambdaApp struct {
	app     *bootstrap.App
	adapter *ginadapter.GinLambdaV2
}

// load builds the app once per container; warm invocations reuse it.
var load = sync.OnceValues(func() (*lambdaApp, error) {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		return nil, err
	}
	return &lambdaApp{app: app, adapter: ginadapter.NewV2(app.Router)}, nil
})

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	la, err := load()
	if err != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": err})
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusServiceUnavailable,
			Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
			Body:       "Service unavailable",
		}, nil
	}
	la.app.PurgeIfDue(ctx)
	return la.adapter.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handler)
}
