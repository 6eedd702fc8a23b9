package main

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"github.com/yungbote/learnpath-backend/internal/app"
)

var (
	application *app.App
	ginLambda   *ginadapter.GinLambda
)

// init runs once per cold start; clients stay open across warm invocations.
func init() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	a, err := app.New(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	application = a
	ginLambda = ginadapter.New(a.Router)
}

func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp, err := ginLambda.ProxyWithContext(ctx, req)

	flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	application.Clients.FlushMetrics(flushCtx)

	return resp, err
}

func main() {
	lambda.Start(Handler)
}
