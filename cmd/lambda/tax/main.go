package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"finance-tax-api/internal/handlers"
	"finance-tax-api/pkg/lambda"
	"finance-tax-api/pkg/server"
)

func registerRoutes(router *lambda.Router, container *server.Container) {
	handlers.NewTaxHandler(container.TaxService).RegisterLambdaRoutes(router)
}

func handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	router, container, err := lambda.GetContainerManager().GetRouter(ctx, registerRoutes)
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize container")
		return lambda.ToAPIGateway(lambda.JSONResponse(http.StatusInternalServerError, handlers.ErrorResponse{
			Error:   "Internal server error",
			Message: "Service unavailable",
		})), nil
	}

	req := lambda.FromAPIGateway(event)
	resp, err := router.Serve(ctx, req)
	if err != nil {
		container.Logger.WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.Path,
			"error":  err.Error(),
		}).Error("Lambda handler failed")

		return lambda.ToAPIGateway(lambda.JSONResponse(http.StatusInternalServerError, handlers.ErrorResponse{
			Error:   "Internal server error",
			Message: "An internal error occurred",
		})), nil
	}

	return lambda.ToAPIGateway(resp), nil
}

func main() {
	awslambda.Start(handler)
}
