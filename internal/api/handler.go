package api

import (
	"encoding/json"
	"github.com/aws/aws-lambda-go/events"
	"net/http"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Service     string `json:"service"`
	Environment string `json:"environment"`
}

func NewErrorResponse(message, detail string) *ErrorResponse {
	return &ErrorResponse{
		Error:   message,
		Message: detail,
	}
}

func headers() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return Raw(jsonBody)
}

// Raw relays an already encoded JSON body with status 200.
func Raw(body []byte) (events.APIGatewayProxyResponse, error) {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers(),
		Body:       string(body),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	return ErrorWithDetail(message, "", statusCode)
}

func ErrorWithDetail(message, detail string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message, detail))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers(),
		Body:       string(body),
	}, nil
}

func MethodNotAllowed() (events.APIGatewayProxyResponse, error) {
	return Error("Method not allowed", http.StatusMethodNotAllowed)
}

// AllowsMethod treats an empty method as the wanted one, which is what direct
// invocations without an HTTP front send.
func AllowsMethod(request events.APIGatewayProxyRequest, method string) bool {
	return request.HTTPMethod == "" || request.HTTPMethod == method
}
