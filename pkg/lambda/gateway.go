package lambda

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// FromAPIGateway converts an API Gateway proxy event into a generic request
func FromAPIGateway(event events.APIGatewayProxyRequest) *Request {
	return &Request{
		Method:      strings.ToUpper(event.HTTPMethod),
		Path:        event.Path,
		Headers:     event.Headers,
		QueryParams: event.QueryStringParameters,
		Body:        []byte(event.Body),
		PathParams:  event.PathParameters,
	}
}

// ToAPIGateway converts a generic response into an API Gateway proxy response
func ToAPIGateway(resp *Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       string(resp.Body),
	}
}

// Router dispatches generic requests by method and path
type Router struct {
	exact    map[string]HandlerFunc
	prefixes []prefixRoute
}

type prefixRoute struct {
	method  string
	prefix  string
	param   string
	handler HandlerFunc
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{exact: make(map[string]HandlerFunc)}
}

// Handle registers a handler for an exact method and path
func (r *Router) Handle(method, path string, handler HandlerFunc) {
	r.exact[method+" "+path] = handler
}

// HandlePrefix registers a handler for every path below prefix; the remainder
// is exposed as the named path parameter
func (r *Router) HandlePrefix(method, prefix, param string, handler HandlerFunc) {
	r.prefixes = append(r.prefixes, prefixRoute{
		method:  method,
		prefix:  strings.TrimSuffix(prefix, "/") + "/",
		param:   param,
		handler: handler,
	})
}

// Serve routes the request, answering 404 for unknown routes
func (r *Router) Serve(ctx context.Context, req *Request) (*Response, error) {
	path := req.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	if handler, ok := r.exact[req.Method+" "+path]; ok {
		return handler(ctx, req)
	}

	for _, route := range r.prefixes {
		if req.Method != route.method || !strings.HasPrefix(path, route.prefix) {
			continue
		}

		value := strings.TrimPrefix(path, route.prefix)
		if value == "" || strings.Contains(value, "/") {
			continue
		}

		if req.PathParams == nil {
			req.PathParams = make(map[string]string)
		}
		if req.PathParams[route.param] == "" {
			req.PathParams[route.param] = value
		}
		return route.handler(ctx, req)
	}

	return JSONResponse(http.StatusNotFound, map[string]string{"error": "Not found"}), nil
}
