package lambda

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-tax-api/internal/config"
	"finance-tax-api/pkg/server"
)

func TestJSONResponse(t *testing.T) {
	resp := JSONResponse(http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.JSONEq(t, `{"status": "ok"}`, string(resp.Body))

	resp = JSONResponse(http.StatusOK, func() {})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAPIGatewayConversion(t *testing.T) {
	req := FromAPIGateway(events.APIGatewayProxyRequest{
		HTTPMethod:     "post",
		Path:           "/api/v1/tax/income",
		Body:           `{"income": 1}`,
		PathParameters: map[string]string{"country": "LK"},
	})

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, `{"income": 1}`, string(req.Body))
	assert.Equal(t, "LK", req.PathParams["country"])

	out := ToAPIGateway(&Response{StatusCode: http.StatusAccepted, Body: []byte("done")})
	assert.Equal(t, http.StatusAccepted, out.StatusCode)
	assert.Equal(t, "done", out.Body)
}

func TestRouter(t *testing.T) {
	router := NewRouter()
	router.Handle(http.MethodGet, "/api/v1/tax/countries", func(ctx context.Context, req *Request) (*Response, error) {
		return JSONResponse(http.StatusOK, "countries"), nil
	})
	router.HandlePrefix(http.MethodGet, "/api/v1/tax/info", "country", func(ctx context.Context, req *Request) (*Response, error) {
		return JSONResponse(http.StatusOK, req.PathParams["country"]), nil
	})

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{name: "exact", method: http.MethodGet, path: "/api/v1/tax/countries", expectedStatus: http.StatusOK, expectedBody: `"countries"`},
		{name: "trailing slash", method: http.MethodGet, path: "/api/v1/tax/countries/", expectedStatus: http.StatusOK, expectedBody: `"countries"`},
		{name: "prefix parameter", method: http.MethodGet, path: "/api/v1/tax/info/LK", expectedStatus: http.StatusOK, expectedBody: `"LK"`},
		{name: "prefix without parameter", method: http.MethodGet, path: "/api/v1/tax/info", expectedStatus: http.StatusNotFound},
		{name: "nested below prefix", method: http.MethodGet, path: "/api/v1/tax/info/LK/extra", expectedStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPost, path: "/api/v1/tax/countries", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := router.Serve(context.Background(), &Request{Method: tt.method, Path: tt.path})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, string(resp.Body))
			}
		})
	}
}

func TestContainerManager(t *testing.T) {
	builds := 0
	manager := NewContainerManager()
	manager.newContainer = func(cfg *config.Config) (*server.Container, error) {
		builds++
		return &server.Container{Config: cfg}, nil
	}

	cfg := &config.Config{Environment: "test"}
	require.NoError(t, manager.Initialize(cfg))
	require.NoError(t, manager.Initialize(cfg))

	first, err := manager.GetContainer(context.Background())
	require.NoError(t, err)
	second, err := manager.GetContainer(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)
	assert.True(t, manager.IsWarm(time.Minute))

	require.NoError(t, manager.Cleanup())
	assert.False(t, manager.IsWarm(time.Minute))

	// config is remembered, so the next call rebuilds without reloading it
	third, err := manager.GetContainer(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, builds)
}

func TestContainerManager_GetRouter(t *testing.T) {
	manager := NewContainerManager()
	manager.newContainer = func(cfg *config.Config) (*server.Container, error) {
		return &server.Container{Config: cfg}, nil
	}
	require.NoError(t, manager.Initialize(&config.Config{Environment: "test"}))

	registrations := 0
	register := func(router *Router, container *server.Container) {
		registrations++
		router.Handle(http.MethodGet, "/ping", func(ctx context.Context, req *Request) (*Response, error) {
			return JSONResponse(http.StatusOK, map[string]string{"status": "ok"}), nil
		})
	}

	first, container, err := manager.GetRouter(context.Background(), register)
	require.NoError(t, err)
	require.NotNil(t, container)
	second, _, err := manager.GetRouter(context.Background(), register)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, registrations)

	resp, err := second.Serve(context.Background(), &Request{Method: http.MethodGet, Path: "/ping"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// a rebuilt container gets a fresh router
	require.NoError(t, manager.Cleanup())
	third, _, err := manager.GetRouter(context.Background(), register)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, registrations)
}

func TestContainerManager_Errors(t *testing.T) {
	manager := NewContainerManager()
	manager.newContainer = func(cfg *config.Config) (*server.Container, error) {
		return nil, errors.New("boom")
	}

	err := manager.Initialize(&config.Config{})
	assert.ErrorContains(t, err, "boom")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = manager.GetContainer(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
