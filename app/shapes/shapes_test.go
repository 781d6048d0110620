package shapes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-laravel/app/shapes"
	"github.com/km-arc/go-laravel/framework/container"
	"github.com/km-arc/go-laravel/framework/routing"
)

var want = []string{
	"rectangle[width=114, height=514]",
	"circle",
	"square",
	"square",
	"triangle",
}

func boot(t *testing.T) *container.Container {
	t.Helper()
	c := container.New()
	c.Instance("router", routing.New(zerolog.Nop()))
	reg := container.NewProviderRegistry(c)
	reg.Register(&shapes.ServiceProvider{})
	require.NoError(t, reg.Boot())
	return c
}

func TestNames_ResolutionOrder(t *testing.T) {
	got, err := shapes.Names(context.Background(), boot(t))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHandler_ServesShapesInOrder(t *testing.T) {
	c := boot(t)
	router := container.Resolve[*routing.Router](c, "router")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/shapes", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data struct {
			RequestID string   `json:"request_id"`
			Shapes    []string `json:"shapes"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, want, body.Data.Shapes)
	assert.Equal(t, rr.Header().Get("X-Request-Id"), body.Data.RequestID)
}

func TestHandler_BeforeBoot(t *testing.T) {
	c := container.New()
	(&shapes.ServiceProvider{}).Register(c)

	rr := httptest.NewRecorder()
	shapes.Handler(c).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/shapes", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestServiceProvider_RegisteredTwiceIsRejected(t *testing.T) {
	c := container.New()
	(&shapes.ServiceProvider{}).Register(c)
	(&shapes.ServiceProvider{}).Register(c)

	assert.ErrorIs(t, c.Finalize(), container.ErrDuplicateBinding)
}
