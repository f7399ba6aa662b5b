package server_test

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"nutrifit/internal/repositories"
	"nutrifit/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newApp(health func() error) *fiber.App {
	users, plans := repositories.NewMemoryRepositories()
	return server.New(server.Options{
		Users:             users,
		Plans:             plans,
		JWTSecret:         "test_jwt_secret",
		HealthCheck:       health,
		DisableRequestLog: true,
	})
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	resp, err := newApp(nil).Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", decode(t, resp)["database"])

	down := func() error { return errors.New("connection refused") }
	resp, err = newApp(down).Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "down", decode(t, resp)["database"])
}

func TestRoutesAndMiddleware(t *testing.T) {
	app := newApp(nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/plans/7", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Plan con id 7 no encontrado.", decode(t, resp)["error"])

	resp, err = app.Test(httptest.NewRequest(http.MethodPatch, "/api/v1/plans/7", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.NotEmpty(t, decode(t, resp)["error"])
}
