package client_test

import (
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"testing"

	"nutrifit/internal/models"
	"nutrifit/internal/repositories"
	"nutrifit/internal/server"
	"nutrifit/internal/services"
	"nutrifit/internal/validation"
	"nutrifit/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// startServer serves the API over a real listener backed by the in-memory store.
func startServer(t *testing.T, authRequired bool) (string, repositories.UserRepository) {
	t.Helper()
	log.SetOutput(io.Discard)

	users, plans := repositories.NewMemoryRepositories()
	app := server.New(server.Options{
		Users:             users,
		Plans:             plans,
		JWTSecret:         "test_jwt_secret",
		AuthRequired:      authRequired,
		DisableRequestLog: true,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String(), users
}

func TestClient_PlanCRUD(t *testing.T) {
	baseURL, users := startServer(t, false)
	user := &models.User{Name: "Ana", Email: "ana@example.com", Password: "x"}
	require.NoError(t, users.Create(user))

	c := client.New(baseURL)

	plans, err := c.ListPlans()
	require.NoError(t, err)
	assert.Empty(t, plans)

	userID := int64(user.ID)
	created, err := c.CreatePlan(&validation.CreatePlanRequest{
		Name:      "Plan A",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
		UserID:    &userID,
		Meals: []validation.MealRequest{
			{Type: "desayuno", Time: strPtr("08:00"), Description: "Avena"},
			{Type: "snack", Description: "Fruta"},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	require.Len(t, created.Meals, 2)
	assert.Equal(t, "Fruta", created.Meals[1].Description)

	fetched, err := c.GetPlan(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plan A", fetched.Name)
	assert.Equal(t, "ana@example.com", fetched.User.Email)

	updated, err := c.UpdatePlan(created.ID, &validation.UpdatePlanRequest{
		Name:        strPtr("Plan B"),
		Description: validation.OptionalString{Set: true, Value: strPtr("Mantenimiento")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Plan B", updated.Name)
	assert.Equal(t, "Mantenimiento", *updated.Description)
	assert.Equal(t, "2024-01-31", updated.EndDate.String())

	byUser, err := c.ListPlansForUser(user.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	require.NoError(t, c.DeletePlan(created.ID))

	_, err = c.GetPlan(created.ID)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Plan con id 1 no encontrado.", apiErr.Message)
}

func TestClient_ErrorsCarryServerMessage(t *testing.T) {
	baseURL, _ := startServer(t, false)
	c := client.New(baseURL)

	unknown := int64(999)
	_, err := c.CreatePlan(&validation.CreatePlanRequest{
		Name:      "Plan A",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
		UserID:    &unknown,
	})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Usuario con id 999 no encontrado.", apiErr.Message)

	_, err = c.ListPlansForUser(999)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_Login(t *testing.T) {
	baseURL, users := startServer(t, true)
	auth := services.NewAuthService(users, "test_jwt_secret")
	require.NoError(t, auth.RegisterUser(&models.User{Name: "Ana", Email: "ana@example.com", Password: "secreto123"}))

	c := client.New(baseURL)

	_, err := c.ListPlans()
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	_, err = c.Login("ana@example.com", "wrong")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Credenciales inválidas.", apiErr.Message)

	token, err := c.Login("ana@example.com", "secreto123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	plans, err := c.ListPlans()
	require.NoError(t, err)
	assert.Empty(t, plans)
}
