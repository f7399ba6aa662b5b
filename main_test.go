package main

import (
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nutrifit/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testConfig(t *testing.T, driver string) config.Config {
	t.Helper()
	dir := t.TempDir()

	seedFile := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(
		"usuarios:\n  - nombre: Ana\n    email: ana@example.com\n    password: secreto123\n"), 0o600))

	v := viper.New()
	config.SetDefaults(v)
	v.Set("APP_PORT", "0")
	v.Set("DATABASE_DRIVER", driver)
	v.Set("DATABASE_DSN", filepath.Join(dir, "nutrifit.db"))
	v.Set("JWT_SECRET", "test_jwt_secret")
	v.Set("AUTH_REQUIRED", true)
	v.Set("SEED_FILE", seedFile)

	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestServerStartupAndHealthCheck(t *testing.T) {
	for _, driver := range []string{config.DriverSQLite, config.DriverMemory} {
		t.Run(driver, func(t *testing.T) {
			app, cleanup, err := buildApp(testConfig(t, driver))
			require.NoError(t, err)
			t.Cleanup(cleanup)

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)
			go func() { _ = app.Listener(ln) }()
			t.Cleanup(func() { _ = app.Shutdown() })

			baseURL := "http://" + ln.Addr().String()

			resp, err := http.Get(baseURL + "/health")
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, string(body), `"status":"healthy"`)

			// Plans are guarded when AUTH_REQUIRED is set.
			resp, err = http.Get(baseURL + "/api/v1/plans")
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			// The seeded user can log in.
			resp, err = http.Post(baseURL+"/api/v1/auth/login", "application/json",
				strings.NewReader(`{"email":"ana@example.com","password":"secreto123"}`))
			require.NoError(t, err)
			body, _ = io.ReadAll(resp.Body)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode, fmt.Sprintf("body: %s", body))
			assert.Contains(t, string(body), `"token"`)
		})
	}
}

func TestBuildApp_MissingSeedFile(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, cleanup, err := buildApp(cfg)
	cleanup()
	assert.Error(t, err)
}
