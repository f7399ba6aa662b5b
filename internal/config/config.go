package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers understood by database.Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the runtime configuration of the API.
type Config struct {
	AppPort        string
	DatabaseDriver string
	DatabaseDSN    string
	RabbitMQURL    string // empty disables plan events
	JWTSecret      string
	AuthRequired   bool
	SeedFile       string // empty disables seeding
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "nutrifit.db")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("SEED_FILE", "")
}

// LoadDotEnv loads the given .env files into the process environment. Missing
// files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
		log.Printf("Loaded environment from %s", f)
	}
	return nil
}

// Load reads the configuration from v, which should already have defaults and
// AutomaticEnv applied.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AuthRequired:   v.GetBool("AUTH_REQUIRED"),
		SeedFile:       v.GetString("SEED_FILE"),
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDriver != DriverMemory && cfg.DatabaseDSN == "" {
		return Config{}, fmt.Errorf("DATABASE_DSN is required for driver %s", cfg.DatabaseDriver)
	}
	if cfg.AuthRequired && cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required when AUTH_REQUIRED is set")
	}
	if cfg.AppPort != "" && !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}
	return cfg, nil
}

// FromEnv loads .env, applies defaults and environment variables and returns the
// resulting Config.
func FromEnv() (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return Load(v)
}
