package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"nutrifit/internal/config"
	"nutrifit/internal/database"
	"nutrifit/internal/repositories"
	"nutrifit/internal/seed"
	"nutrifit/internal/server"
	"nutrifit/internal/services"
	"nutrifit/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
)

func main() {
	// --- Configuration ---
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	app, cleanup, err := buildApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer cleanup()

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// buildApp opens the store, the optional event broker and the seed file, and
// assembles the fiber app. cleanup releases what was opened.
func buildApp(cfg config.Config) (*fiber.App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	opts := server.Options{
		JWTSecret:    cfg.JWTSecret,
		AuthRequired: cfg.AuthRequired,
	}

	// --- Initialize Repositories ---
	if cfg.DatabaseDriver == config.DriverMemory {
		log.Println("Using the in-memory store; data is lost on exit")
		opts.Users, opts.Plans = repositories.NewMemoryRepositories()
	} else {
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() {
			if err := database.Close(db); err != nil {
				log.Printf("Error closing database: %v", err)
			}
		})
		opts.Users = repositories.NewGORMUserRepository(db)
		opts.Plans = repositories.NewGORMPlanRepository(db)
		opts.HealthCheck = func() error { return database.Ping(db) }
	}

	// --- Initialize RabbitMQ Client ---
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			// Plan writes do not depend on the broker.
			log.Printf("Warning: RabbitMQ unavailable, plan events disabled: %v", err)
		} else {
			closers = append(closers, func() { _ = mqClient.Close() })
			opts.Events = mqClient

			// Audit consumer: logs every plan event.
			go func() {
				log.Println("Starting RabbitMQ consumer for plan events...")
				if err := mqClient.ConsumePlanEvents(rabbitmq.LogPlanEvent); err != nil {
					log.Printf("Failed to start RabbitMQ consumer: %v", err)
				}
			}()
		}
	}

	// --- Seed users ---
	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return nil, cleanup, err
		}
		n, err := seed.Apply(services.NewAuthService(opts.Users, cfg.JWTSecret), f)
		if err != nil {
			return nil, cleanup, err
		}
		log.Printf("Seeded %d users from %s", n, cfg.SeedFile)
	}

	return server.New(opts), cleanup, nil
}
