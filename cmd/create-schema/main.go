package main

import (
	"context"
	"fmt"
	"log"

	"mietrecht-backend/config"
	"mietrecht-backend/repository"
)

func main() {
	if !config.LoadDotEnv() {
		log.Println("Warning: No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("Failed to connect to %s store: %v", cfg.Store.Driver, err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	fmt.Printf("✓ Schema ready on %s store\n", cfg.Store.Driver)
	fmt.Println("  Tables: cases, users")
}
