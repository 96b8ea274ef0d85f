package main

import (
	"coinkeeper/internal/config" // Custom import path (Config)
	"coinkeeper/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // Apply the schema to the configured database
}
