// Command migrate runs schema operations for the backend. Non-production
// environments auto-migrate on boot; production runs this explicitly during
// deploys.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"liberty/internal/config"
	"liberty/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <auto|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "auto":
		if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
			return fmt.Errorf("automigration failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		migrator := db.Migrator()
		for _, model := range database.PersistentModels() {
			fmt.Printf("%-40T present=%v\n", model, migrator.HasTable(model))
		}
	default:
		return usage()
	}

	return nil
}
