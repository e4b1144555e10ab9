package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"statusboard/internal/config"
	"statusboard/internal/repository"
	"statusboard/internal/seed"
	"statusboard/internal/service/statuspage"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed status pages")
	clearData := flag.Bool("clear-data", false, "Delete all status pages (keep schema)")
	fixturePath := flag.String("file", "", "YAML fixture to load instead of the built-in sample pages")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s, driver: %s)", cfg.Environment, cfg.DatabaseDriver)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, driver: %s)", cfg.Environment, cfg.DatabaseDriver)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, driver: %s)", cfg.Environment, cfg.DatabaseDriver)
	}

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := store.DropAll(ctx); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		if err := store.Clear(ctx); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	fixture, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}

	layoutService := statuspage.NewLayoutService(store.StatusPages, store.TxManager, cfg.IndentationWidth, logger)
	res := seed.NewSeeder(layoutService, logger).Seed(ctx, fixture)

	log.Printf("🎉 Seeding complete! created=%d skipped=%d failed=%d", res.Created, res.Skipped, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}

func loadFixture(path string) (*seed.Fixture, error) {
	if path == "" {
		return seed.DefaultFixture()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.LoadFixture(f)
}
