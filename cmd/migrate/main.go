package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/matricula/matricula/internal/config"
	"github.com/matricula/matricula/internal/database"
	"github.com/matricula/matricula/internal/logger"
	"github.com/matricula/matricula/internal/repository"
)

func main() {
	var migrationDir string
	flag.StringVar(&migrationDir, "path", "migrations", "Path to migration files")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return
	}
	command := args[0]

	// SQLite has no versioned migrations; its schema comes from the gorm models.
	if cfg.DatabaseDriver == config.DriverSQLite {
		if command != "up" {
			log.Fatal().Str("command", command).Msg("Only `up` is supported with DATABASE_DRIVER=sqlite")
		}
		db, err := database.NewSQLite(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open SQLite")
		}
		if err := repository.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("AutoMigrate failed")
		}
		fmt.Println("Migrated up successfully")
		return
	}

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+migrationDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed to initialize")
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("Up failed")
		}
		fmt.Println("Migrated up successfully")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("Down failed")
		}
		fmt.Println("Migrated down successfully")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal().Err(err).Msg("Version failed")
		}
		fmt.Printf("Version: %d, Dirty: %t\n", version, dirty)
	case "force":
		if len(args) < 2 {
			log.Fatal().Msg("force requires version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid version")
		}
		if err := m.Force(v); err != nil {
			log.Fatal().Err(err).Msg("Force failed")
		}
		fmt.Printf("Forced version to %d\n", v)
	case "status":
		// Quick connectivity check for deploy scripts.
		backend, err := database.Open(context.Background(), cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Database unreachable")
		}
		backend.Close()
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatal().Err(err).Msg("Version failed")
		}
		fmt.Printf("Reachable. Version: %d, Dirty: %t\n", version, dirty)
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Usage: migrate [flags] <command>")
	fmt.Println("Commands: up, down, version, force <version>, status")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
