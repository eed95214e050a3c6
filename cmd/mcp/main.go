package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-zwave/pkg/cache"
	"github.com/urmzd/homai-zwave/pkg/db"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/device/schema"
	homaimcp "github.com/urmzd/homai-zwave/pkg/mcp"
	"github.com/urmzd/homai-zwave/pkg/value"
	"github.com/urmzd/homai-zwave/pkg/zwave"
)

func main() {
	// Logging must go to stderr, stdout is the MCP transport
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/homai/zwave.db)")
	serialPort := flag.String("port", "", "Path to Z-Wave serial port (default: serve cached values only)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database
	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	log.Info().Str("path", database.Path()).Msg("Database opened")

	// Run migrations
	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Bootstrap if needed (first run)
	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check bootstrap status")
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := database.Bootstrap(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to bootstrap database")
		}
		log.Info().Msg("Database bootstrapped successfully")
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	registry := value.NewRegistry(nil)
	store := cache.NewStore(database.NodeCaches(), cfg.ProfileID())
	restored, err := store.Restore(ctx, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to restore value cache")
	}
	log.Info().Int("values", restored).Msg("Value cache restored")

	// The stick is usually owned by the API server, so only open it on request
	var controller device.Controller = device.NewNullController()
	if *serialPort != "" {
		zwController, err := zwave.NewController(*serialPort, registry)
		if err != nil {
			log.Warn().Err(err).Str("port", *serialPort).Msg("Z-Wave controller unavailable, using null controller")
		} else {
			controller = zwController
			go cache.Autosave(ctx, registry, store)
		}
	}
	defer controller.Close()
	registry.SetCommitter(controller)

	mcpServer := homaimcp.NewServer(registry, controller, schema.NewValidator(), store)

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
