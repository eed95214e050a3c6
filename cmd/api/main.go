package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-zwave/pkg/api"
	"github.com/urmzd/homai-zwave/pkg/cache"
	"github.com/urmzd/homai-zwave/pkg/db"
	"github.com/urmzd/homai-zwave/pkg/definitions"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/device/schema"
	"github.com/urmzd/homai-zwave/pkg/value"
	"github.com/urmzd/homai-zwave/pkg/zwave"

	_ "github.com/urmzd/homai-zwave/docs"
)

// @title           Homai Z-Wave API
// @version         1.0
// @description     REST API for selecting Z-Wave list values and watching device confirmations

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

func main() {
	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/homai/zwave.db)")
	serialPort := flag.String("port", "", "Path to Z-Wave serial port (default: the active profile's port)")
	cacheFile := flag.String("cache", "", "Network XML cache to import on startup")
	defsFile := flag.String("definitions", "", "YAML value definitions to apply on startup")
	defsNode := flag.Uint("node", 0, "Node ID the value definitions apply to")
	listen := flag.String("listen", "", "API listen address (host:port) to save in the active profile")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// Load configuration
	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if *listen != "" {
		if err := database.SetAPIAddress(ctx, cfg, *listen); err != nil {
			log.Fatal().Err(err).Str("address", *listen).Msg("Failed to save API address")
		}
	}

	port := cfg.SerialPort()
	if *serialPort != "" {
		port = *serialPort
	}

	log.Info().Object("config", cfg).Str("port", port).Msg("Configuration loaded")

	// Restore values before the controller starts delivering reports
	registry := value.NewRegistry(nil)
	store := cache.NewStore(database.NodeCaches(), cfg.ProfileID())

	restored, err := store.Restore(ctx, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to restore value cache")
	}
	log.Info().Int("values", restored).Msg("Value cache restored")

	if *cacheFile != "" {
		importCache(registry, *cacheFile)
	}
	var sizes map[value.ID]uint8
	if *defsFile != "" {
		if *defsNode == 0 || *defsNode > 232 {
			log.Fatal().Uint("node", *defsNode).Msg("-node must be between 1 and 232 with -definitions")
		}
		sizes = applyDefinitions(registry, *defsFile, uint8(*defsNode))
	}

	// Try to connect to the Z-Wave stick; fall back to NullController
	var controller device.Controller
	zwController, err := zwave.NewController(port, registry)
	if err != nil {
		log.Warn().Err(err).Str("port", port).Msg("Z-Wave controller unavailable, using null controller")
		controller = device.NewNullController()
	} else {
		controller = zwController
		for id, size := range sizes {
			if err := zwController.SetParameterSize(id, size); err != nil {
				log.Warn().Err(err).Str("value", id.String()).Msg("Parameter size not applied")
			}
		}
	}
	defer controller.Close()
	registry.SetCommitter(controller)

	go cache.Autosave(ctx, registry, store)

	router := api.NewRouter(registry, controller, schema.NewValidator(), store)

	addr := cfg.APIAddress()
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("address", addr).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down server")
	}
	if err := store.SaveAll(shutdownCtx, registry); err != nil {
		log.Error().Err(err).Msg("Failed to save value cache")
	}
}

func importCache(registry *value.Registry, path string) {
	root, err := cache.LoadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read cache file")
	}
	n, err := cache.Load(registry, root)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to import cache file")
	}
	log.Info().Str("path", path).Int("values", n).Msg("Cache file imported")
}

// applyDefinitions registers the defined values and returns the
// configuration parameter sizes they declare.
func applyDefinitions(registry *value.Registry, path string, nodeID uint8) map[value.ID]uint8 {
	def, err := definitions.LoadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to load value definitions")
	}
	if _, err := def.Apply(registry, nodeID); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to apply value definitions")
	}
	return def.ParameterSizes(nodeID)
}
