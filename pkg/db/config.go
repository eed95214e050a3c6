package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// DefaultAPIAddress is used when the active profile has no API server row.
const DefaultAPIAddress = "0.0.0.0:8080"

// Config is the runtime configuration of the active network profile.
type Config struct {
	Profile   *Profile
	APIServer *APIServer
}

// APIAddress returns the API server listen address.
func (c *Config) APIAddress() string {
	if c.APIServer == nil {
		return DefaultAPIAddress
	}
	return c.APIServer.Address()
}

// ProfileID returns the active profile ID, or 0 when none is loaded.
func (c *Config) ProfileID() int64 {
	if c.Profile == nil {
		return 0
	}
	return c.Profile.ID
}

// SerialPort returns the configured Z-Wave controller device path.
func (c *Config) SerialPort() string {
	if c.Profile == nil {
		return ""
	}
	return c.Profile.SerialPort
}

// Timezone returns the profile timezone.
func (c *Config) Timezone() string {
	if c.Profile == nil {
		return "UTC"
	}
	return c.Profile.Timezone
}

// MarshalZerologObject logs the configuration as a nested object.
func (c *Config) MarshalZerologObject(e *zerolog.Event) {
	if c.Profile != nil {
		e.Str("profile", c.Profile.Name)
	}
	e.Str("timezone", c.Timezone()).
		Str("serial_port", c.SerialPort()).
		Str("api_address", c.APIAddress())
}

// SetAPIAddress validates and stores a new listen address for the active
// profile.
func (db *DB) SetAPIAddress(ctx context.Context, c *Config, address string) error {
	if c.Profile == nil {
		return ErrNoActiveProfile
	}
	a, err := ParseAPIServer(c.Profile.ID, address)
	if err != nil {
		return err
	}
	if err := db.APIServers().Put(ctx, a); err != nil {
		return err
	}
	c.APIServer = a
	return nil
}

// ActiveConfig loads the complete configuration for the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	config := &Config{
		Profile: profile,
	}

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}
	config.APIServer = apiServer

	return config, nil
}
