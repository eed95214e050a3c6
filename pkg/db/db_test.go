package db

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return database
}

func TestMigrate_Idempotent(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	version, err := database.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestBootstrap_ActiveConfig(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	needs, err := database.NeedsBootstrap(ctx)
	if err != nil || !needs {
		t.Fatalf("expected fresh database to need bootstrap (err=%v)", err)
	}

	if err := database.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if err := database.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap failed: %v", err)
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		t.Fatalf("ActiveConfig failed: %v", err)
	}
	if cfg.Profile.Name != "default" {
		t.Errorf("expected default profile, got %q", cfg.Profile.Name)
	}
	if cfg.SerialPort() == "" {
		t.Error("expected a default serial port")
	}
	if cfg.APIAddress() != "0.0.0.0:8080" {
		t.Errorf("expected 0.0.0.0:8080, got %s", cfg.APIAddress())
	}
	if cfg.ProfileID() != cfg.Profile.ID {
		t.Errorf("expected profile id %d, got %d", cfg.Profile.ID, cfg.ProfileID())
	}
}

func TestAPIServers_Put(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	p := &Profile{Name: "home", Timezone: "UTC", IsActive: true}
	if err := database.Profiles().Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store := database.APIServers()

	if _, err := store.Get(ctx, p.ID); !errors.Is(err, ErrAPIServerNotFound) {
		t.Fatalf("expected ErrAPIServerNotFound, got %v", err)
	}

	a := &APIServer{ProfileID: p.ID, Host: "127.0.0.1", Port: 9000}
	if err := store.Put(ctx, a); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	first := a.ID

	a = &APIServer{ProfileID: p.ID, Host: "::1", Port: 9001}
	if err := store.Put(ctx, a); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	if a.ID != first {
		t.Errorf("expected Put to update row %d, got %d", first, a.ID)
	}

	got, err := store.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Address() != "[::1]:9001" {
		t.Errorf("expected [::1]:9001, got %s", got.Address())
	}

	for _, bad := range []*APIServer{
		{ProfileID: p.ID, Host: "", Port: 80},
		{ProfileID: p.ID, Host: "localhost", Port: 0},
		{ProfileID: p.ID, Host: "localhost", Port: 70000},
	} {
		if err := store.Put(ctx, bad); !errors.Is(err, ErrInvalidAPIServer) {
			t.Errorf("expected ErrInvalidAPIServer for %+v, got %v", bad, err)
		}
	}

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, p.ID); !errors.Is(err, ErrAPIServerNotFound) {
		t.Errorf("expected ErrAPIServerNotFound, got %v", err)
	}
}

func TestSetAPIAddress(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	if err := database.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		t.Fatalf("ActiveConfig failed: %v", err)
	}
	if err := database.SetAPIAddress(ctx, cfg, "localhost:8181"); err != nil {
		t.Fatalf("SetAPIAddress failed: %v", err)
	}
	if cfg.APIAddress() != "localhost:8181" {
		t.Errorf("expected localhost:8181, got %s", cfg.APIAddress())
	}

	reloaded, err := database.ActiveConfig(ctx)
	if err != nil {
		t.Fatalf("ActiveConfig failed: %v", err)
	}
	if reloaded.APIAddress() != "localhost:8181" {
		t.Errorf("expected saved address, got %s", reloaded.APIAddress())
	}

	for _, bad := range []string{"localhost", "localhost:http", ":8080", "localhost:0"} {
		if err := database.SetAPIAddress(ctx, cfg, bad); !errors.Is(err, ErrInvalidAPIServer) {
			t.Errorf("expected ErrInvalidAPIServer for %q, got %v", bad, err)
		}
	}
	if err := database.SetAPIAddress(ctx, &Config{}, "localhost:1"); !errors.Is(err, ErrNoActiveProfile) {
		t.Errorf("expected ErrNoActiveProfile, got %v", err)
	}
}

func TestConfig_MarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{
		Profile:   &Profile{Name: "home", Timezone: "Europe/Oslo", SerialPort: "/dev/ttyACM0"},
		APIServer: &APIServer{Host: "0.0.0.0", Port: 8080},
	}
	zerolog.New(&buf).Info().Object("config", cfg).Send()

	for _, want := range []string{`"profile":"home"`, `"timezone":"Europe/Oslo"`, `"serial_port":"/dev/ttyACM0"`, `"api_address":"0.0.0.0:8080"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %s in %s", want, buf.String())
		}
	}
}

func TestActiveConfig_NoProfile(t *testing.T) {
	database := openTestDB(t)
	if _, err := database.ActiveConfig(context.Background()); !errors.Is(err, ErrNoActiveProfile) {
		t.Errorf("expected ErrNoActiveProfile, got %v", err)
	}
}

func TestProfiles_SetActive(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	store := database.Profiles()

	home := &Profile{Name: "home", Timezone: "UTC", SerialPort: "/dev/ttyACM0", IsActive: true}
	cabin := &Profile{Name: "cabin", Timezone: "Europe/Oslo", SerialPort: "/dev/ttyUSB1"}
	for _, p := range []*Profile{home, cabin} {
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	if err := store.SetActive(ctx, cabin.ID); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	active, err := store.GetActive(ctx)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if active.Name != "cabin" || active.SerialPort != "/dev/ttyUSB1" {
		t.Errorf("unexpected active profile %+v", active)
	}

	if err := store.SetActive(ctx, 999); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}

	profiles, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(profiles) != 2 || profiles[0].Name != "cabin" {
		t.Errorf("expected profiles ordered by name, got %d", len(profiles))
	}
}

func TestNodeCaches(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	p := &Profile{Name: "home", Timezone: "UTC"}
	if err := database.Profiles().Create(ctx, p); err != nil {
		t.Fatalf("Create profile failed: %v", err)
	}

	store := database.NodeCaches()
	if _, err := store.Get(ctx, p.ID, 5); !errors.Is(err, ErrNodeCacheNotFound) {
		t.Errorf("expected ErrNodeCacheNotFound, got %v", err)
	}

	if err := store.Put(ctx, &NodeCache{ProfileID: p.ID, NodeID: 5, Document: "<Node/>"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, &NodeCache{ProfileID: p.ID, NodeID: 5, Document: `<Node id="5"/>`}); err != nil {
		t.Fatalf("Put replace failed: %v", err)
	}
	if err := store.Put(ctx, &NodeCache{ProfileID: p.ID, NodeID: 2, Document: "<Node/>"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, p.ID, 5)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Document != `<Node id="5"/>` {
		t.Errorf("expected replaced document, got %q", got.Document)
	}

	all, err := store.List(ctx, p.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 || all[0].NodeID != 2 {
		t.Errorf("expected 2 caches ordered by node, got %+v", all)
	}

	if err := store.Delete(ctx, p.ID, 5); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, p.ID, 5); !errors.Is(err, ErrNodeCacheNotFound) {
		t.Errorf("expected ErrNodeCacheNotFound, got %v", err)
	}
}

func TestOpen_Memory(t *testing.T) {
	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = database.Close() }()

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
}
