package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

var (
	ErrAPIServerNotFound = errors.New("api server config not found")
	ErrInvalidAPIServer  = errors.New("invalid api server config")
)

// APIServer is the listen address of the REST API for one profile.
type APIServer struct {
	ID        int64
	ProfileID int64
	Host      string
	Port      int
	CreatedAt time.Time
}

// Address returns the API server listen address (host:port).
func (a *APIServer) Address() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Validate checks that the address can be listened on.
func (a *APIServer) Validate() error {
	if a.Host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidAPIServer)
	}
	if a.Port <= 0 || a.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidAPIServer, a.Port)
	}
	return nil
}

// ParseAPIServer builds the config of profileID from a host:port address.
func ParseAPIServer(profileID int64, address string) (*APIServer, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIServer, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("%w: port %q", ErrInvalidAPIServer, port)
	}
	a := &APIServer{ProfileID: profileID, Host: host, Port: p}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// APIServerStore keeps one listen address per profile.
type APIServerStore interface {
	Get(ctx context.Context, profileID int64) (*APIServer, error)
	Put(ctx context.Context, a *APIServer) error
	Delete(ctx context.Context, profileID int64) error
}

// APIServers returns an APIServerStore for this database.
func (db *DB) APIServers() APIServerStore {
	return &apiServerStore{db: db}
}

type apiServerStore struct {
	db *DB
}

func (s *apiServerStore) Get(ctx context.Context, profileID int64) (*APIServer, error) {
	a := &APIServer{}
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, host, port, created_at
		FROM api_servers WHERE profile_id = ?
	`, profileID).Scan(&a.ID, &a.ProfileID, &a.Host, &a.Port, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrAPIServerNotFound
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	return a, nil
}

// Put stores the address of a.ProfileID, replacing any previous one, and
// fills in a.ID.
func (s *apiServerStore) Put(ctx context.Context, a *APIServer) error {
	if err := a.Validate(); err != nil {
		return err
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO api_servers (profile_id, host, port)
		VALUES (?, ?, ?)
		ON CONFLICT (profile_id) DO UPDATE SET host = excluded.host, port = excluded.port
		RETURNING id
	`, a.ProfileID, a.Host, a.Port).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to save API server config: %w", err)
	}
	return nil
}

func (s *apiServerStore) Delete(ctx context.Context, profileID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_servers WHERE profile_id = ?`, profileID)
	if err != nil {
		return err
	}
	return expectRow(result, ErrAPIServerNotFound)
}
