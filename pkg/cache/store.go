package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-zwave/pkg/db"
	"github.com/urmzd/homai-zwave/pkg/value"
	"github.com/urmzd/homai-zwave/pkg/xmldoc"
)

// Store persists one Node document per node in the database.
type Store struct {
	nodes     db.NodeCacheStore
	profileID int64
}

// NewStore creates a store for the given network profile.
func NewStore(nodes db.NodeCacheStore, profileID int64) *Store {
	return &Store{nodes: nodes, profileID: profileID}
}

// SaveNode writes the current values of a node. A node without values has its
// cached document removed.
func (s *Store) SaveNode(ctx context.Context, reg *value.Registry, nodeID uint8) error {
	el := BuildNode(reg, nodeID)
	if el == nil {
		err := s.nodes.Delete(ctx, s.profileID, nodeID)
		if err != nil && !errors.Is(err, db.ErrNodeCacheNotFound) {
			return fmt.Errorf("failed to delete node %d cache: %w", nodeID, err)
		}
		return nil
	}

	var buf bytes.Buffer
	if err := xmldoc.Encode(&buf, el); err != nil {
		return fmt.Errorf("failed to encode node %d: %w", nodeID, err)
	}

	if err := s.nodes.Put(ctx, &db.NodeCache{
		ProfileID: s.profileID,
		NodeID:    nodeID,
		Document:  buf.String(),
	}); err != nil {
		return fmt.Errorf("failed to save node %d cache: %w", nodeID, err)
	}
	return nil
}

// SaveAll writes every node in the registry.
func (s *Store) SaveAll(ctx context.Context, reg *value.Registry) error {
	for _, nodeID := range reg.Nodes() {
		if err := s.SaveNode(ctx, reg, nodeID); err != nil {
			return err
		}
	}
	return nil
}

// Restore loads every cached node into the registry and returns the number of
// values added. Documents that fail to parse are logged and skipped.
func (s *Store) Restore(ctx context.Context, reg *value.Registry) (int, error) {
	caches, err := s.nodes.List(ctx, s.profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to list node caches: %w", err)
	}

	var total int
	for _, c := range caches {
		el, err := xmldoc.Parse(strings.NewReader(c.Document))
		if err != nil {
			log.Warn().Err(err).Uint8("node", c.NodeID).Msg("Skipping unreadable node cache")
			continue
		}
		n, err := LoadNode(reg, el)
		if err != nil {
			return total, fmt.Errorf("failed to load node %d: %w", c.NodeID, err)
		}
		total += n
	}

	log.Info().Int("values", total).Int("nodes", len(caches)).Msg("Restored value cache")
	return total, nil
}

// Autosave re-saves a node whenever one of its values is added, removed or
// confirmed. It blocks until ctx is cancelled.
func Autosave(ctx context.Context, reg *value.Registry, store *Store) {
	events := reg.Subscribe()
	defer reg.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			nodeID := evt.ValueID.NodeID
			if err := store.SaveNode(ctx, reg, nodeID); err != nil {
				log.Error().Err(err).Uint8("node", nodeID).Msg("Failed to save node cache")
				continue
			}
			log.Debug().Uint8("node", nodeID).Str("event", evt.Type).Msg("Node cache saved")
		}
	}
}
