package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNodeCacheNotFound = errors.New("node cache not found")

// NodeCache is the cached value document of one node.
type NodeCache struct {
	ProfileID int64
	NodeID    uint8
	Document  string
	UpdatedAt time.Time
}

// NodeCacheStore persists per-node value documents.
type NodeCacheStore interface {
	Get(ctx context.Context, profileID int64, nodeID uint8) (*NodeCache, error)
	List(ctx context.Context, profileID int64) ([]*NodeCache, error)
	Put(ctx context.Context, c *NodeCache) error
	Delete(ctx context.Context, profileID int64, nodeID uint8) error
}

// NodeCaches returns a NodeCacheStore for this database.
func (db *DB) NodeCaches() NodeCacheStore {
	return &nodeCacheStore{db: db}
}

type nodeCacheStore struct {
	db *DB
}

func (s *nodeCacheStore) Get(ctx context.Context, profileID int64, nodeID uint8) (*NodeCache, error) {
	c := &NodeCache{}
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT profile_id, node_id, document, updated_at
		FROM node_caches WHERE profile_id = ? AND node_id = ?
	`, profileID, nodeID).Scan(&c.ProfileID, &c.NodeID, &c.Document, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNodeCacheNotFound
	}
	if err != nil {
		return nil, err
	}
	c.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return c, nil
}

func (s *nodeCacheStore) List(ctx context.Context, profileID int64) ([]*NodeCache, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_id, node_id, document, updated_at
		FROM node_caches WHERE profile_id = ? ORDER BY node_id
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var caches []*NodeCache
	for rows.Next() {
		c := &NodeCache{}
		var updatedAt string
		if err := rows.Scan(&c.ProfileID, &c.NodeID, &c.Document, &updatedAt); err != nil {
			return nil, err
		}
		c.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		caches = append(caches, c)
	}
	return caches, rows.Err()
}

// Put inserts or replaces the document for a node.
func (s *nodeCacheStore) Put(ctx context.Context, c *NodeCache) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO node_caches (profile_id, node_id, document)
		VALUES (?, ?, ?)
		ON CONFLICT (profile_id, node_id)
		DO UPDATE SET document = excluded.document, updated_at = datetime('now')
	`, c.ProfileID, c.NodeID, c.Document)
	if err != nil {
		return fmt.Errorf("failed to store node %d cache: %w", c.NodeID, err)
	}
	return nil
}

func (s *nodeCacheStore) Delete(ctx context.Context, profileID int64, nodeID uint8) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM node_caches WHERE profile_id = ? AND node_id = ?`, profileID, nodeID)
	if err != nil {
		return err
	}
	return expectRow(result, ErrNodeCacheNotFound)
}
