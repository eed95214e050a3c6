package types

import (
	"time"

	"github.com/urmzd/homai-zwave/pkg/device"
)

// --- Request DTOs ---

// SelectionRequest is the request body for POST /values/:id/selection.
// Exactly one of Label or Code must be set.
type SelectionRequest struct {
	Label *string `json:"label,omitempty"`
	Code  *int32  `json:"code,omitempty"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status     string    `json:"status"`
	Controller string    `json:"controller"`
	HomeID     string    `json:"home_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListNodesResponse is returned from GET /nodes
type ListNodesResponse struct {
	Nodes []device.Node `json:"nodes"`
	Count int           `json:"count"`
}

// ListValuesResponse is returned from GET /nodes/:node/values
type ListValuesResponse struct {
	Node   uint8              `json:"node"`
	Values []device.ListValue `json:"values"`
	Count  int                `json:"count"`
}

// ValueResponse is returned from GET /values/:id
type ValueResponse struct {
	Value device.ListValue `json:"value"`
}

// SelectionResponse is returned from POST /values/:id/selection. Status is
// "pending" while the device has not confirmed the change, or "unchanged"
// when the requested item was already selected.
type SelectionResponse struct {
	Status    string           `json:"status"`
	Value     device.ListValue `json:"value"`
	Timestamp time.Time        `json:"timestamp"`
}

// RefreshResponse is returned from POST /values/:id/refresh
type RefreshResponse struct {
	Status string `json:"status"`
	Value  string `json:"value"`
}

// SaveCacheResponse is returned from POST /cache/save
type SaveCacheResponse struct {
	Status    string    `json:"status"`
	Nodes     int       `json:"nodes"`
	Timestamp time.Time `json:"timestamp"`
}
