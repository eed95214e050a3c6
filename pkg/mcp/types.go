package mcp

import (
	"github.com/urmzd/homai-zwave/pkg/device"
)

// --- Health Tool ---

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status     string `json:"status" jsonschema:"description=Overall health status (healthy or unhealthy)"`
	Controller string `json:"controller" jsonschema:"description=Z-Wave controller connection status"`
	HomeID     string `json:"home_id,omitempty" jsonschema:"description=Network home ID in hex"`
	Timestamp  string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// --- List Nodes Tool ---

// ListNodesOutput is the output for the list_nodes tool
type ListNodesOutput struct {
	Nodes []device.Node `json:"nodes" jsonschema:"description=Nodes with list values"`
	Count int           `json:"count" jsonschema:"description=Total number of nodes"`
}

// --- List Values Tool ---

// ListValuesInput is the input for the list_values tool
type ListValuesInput struct {
	Node uint8 `json:"node" jsonschema:"required,description=Node ID"`
}

// ListValuesOutput is the output for the list_values tool
type ListValuesOutput struct {
	Node   uint8              `json:"node" jsonschema:"description=Node ID"`
	Values []device.ListValue `json:"values" jsonschema:"description=List values of the node"`
	Count  int                `json:"count" jsonschema:"description=Number of values"`
}

// --- Get Value Tool ---

// GetValueInput is the input for the get_value tool
type GetValueInput struct {
	ID string `json:"id" jsonschema:"required,description=Value ID (node-class-instance-index)"`
}

// GetValueOutput is the output for the get_value tool
type GetValueOutput struct {
	Value device.ListValue `json:"value" jsonschema:"description=List value"`
}

// --- Select Item Tool ---

// SelectItemInput is the input for the select_item tool
type SelectItemInput struct {
	ID    string  `json:"id" jsonschema:"required,description=Value ID (node-class-instance-index)"`
	Label *string `json:"label,omitempty" jsonschema:"description=Item label"`
	Code  *int32  `json:"code,omitempty" jsonschema:"description=Item code"`
}

// SelectItemOutput is the output for the select_item tool
type SelectItemOutput struct {
	Status string           `json:"status" jsonschema:"description=pending until the device confirms, or unchanged"`
	Value  device.ListValue `json:"value" jsonschema:"description=List value after the request"`
}

// --- Refresh Value Tool ---

// RefreshValueOutput is the output for the refresh_value tool
type RefreshValueOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the request was sent"`
	Message string `json:"message" jsonschema:"description=Human-readable result message"`
}

// --- Save Cache Tool ---

// SaveCacheOutput is the output for the save_cache tool
type SaveCacheOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the cache was saved"`
	Nodes   int    `json:"nodes" jsonschema:"description=Number of nodes saved"`
	Message string `json:"message" jsonschema:"description=Human-readable result message"`
}
