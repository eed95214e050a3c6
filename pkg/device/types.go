package device

import (
	"encoding/json"

	"github.com/urmzd/homai-zwave/pkg/device/schema"
	"github.com/urmzd/homai-zwave/pkg/value"
)

// Node summarizes a device node known to the value registry
type Node struct {
	ID       uint8  `json:"id"`       // Node ID on the Z-Wave network
	Protocol string `json:"protocol"` // Protocol (always zwave here)
	Values   int    `json:"values"`   // Number of list values on the node
}

// ListValue is a list value as exposed to API and MCP clients.
type ListValue struct {
	ID string `json:"id"` // Value ID, node-class-instance-index
	value.ListState
	SelectionSchema json.RawMessage `json:"selection_schema,omitempty"` // JSON Schema for selection requests
}

// NewListValue wraps a list snapshot. Read-only values carry no selection
// schema.
func NewListValue(s value.ListState) ListValue {
	lv := ListValue{ID: s.ID.String(), ListState: s}
	if !s.ReadOnly {
		lv.SelectionSchema = schema.SelectionSchema(s.Items)
	}
	return lv
}

// Protocol constants
const (
	ProtocolZWave = "zwave"
)
