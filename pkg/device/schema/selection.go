package schema

import (
	"encoding/json"
	"slices"

	"github.com/urmzd/homai-zwave/pkg/value"
)

// SelectionSchema returns the JSON Schema for a request that selects one of
// items, either {"label": ...} or {"code": ...} but not both.
func SelectionSchema(items []value.Item) json.RawMessage {
	labels := make([]string, 0, len(items))
	codes := make([]int32, 0, len(items))
	for _, item := range items {
		if !slices.Contains(labels, item.Label) {
			labels = append(labels, item.Label)
		}
		if !slices.Contains(codes, item.Code) {
			codes = append(codes, item.Code)
		}
	}

	doc, _ := json.Marshal(map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"label": map[string]any{"type": "string", "enum": labels},
			"code":  map[string]any{"type": "integer", "enum": codes},
		},
		"additionalProperties": false,
		"oneOf": []any{
			map[string]any{"required": []string{"label"}},
			map[string]any{"required": []string{"code"}},
		},
	})
	return doc
}
