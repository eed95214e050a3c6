package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/device/schema"
	"github.com/urmzd/homai-zwave/pkg/value"
)

type recordingController struct {
	device.NullController
	commits   []value.Item
	requested []value.ID
}

func (c *recordingController) Commit(v value.Value) error {
	item, _ := v.(*value.List).PendingItem()
	c.commits = append(c.commits, item)
	return nil
}

func (c *recordingController) RequestValue(_ context.Context, id value.ID) error {
	c.requested = append(c.requested, id)
	return nil
}

func (c *recordingController) HomeID() uint32 { return 0xcafe0001 }

func (c *recordingController) IsConnected() bool { return true }

var fanID = value.ID{NodeID: 5, CommandClassID: 0x44, Instance: 1}

func newTestServer(t *testing.T, controller device.Controller) (*Server, *value.Registry) {
	t.Helper()
	reg := value.NewRegistry(controller)
	items := []value.Item{{Label: "Auto Low", Code: 0}, {Label: "On Low", Code: 1}, {Label: "Auto High", Code: 2}}
	if _, err := reg.AddList(fanID, "Fan Mode", false, items, 0); err != nil {
		t.Fatalf("AddList failed: %v", err)
	}
	modeID := value.ID{NodeID: 5, CommandClassID: 0x40, Instance: 1}
	if _, err := reg.AddList(modeID, "Mode", true, []value.Item{{Label: "Off", Code: 0}}, 0); err != nil {
		t.Fatalf("AddList failed: %v", err)
	}
	return NewServer(reg, controller, schema.NewValidator(), nil), reg
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestGetHealth(t *testing.T) {
	s, _ := newTestServer(t, &recordingController{})
	text, isErr := call(t, s.handleGetHealth, nil)
	if isErr {
		t.Fatalf("unexpected error: %s", text)
	}

	var out GetHealthOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if out.Status != "healthy" || out.HomeID != "0xcafe0001" {
		t.Errorf("unexpected health %+v", out)
	}

	s, _ = newTestServer(t, device.NewNullController())
	text, _ = call(t, s.handleGetHealth, nil)
	if !strings.Contains(text, `"unhealthy"`) {
		t.Errorf("expected unhealthy with null controller, got %s", text)
	}
}

func TestListNodesAndValues(t *testing.T) {
	s, _ := newTestServer(t, &recordingController{})

	text, _ := call(t, s.handleListNodes, nil)
	var nodes ListNodesOutput
	if err := json.Unmarshal([]byte(text), &nodes); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if nodes.Count != 1 || nodes.Nodes[0].Values != 2 {
		t.Errorf("unexpected nodes %+v", nodes)
	}

	text, isErr := call(t, s.handleListValues, map[string]any{"node": float64(5)})
	if isErr {
		t.Fatalf("unexpected error: %s", text)
	}
	var values ListValuesOutput
	if err := json.Unmarshal([]byte(text), &values); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if values.Count != 2 {
		t.Errorf("expected 2 values, got %d", values.Count)
	}

	if _, isErr := call(t, s.handleListValues, map[string]any{"node": float64(7)}); !isErr {
		t.Error("expected error for node without values")
	}
	if _, isErr := call(t, s.handleListValues, map[string]any{"node": float64(700)}); !isErr {
		t.Error("expected error for out of range node")
	}
}

func TestGetValue(t *testing.T) {
	s, _ := newTestServer(t, &recordingController{})

	text, isErr := call(t, s.handleGetValue, map[string]any{"id": "5-68-1-0"})
	if isErr {
		t.Fatalf("unexpected error: %s", text)
	}
	var out GetValueOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if out.Value.Label != "Fan Mode" || out.Value.Selected == nil || out.Value.Selected.Label != "Auto Low" {
		t.Errorf("unexpected value %+v", out.Value)
	}

	for _, args := range []map[string]any{{}, {"id": "bogus"}, {"id": "5-99-1-0"}} {
		if _, isErr := call(t, s.handleGetValue, args); !isErr {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestSelectItem(t *testing.T) {
	c := &recordingController{}
	s, reg := newTestServer(t, c)

	text, isErr := call(t, s.handleSelectItem, map[string]any{"id": "5-68-1-0", "label": "On Low"})
	if isErr {
		t.Fatalf("unexpected error: %s", text)
	}
	var out SelectItemOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if out.Status != "pending" || out.Value.Pending != 1 {
		t.Errorf("unexpected selection %+v", out)
	}
	if len(c.commits) != 1 || c.commits[0].Code != 1 {
		t.Errorf("expected On Low committed, got %+v", c.commits)
	}

	if err := reg.ConfirmCode(fanID, 1); err != nil {
		t.Fatalf("ConfirmCode failed: %v", err)
	}

	text, _ = call(t, s.handleSelectItem, map[string]any{"id": "5-68-1-0", "code": float64(1)})
	if !strings.Contains(text, `"unchanged"`) {
		t.Errorf("expected unchanged, got %s", text)
	}
	if len(c.commits) != 1 {
		t.Errorf("expected no further commits, got %d", len(c.commits))
	}

	tests := []struct {
		name string
		args map[string]any
	}{
		{"unknown label", map[string]any{"id": "5-68-1-0", "label": "Turbo"}},
		{"unknown code", map[string]any{"id": "5-68-1-0", "code": float64(9)}},
		{"fractional code", map[string]any{"id": "5-68-1-0", "code": 1.5}},
		{"both", map[string]any{"id": "5-68-1-0", "label": "On Low", "code": float64(1)}},
		{"neither", map[string]any{"id": "5-68-1-0"}},
		{"read only", map[string]any{"id": "5-64-1-0", "label": "Off"}},
		{"unknown value", map[string]any{"id": "9-68-1-0", "label": "On Low"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if text, isErr := call(t, s.handleSelectItem, tt.args); !isErr {
				t.Errorf("expected error, got %s", text)
			}
		})
	}
}

func TestSelectItem_Disconnected(t *testing.T) {
	s, reg := newTestServer(t, device.NewNullController())

	text, isErr := call(t, s.handleSelectItem, map[string]any{"id": "5-68-1-0", "label": "Auto High"})
	if !isErr || !strings.Contains(text, "not connected") {
		t.Errorf("expected not connected error, got %s", text)
	}

	st, _ := reg.State(fanID)
	if st.Index != 0 {
		t.Errorf("expected confirmed index 0, got %d", st.Index)
	}
}

func TestRefreshValue(t *testing.T) {
	c := &recordingController{}
	s, _ := newTestServer(t, c)

	if text, isErr := call(t, s.handleRefreshValue, map[string]any{"id": "5-68-1-0"}); isErr {
		t.Fatalf("unexpected error: %s", text)
	}
	if len(c.requested) != 1 || c.requested[0] != fanID {
		t.Errorf("expected refresh of %s, got %v", fanID, c.requested)
	}

	if _, isErr := call(t, s.handleRefreshValue, map[string]any{"id": "5-1-1-0"}); !isErr {
		t.Error("expected error for unknown value")
	}

	s, _ = newTestServer(t, device.NewNullController())
	if text, isErr := call(t, s.handleRefreshValue, map[string]any{"id": "5-68-1-0"}); !isErr || !strings.Contains(text, "not connected") {
		t.Errorf("expected not connected error, got %s", text)
	}
}

func TestSaveCache_NoStore(t *testing.T) {
	s, _ := newTestServer(t, &recordingController{})
	if _, isErr := call(t, s.handleSaveCache, nil); !isErr {
		t.Error("expected error without a store")
	}
}
