package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/value"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	controllerStatus := "disconnected"
	if s.controller.IsConnected() {
		controllerStatus = "connected"
	}

	status := "healthy"
	if controllerStatus != "connected" {
		status = "unhealthy"
	}

	out := GetHealthOutput{
		Status:     status,
		Controller: controllerStatus,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if homeID := s.controller.HomeID(); homeID != 0 {
		out.HomeID = fmt.Sprintf("0x%08x", homeID)
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := s.registry.Nodes()
	nodes := make([]device.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, device.Node{
			ID:       id,
			Protocol: device.ProtocolZWave,
			Values:   len(s.registry.Values(id)),
		})
	}

	out := ListNodesOutput{
		Nodes: nodes,
		Count: len(nodes),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListValues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in ListValuesInput
	if err := bindArguments(request, &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}

	states := s.registry.Values(in.Node)
	if len(states) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("node %d has no list values", in.Node)), nil
	}

	values := make([]device.ListValue, 0, len(states))
	for _, st := range states {
		values = append(values, device.NewListValue(st))
	}

	out := ListValuesOutput{
		Node:   in.Node,
		Values: values,
		Count:  len(values),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetValue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredValueID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st, err := s.registry.State(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get value: %s", err)), nil
	}

	out := GetValueOutput{Value: device.NewListValue(st)}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSelectItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in SelectItemInput
	if err := bindArguments(request, &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %s", err)), nil
	}
	id, err := value.ParseID(in.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid value id: %s", err)), nil
	}

	st, err := s.registry.State(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get value: %s", err)), nil
	}
	if st.ReadOnly {
		return mcp.NewToolResultError(fmt.Sprintf("value %s is read-only", id)), nil
	}

	// Validate against the value's items
	payload := map[string]any{}
	if in.Label != nil {
		payload["label"] = *in.Label
	}
	if in.Code != nil {
		payload["code"] = json.Number(strconv.FormatInt(int64(*in.Code), 10))
	}
	if s.validator != nil {
		if err := s.validator.ValidateSelection(st.Items, payload); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("validation error: %s", err)), nil
		}
	}

	var committed bool
	if in.Label != nil {
		committed, err = s.registry.SelectByLabel(id, *in.Label)
	} else if in.Code != nil {
		committed, err = s.registry.SelectByCode(id, *in.Code)
	} else {
		return mcp.NewToolResultError("one of label or code is required"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to select item: %s", err)), nil
	}

	status := "pending"
	if !committed {
		status = "unchanged"
	}

	if st, err = s.registry.State(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get value: %s", err)), nil
	}

	out := SelectItemOutput{
		Status: status,
		Value:  device.NewListValue(st),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleRefreshValue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredValueID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.registry.Has(id) {
		return mcp.NewToolResultError(fmt.Sprintf("failed to refresh value: %s", value.ErrValueNotFound)), nil
	}

	if err := s.controller.RequestValue(ctx, id); err != nil {
		if errors.Is(err, device.ErrNotConnected) {
			return mcp.NewToolResultError("failed to refresh value: controller is not connected"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to refresh value: %s", err)), nil
	}

	out := RefreshValueOutput{
		Success: true,
		Message: fmt.Sprintf("Report requested for value %s", id),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSaveCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("no cache store configured"), nil
	}

	if err := s.store.SaveAll(ctx, s.registry); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save cache: %s", err)), nil
	}

	nodes := len(s.registry.Nodes())
	out := SaveCacheOutput{
		Success: true,
		Nodes:   nodes,
		Message: fmt.Sprintf("Saved values of %d nodes", nodes),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

// bindArguments decodes the tool arguments into target.
func bindArguments(request mcp.CallToolRequest, target any) error {
	b, err := json.Marshal(request.GetArguments())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}

func requiredValueID(request mcp.CallToolRequest) (value.ID, error) {
	raw, err := requiredString(request, "id")
	if err != nil {
		return value.ID{}, err
	}
	id, err := value.ParseID(raw)
	if err != nil {
		return value.ID{}, fmt.Errorf("invalid value id: %w", err)
	}
	return id, nil
}

func formatJSON(v any) string {
	b, err := encodeJSON(v)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}

func encodeJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
