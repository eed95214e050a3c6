package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-zwave/pkg/api/types"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/device/schema"
	"github.com/urmzd/homai-zwave/pkg/value"
)

// ControlHandler handles selection and refresh endpoints
type ControlHandler struct {
	registry   *value.Registry
	controller device.Controller
	validator  *schema.Validator
}

// NewControlHandler creates a new control handler
func NewControlHandler(registry *value.Registry, controller device.Controller, validator *schema.Validator) *ControlHandler {
	return &ControlHandler{registry: registry, controller: controller, validator: validator}
}

// Select handles POST /values/:id/selection
// @Summary      Select an item
// @Description  Requests that a list value change to the item with the given label or code. The confirmed selection only changes once the device reports it.
// @Tags         values
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Value ID (node-class-instance-index)"
// @Param        request  body      types.SelectionRequest  true  "Item to select"
// @Success      200      {object}  types.SelectionResponse "Item already selected"
// @Success      202      {object}  types.SelectionResponse "Selection sent to the device"
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Value not found"
// @Failure      409      {object}  types.ErrorResponse  "Value is read-only"
// @Failure      502      {object}  types.ErrorResponse  "Controller rejected the request"
// @Failure      503      {object}  types.ErrorResponse  "Controller disconnected"
// @Failure      504      {object}  types.ErrorResponse  "Request timed out"
// @Router       /values/{id}/selection [post]
func (h *ControlHandler) Select(c *gin.Context) {
	id, ok := valueID(c)
	if !ok {
		return
	}

	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	var req map[string]any
	if err := dec.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	s, err := h.registry.State(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if s.ReadOnly {
		writeError(c, value.ErrReadOnly)
		return
	}

	// Validate against the value's items
	if err := h.validator.ValidateSelection(s.Items, req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	var committed bool
	if label, ok := req["label"].(string); ok {
		committed, err = h.registry.SelectByLabel(id, label)
	} else {
		code, cerr := parseCode(req["code"])
		if cerr != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "validation_error",
				Message: cerr.Error(),
			})
			return
		}
		committed, err = h.registry.SelectByCode(id, code)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	status, httpStatus := "pending", http.StatusAccepted
	if !committed {
		status, httpStatus = "unchanged", http.StatusOK
	}

	s, err = h.registry.State(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(httpStatus, types.SelectionResponse{
		Status:    status,
		Value:     device.NewListValue(s),
		Timestamp: time.Now(),
	})
}

// Refresh handles POST /values/:id/refresh
// @Summary      Refresh a value
// @Description  Asks the device to report the current state of a value
// @Tags         values
// @Produce      json
// @Param        id   path      string  true  "Value ID (node-class-instance-index)"
// @Success      202  {object}  types.RefreshResponse
// @Failure      400  {object}  types.ErrorResponse  "Invalid value ID or unsupported command class"
// @Failure      404  {object}  types.ErrorResponse  "Value not found"
// @Failure      503  {object}  types.ErrorResponse  "Controller disconnected"
// @Failure      504  {object}  types.ErrorResponse  "Request timed out"
// @Router       /values/{id}/refresh [post]
func (h *ControlHandler) Refresh(c *gin.Context) {
	id, ok := valueID(c)
	if !ok {
		return
	}

	if !h.registry.Has(id) {
		writeError(c, value.ErrValueNotFound)
		return
	}

	if err := h.controller.RequestValue(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, types.RefreshResponse{
		Status: "requested",
		Value:  id.String(),
	})
}

// parseCode converts a decoded JSON number to an item code. Whole numbers
// written with a fraction or exponent, such as 1.0 or 1e0, are accepted.
func parseCode(v any) (int32, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("code must be a number, got %T", v)
	}
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, fmt.Errorf("code %s out of range", n)
		}
		return int32(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid code %s: %w", n, err)
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("code %s is not a 32-bit integer", n)
	}
	return int32(f), nil
}
