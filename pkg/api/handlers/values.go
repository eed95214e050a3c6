package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-zwave/pkg/api/types"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/value"
)

// ValuesHandler handles node and value lookup endpoints
type ValuesHandler struct {
	registry *value.Registry
}

// NewValuesHandler creates a new values handler
func NewValuesHandler(registry *value.Registry) *ValuesHandler {
	return &ValuesHandler{registry: registry}
}

// ListNodes handles GET /nodes
// @Summary      List nodes
// @Description  Returns every node that has list values
// @Tags         nodes
// @Produce      json
// @Success      200  {object}  types.ListNodesResponse
// @Router       /nodes [get]
func (h *ValuesHandler) ListNodes(c *gin.Context) {
	ids := h.registry.Nodes()

	nodes := make([]device.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, device.Node{
			ID:       id,
			Protocol: device.ProtocolZWave,
			Values:   len(h.registry.Values(id)),
		})
	}

	c.JSON(http.StatusOK, types.ListNodesResponse{
		Nodes: nodes,
		Count: len(nodes),
	})
}

// ListValues handles GET /nodes/:node/values
// @Summary      List node values
// @Description  Returns the list values of a node ordered by command class, instance and index
// @Tags         nodes
// @Produce      json
// @Param        node  path      int  true  "Node ID"
// @Success      200   {object}  types.ListValuesResponse
// @Failure      400   {object}  types.ErrorResponse  "Invalid node"
// @Failure      404   {object}  types.ErrorResponse  "Node not found"
// @Router       /nodes/{node}/values [get]
func (h *ValuesHandler) ListValues(c *gin.Context) {
	node, ok := nodeID(c)
	if !ok {
		return
	}

	states := h.registry.Values(node)
	if len(states) == 0 {
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: "Node has no values",
		})
		return
	}

	values := make([]device.ListValue, 0, len(states))
	for _, s := range states {
		values = append(values, device.NewListValue(s))
	}

	c.JSON(http.StatusOK, types.ListValuesResponse{
		Node:   node,
		Values: values,
		Count:  len(values),
	})
}

// GetValue handles GET /values/:id
// @Summary      Get value
// @Description  Returns the items, confirmed selection and pending selection of a list value
// @Tags         values
// @Produce      json
// @Param        id   path      string  true  "Value ID (node-class-instance-index)"
// @Success      200  {object}  types.ValueResponse
// @Failure      400  {object}  types.ErrorResponse  "Invalid value ID"
// @Failure      404  {object}  types.ErrorResponse  "Value not found"
// @Router       /values/{id} [get]
func (h *ValuesHandler) GetValue(c *gin.Context) {
	id, ok := valueID(c)
	if !ok {
		return
	}

	s, err := h.registry.State(id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ValueResponse{Value: device.NewListValue(s)})
}
