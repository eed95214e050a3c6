package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-zwave/pkg/api/types"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/value"
)

// writeError maps registry and controller errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, value.ErrValueNotFound), errors.Is(err, value.ErrNotList), errors.Is(err, device.ErrNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, value.ErrNoSuchItem):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "no_such_item",
			Message: err.Error(),
		})
	case errors.Is(err, value.ErrReadOnly):
		c.JSON(http.StatusConflict, types.ErrorResponse{
			Error:   "read_only",
			Message: err.Error(),
		})
	case errors.Is(err, device.ErrNotConnected):
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "controller_disconnected",
			Message: err.Error(),
		})
	case errors.Is(err, device.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, types.ErrorResponse{
			Error:   "timeout",
			Message: "Request timed out waiting for controller response",
		})
	case errors.Is(err, device.ErrUnsupported):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "unsupported",
			Message: err.Error(),
		})
	case errors.Is(err, value.ErrCommitFailed):
		c.JSON(http.StatusBadGateway, types.ErrorResponse{
			Error:   "commit_failed",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "controller_error",
			Message: err.Error(),
		})
	}
}

// valueID parses the :id path parameter, writing a 400 on failure.
func valueID(c *gin.Context) (value.ID, bool) {
	id, err := value.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_id",
			Message: err.Error(),
		})
		return value.ID{}, false
	}
	return id, true
}

// nodeID parses the :node path parameter, writing a 400 on failure.
func nodeID(c *gin.Context) (uint8, bool) {
	n, err := strconv.ParseUint(c.Param("node"), 10, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_node",
			Message: "Node must be a number between 0 and 255",
		})
		return 0, false
	}
	return uint8(n), true
}
