package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-zwave/pkg/api/types"
	"github.com/urmzd/homai-zwave/pkg/cache"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/value"
	"github.com/urmzd/homai-zwave/pkg/xmldoc"
)

// CacheHandler handles value cache endpoints
type CacheHandler struct {
	registry   *value.Registry
	controller device.Controller
	store      *cache.Store
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(registry *value.Registry, controller device.Controller, store *cache.Store) *CacheHandler {
	return &CacheHandler{registry: registry, controller: controller, store: store}
}

// Export handles GET /cache
// @Summary      Export value cache
// @Description  Returns every value as a Network XML document that can be imported on startup
// @Tags         cache
// @Produce      xml
// @Success      200  {string}  string  "Cache document"
// @Router       /cache [get]
func (h *CacheHandler) Export(c *gin.Context) {
	root := cache.Build(h.registry, h.controller.HomeID())

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Status(http.StatusOK)
	if err := xmldoc.Encode(c.Writer, root); err != nil {
		log.Error().Err(err).Msg("Failed to write cache document")
	}
}

// Save handles POST /cache/save
// @Summary      Save value cache
// @Description  Persists the current values of every node to the database
// @Tags         cache
// @Produce      json
// @Success      200  {object}  types.SaveCacheResponse
// @Failure      500  {object}  types.ErrorResponse  "Database error"
// @Failure      503  {object}  types.ErrorResponse  "No cache store configured"
// @Router       /cache/save [post]
func (h *CacheHandler) Save(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "no_store",
			Message: "No cache store configured",
		})
		return
	}

	if err := h.store.SaveAll(c.Request.Context(), h.registry); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "database_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.SaveCacheResponse{
		Status:    "saved",
		Nodes:     len(h.registry.Nodes()),
		Timestamp: time.Now(),
	})
}
