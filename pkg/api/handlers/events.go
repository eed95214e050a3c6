package handlers

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-zwave/pkg/device"
)

// EventsHandler streams value events to clients
type EventsHandler struct {
	subscriber device.EventSubscriber
	heartbeat  time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(subscriber device.EventSubscriber) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		heartbeat:  30 * time.Second,
	}
}

// Events handles GET /values/events (SSE stream)
// @Summary      Subscribe to value events
// @Description  Server-Sent Events stream of values being added, removed, or confirmed by their devices
// @Tags         values
// @Produce      text/event-stream
// @Success      200  {string}  string  "SSE event stream"
// @Router       /values/events [get]
func (h *EventsHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// Subscribe to events
	eventChan := h.subscriber.Subscribe()
	defer h.subscriber.Unsubscribe(eventChan)

	// Send initial connection event
	sendSSEEvent(c.Writer, "connected", map[string]any{
		"timestamp": time.Now(),
		"message":   "Connected to value event stream",
	})
	c.Writer.Flush()

	// Get client gone channel
	clientGone := c.Request.Context().Done()

	// Heartbeat ticker
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case event, ok := <-eventChan:
			if !ok {
				return
			}
			data := map[string]any{
				"type":      event.Type,
				"id":        event.ValueID.String(),
				"timestamp": event.Timestamp,
			}
			if event.State != nil {
				data["value"] = device.NewListValue(*event.State)
			}
			sendSSEEvent(c.Writer, event.Type, data)
			c.Writer.Flush()

		case <-ticker.C:
			sendSSEEvent(c.Writer, "heartbeat", map[string]any{
				"timestamp": time.Now(),
			})
			c.Writer.Flush()
		}
	}
}

// sendSSEEvent writes an SSE event to the response
func sendSSEEvent(w io.Writer, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: "+string(jsonData)+"\n\n")
}
