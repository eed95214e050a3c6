package device

import (
	"context"

	"github.com/urmzd/homai-zwave/pkg/value"
)

// Controller defines the interface to the network controller that carries
// value changes to and from devices. It commits pending list selections on
// behalf of the value registry.
type Controller interface {
	value.Committer

	// HomeID returns the network's home ID, or 0 when unknown
	HomeID() uint32

	// RequestValue asks the device to report the current state of a value
	RequestValue(ctx context.Context, id value.ID) error

	// IsConnected returns true if the controller is connected
	IsConnected() bool

	// Close disconnects the controller
	Close()
}

// EventSubscriber defines the interface for subscribing to value events
type EventSubscriber interface {
	// Subscribe returns a channel that receives value events
	Subscribe() chan value.Event

	// Unsubscribe removes a subscription
	Unsubscribe(ch chan value.Event)
}
