package device

import (
	"context"

	"github.com/urmzd/homai-zwave/pkg/value"
)

// NullController is a no-op controller used when no Z-Wave stick is available.
// It allows the API to serve cached values in limited mode; every selection
// fails with ErrNotConnected.
type NullController struct{}

// NewNullController creates a new NullController.
func NewNullController() *NullController {
	return &NullController{}
}

func (c *NullController) Commit(v value.Value) error {
	return ErrNotConnected
}

func (c *NullController) HomeID() uint32 {
	return 0
}

func (c *NullController) RequestValue(ctx context.Context, id value.ID) error {
	return ErrNotConnected
}

func (c *NullController) IsConnected() bool {
	return false
}

func (c *NullController) Close() {}
