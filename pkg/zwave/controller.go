package zwave

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/value"
)

// Transmit options for ZW_SendData: ACK, auto route, explore.
const txOptions = 0x25

// DefaultCommitTimeout bounds how long a commit may wait for the controller.
// Commits run with the registry lock held.
const DefaultCommitTimeout = 3 * time.Second

// ErrRejected indicates the controller refused to queue a command
var ErrRejected = errors.New("command rejected by controller")

// Controller implements device.Controller over the Z-Wave Serial API. It
// commits list selections as SET commands and feeds device reports back into
// the value registry.
type Controller struct {
	transport *Transport
	registry  *value.Registry

	homeID uint32
	nodeID uint8

	callbackID uint8
	callbackMu sync.Mutex

	commitTimeout time.Duration

	// configuration parameter widths, keyed by node, class and index
	paramSizes map[value.ID]uint8
	sizesMu    sync.RWMutex

	connected bool
	connMu    sync.RWMutex
}

// NewController opens the serial port and initializes the controller.
func NewController(portPath string, reg *value.Registry) (*Controller, error) {
	log.Info().Str("port", portPath).Msg("Initializing Z-Wave controller")
	s, err := OpenSerial(portPath)
	if err != nil {
		return nil, fmt.Errorf("open serial: %w", err)
	}
	return Connect(s, reg)
}

// Connect initializes a controller over an already open port. The port is
// closed if initialization fails.
func Connect(port io.ReadWriteCloser, reg *value.Registry) (*Controller, error) {
	c := &Controller{
		transport:     NewTransport(port),
		registry:      reg,
		commitTimeout: DefaultCommitTimeout,
		paramSizes:    make(map[value.ID]uint8),
	}
	c.transport.SetHandler(c.handleRequest)
	c.transport.Start()

	if err := c.initController(); err != nil {
		_ = c.transport.Close()
		return nil, fmt.Errorf("init controller: %w", err)
	}

	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	log.Info().
		Str("home_id", fmt.Sprintf("0x%08x", c.homeID)).
		Uint8("node", c.nodeID).
		Msg("Z-Wave controller initialized")

	return c, nil
}

// initController reads the library version and the network identity.
func (c *Controller) initController() error {
	ctx := context.Background()

	resp, err := c.transport.Request(ctx, Frame{Type: FrameRequest, Func: funcGetVersion})
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}
	version, _, _ := bytes.Cut(resp.Payload, []byte{0})
	log.Info().Str("library", string(version)).Msg("Z-Wave library version")

	resp, err = c.transport.Request(ctx, Frame{Type: FrameRequest, Func: funcMemoryGetID})
	if err != nil {
		return fmt.Errorf("get network id: %w", err)
	}
	if len(resp.Payload) < 5 {
		return fmt.Errorf("get network id: %w", ErrShortFrame)
	}
	c.homeID = binary.BigEndian.Uint32(resp.Payload[0:4])
	c.nodeID = resp.Payload[4]
	return nil
}

// handleRequest processes unsolicited frames from the controller. It runs on
// the transport's dispatcher goroutine.
func (c *Controller) handleRequest(f Frame) {
	switch f.Func {
	case funcApplicationCommandHandler:
		c.handleApplicationCommand(f.Payload)
	case funcSendData:
		if len(f.Payload) >= 2 {
			log.Debug().
				Uint8("callback", f.Payload[0]).
				Uint8("tx_status", f.Payload[1]).
				Msg("Z-Wave transmit complete")
		}
	default:
		log.Debug().Uint8("func", f.Func).Msg("Unhandled Z-Wave request")
	}
}

// handleApplicationCommand decodes rxStatus, source node, length and command.
func (c *Controller) handleApplicationCommand(payload []byte) {
	if len(payload) < 3 {
		return
	}
	src := payload[1]
	n := int(payload[2])
	if len(payload) < 3+n {
		log.Debug().Uint8("node", src).Msg("Truncated application command")
		return
	}
	cmd := payload[3 : 3+n]

	report, err := DecodeReport(cmd)
	if err != nil {
		log.Debug().Err(err).Uint8("node", src).Hex("command", cmd).Msg("Ignoring application command")
		return
	}

	id := value.ID{
		NodeID:         src,
		CommandClassID: report.CommandClassID,
		Instance:       1,
		Index:          report.Index,
	}
	if report.Size != 0 {
		c.storeParameterSize(id, report.Size)
	}
	if err := c.registry.ConfirmCode(id, report.Code); err != nil {
		log.Warn().Err(err).Str("value", id.String()).Int32("code", report.Code).Msg("Report not applied")
		return
	}

	log.Debug().Str("value", id.String()).Int32("code", report.Code).Msg("Report applied")
}

// SetCommitTimeout changes how long Commit waits for the controller.
func (c *Controller) SetCommitTimeout(d time.Duration) {
	c.commitTimeout = d
}

// SetParameterSize records the width of a configuration parameter so that
// selections are encoded at the size the device expects. Reports from the
// device override it.
func (c *Controller) SetParameterSize(id value.ID, size uint8) error {
	if id.CommandClassID != CommandClassConfiguration {
		return fmt.Errorf("%w: 0x%02X has no parameter size", ErrUnsupportedCommandClass, id.CommandClassID)
	}
	if !ValidParameterSize(size) {
		return fmt.Errorf("%w: %d", ErrParameterSize, size)
	}
	c.storeParameterSize(id, size)
	return nil
}

// ParameterSize returns the known width of a configuration parameter, or 0.
func (c *Controller) ParameterSize(id value.ID) uint8 {
	c.sizesMu.RLock()
	defer c.sizesMu.RUnlock()
	return c.paramSizes[sizeKey(id)]
}

func (c *Controller) storeParameterSize(id value.ID, size uint8) {
	c.sizesMu.Lock()
	c.paramSizes[sizeKey(id)] = size
	c.sizesMu.Unlock()
}

// sizeKey drops the instance; reports always arrive on instance 1.
func sizeKey(id value.ID) value.ID {
	return value.ID{NodeID: id.NodeID, CommandClassID: id.CommandClassID, Index: id.Index}
}

// sendData queues a command for delivery to a node.
func (c *Controller) sendData(ctx context.Context, nodeID uint8, cmd []byte) error {
	c.callbackMu.Lock()
	c.callbackID++
	if c.callbackID == 0 {
		c.callbackID = 1
	}
	callbackID := c.callbackID
	c.callbackMu.Unlock()

	payload := make([]byte, 0, len(cmd)+4)
	payload = append(payload, nodeID, byte(len(cmd)))
	payload = append(payload, cmd...)
	payload = append(payload, txOptions, callbackID)

	resp, err := c.transport.Request(ctx, Frame{Type: FrameRequest, Func: funcSendData, Payload: payload})
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return fmt.Errorf("%w: %w", device.ErrNotConnected, err)
		}
		return err
	}
	if len(resp.Payload) < 1 || resp.Payload[0] == 0 {
		return fmt.Errorf("%w: node %d", ErrRejected, nodeID)
	}
	return nil
}

// --- value.Committer interface ---

// Commit sends the pending item of a list value to its node. It is called
// with the registry lock held and must not call back into the registry, so
// it gives up after the commit timeout with device.ErrTimeout.
func (c *Controller) Commit(v value.Value) error {
	if !c.IsConnected() {
		return device.ErrNotConnected
	}

	l, ok := v.(*value.List)
	if !ok {
		return fmt.Errorf("%w: value type %s", device.ErrUnsupported, v.Type())
	}
	item, ok := l.PendingItem()
	if !ok {
		return fmt.Errorf("no pending item on %s", v.ID())
	}

	size := c.ParameterSize(v.ID())
	cmd, err := EncodeSet(v.ID(), item.Code, size)
	if err != nil {
		return fmt.Errorf("%w: %w", device.ErrUnsupported, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.commitTimeout)
	defer cancel()

	log.Debug().
		Str("value", v.ID().String()).
		Str("label", item.Label).
		Int32("code", item.Code).
		Uint8("size", size).
		Msg("Committing selection")
	return c.sendData(ctx, v.ID().NodeID, cmd)
}

// --- device.Controller interface ---

func (c *Controller) HomeID() uint32 {
	return c.homeID
}

func (c *Controller) RequestValue(ctx context.Context, id value.ID) error {
	if !c.IsConnected() {
		return device.ErrNotConnected
	}
	cmd, err := EncodeGet(id)
	if err != nil {
		return fmt.Errorf("%w: %w", device.ErrUnsupported, err)
	}
	return c.sendData(ctx, id.NodeID, cmd)
}

func (c *Controller) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.transport.Connected()
}

func (c *Controller) Close() {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	if err := c.transport.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close serial port")
	}

	log.Info().Msg("Z-Wave controller closed")
}
