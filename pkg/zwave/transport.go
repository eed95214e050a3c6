package zwave

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-zwave/pkg/device"
)

const (
	maxRetries      = 3
	ackTimeout      = 1600 * time.Millisecond
	responseTimeout = 5 * time.Second
)

var (
	// ErrNoAck indicates the controller never acknowledged a frame
	ErrNoAck = errors.New("frame not acknowledged")

	// ErrClosed indicates the transport has been shut down
	ErrClosed = errors.New("transport closed")
)

// Transport exchanges Serial API frames with the controller.
//
// A read loop acknowledges incoming frames and routes them: responses go to
// the pending Request, unsolicited requests are queued for a separate
// dispatcher goroutine so a slow handler never stalls the reader.
type Transport struct {
	port io.ReadWriteCloser

	writeMu sync.Mutex

	// one request in flight at a time; a channel so waiting honours ctx
	requestSem chan struct{}

	acks chan byte

	responses  map[byte]chan Frame
	responseMu sync.Mutex

	requests  chan Frame
	handler   func(Frame)
	handlerMu sync.RWMutex

	ackTimeout      time.Duration
	responseTimeout time.Duration

	stopChan chan struct{}
	readDone chan struct{}
	stopped  bool
	stopMu   sync.Mutex
}

// NewTransport creates a transport over port. Call Start to begin reading.
func NewTransport(port io.ReadWriteCloser) *Transport {
	return &Transport{
		port:            port,
		requestSem:      make(chan struct{}, 1),
		acks:            make(chan byte, 1),
		responses:       make(map[byte]chan Frame),
		requests:        make(chan Frame, 32),
		ackTimeout:      ackTimeout,
		responseTimeout: responseTimeout,
		stopChan:        make(chan struct{}),
		readDone:        make(chan struct{}),
	}
}

// SetHandler sets the function that receives unsolicited request frames.
func (t *Transport) SetHandler(handler func(Frame)) {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	t.handler = handler
}

// Start launches the read and dispatch goroutines.
func (t *Transport) Start() {
	go t.readLoop()
	go t.dispatchLoop()
}

// Send writes a data frame and waits for the controller's ACK, retransmitting
// on NAK, CAN or timeout. It gives up early when ctx is done.
func (t *Transport) Send(ctx context.Context, f Frame) error {
	raw := f.Marshal()

	// Drop any stale acknowledgement.
	select {
	case <-t.acks:
	default:
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		log.Debug().Str("frame", f.String()).Int("attempt", attempt).Msg("Z-Wave TX")

		if err := t.write(raw); err != nil {
			return fmt.Errorf("write frame 0x%02X: %w", f.Func, err)
		}

		select {
		case b := <-t.acks:
			if b == ack {
				return nil
			}
			log.Warn().Uint8("reply", b).Uint8("func", f.Func).Msg("Z-Wave frame rejected, retransmitting")
		case <-time.After(t.ackTimeout):
			log.Warn().Uint8("func", f.Func).Msg("Z-Wave ACK timeout, retransmitting")
		case <-ctx.Done():
			return ctxError(ctx, f.Func)
		case <-t.readDone:
			return ErrClosed
		case <-t.stopChan:
			return ErrClosed
		}
	}

	return fmt.Errorf("%w: function 0x%02X after %d retries", ErrNoAck, f.Func, maxRetries)
}

// Request sends a request frame and waits for the response with the same
// function ID. Requests are serialized; ctx bounds both the wait for the
// previous request and the exchange itself.
func (t *Transport) Request(ctx context.Context, f Frame) (Frame, error) {
	select {
	case t.requestSem <- struct{}{}:
	case <-ctx.Done():
		return Frame{}, ctxError(ctx, f.Func)
	}
	defer func() { <-t.requestSem }()

	ch := make(chan Frame, 1)
	t.responseMu.Lock()
	t.responses[f.Func] = ch
	t.responseMu.Unlock()

	defer func() {
		t.responseMu.Lock()
		delete(t.responses, f.Func)
		t.responseMu.Unlock()
	}()

	if err := t.Send(ctx, f); err != nil {
		return Frame{}, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(t.responseTimeout):
		return Frame{}, fmt.Errorf("%w: response to function 0x%02X", device.ErrTimeout, f.Func)
	case <-ctx.Done():
		return Frame{}, ctxError(ctx, f.Func)
	case <-t.readDone:
		return Frame{}, ErrClosed
	case <-t.stopChan:
		return Frame{}, ErrClosed
	}
}

// Connected reports whether the read loop is still running.
func (t *Transport) Connected() bool {
	select {
	case <-t.readDone:
		return false
	case <-t.stopChan:
		return false
	default:
		return true
	}
}

// Close stops the transport and closes the port.
func (t *Transport) Close() error {
	t.stopMu.Lock()
	defer t.stopMu.Unlock()
	if t.stopped {
		return nil
	}
	t.stopped = true
	close(t.stopChan)
	return t.port.Close()
}

// ctxError reports a context expiry as device.ErrTimeout.
func ctxError(ctx context.Context, fn byte) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: function 0x%02X: %w", device.ErrTimeout, fn, ctx.Err())
	}
	return ctx.Err()
}

func (t *Transport) write(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err := t.port.Write(data)
	return err
}

func (t *Transport) isStopped() bool {
	t.stopMu.Lock()
	defer t.stopMu.Unlock()
	return t.stopped
}

// readLoop consumes the byte stream until the port fails or is closed.
func (t *Transport) readLoop() {
	defer close(t.readDone)
	r := bufio.NewReader(t.port)

	for {
		b, err := r.ReadByte()
		if err != nil {
			if !t.isStopped() {
				log.Error().Err(err).Msg("Z-Wave read failed, transport stopped")
			}
			return
		}

		switch b {
		case ack, nak, can:
			select {
			case t.acks <- b:
			default:
			}
		case sof:
			if err := t.readFrame(r); err != nil {
				if !t.isStopped() {
					log.Error().Err(err).Msg("Z-Wave read failed, transport stopped")
				}
				return
			}
		default:
			log.Debug().Uint8("byte", b).Msg("Z-Wave discarding unexpected byte")
		}
	}
}

// readFrame reads one frame after SOF. Only I/O errors are returned; a bad
// frame is NAKed and dropped.
func (t *Transport) readFrame(r *bufio.Reader) error {
	length, err := r.ReadByte()
	if err != nil {
		return err
	}
	raw := make([]byte, int(length)+1)
	raw[0] = length
	if _, err := io.ReadFull(r, raw[1:]); err != nil {
		return err
	}

	f, err := parseFrame(raw)
	if err != nil {
		log.Warn().Err(err).Hex("raw", raw).Msg("Z-Wave invalid frame, sending NAK")
		return t.write([]byte{nak})
	}
	if err := t.write([]byte{ack}); err != nil {
		return err
	}

	log.Debug().Str("frame", f.String()).Msg("Z-Wave RX")

	if f.Type == FrameResponse {
		t.responseMu.Lock()
		ch, ok := t.responses[f.Func]
		t.responseMu.Unlock()

		if ok {
			select {
			case ch <- f:
			default:
			}
		} else {
			log.Debug().Uint8("func", f.Func).Msg("Z-Wave response with no pending request")
		}
		return nil
	}

	select {
	case t.requests <- f:
	default:
		log.Warn().Uint8("func", f.Func).Msg("Z-Wave request queue full, dropping frame")
	}
	return nil
}

func (t *Transport) dispatchLoop() {
	for {
		select {
		case <-t.stopChan:
			return
		case f := <-t.requests:
			t.handlerMu.RLock()
			handler := t.handler
			t.handlerMu.RUnlock()

			if handler != nil {
				handler(f)
			}
		}
	}
}
