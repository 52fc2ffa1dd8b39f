package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/log"
	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
)

// DefaultConnectTimeout bounds Dial when the context has no deadline.
const DefaultConnectTimeout = 5 * time.Second

// ErrMessageIDMismatch indicates a result that does not answer the pending call.
var ErrMessageIDMismatch = errors.New("result messageId does not match call")

// ClientConfig configures a bridge client.
type ClientConfig struct {
	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// ConnectTimeout is the dial timeout (default: 5s).
	ConnectTimeout time.Duration

	// Logger for protocol logging (optional).
	Logger log.Logger
}

// Client is the shell side of the bridge transport. One call is in flight
// at a time; Call is safe for concurrent use and serializes callers.
type Client struct {
	conn   net.Conn
	framer *Framer

	callMu    sync.Mutex
	nextID    atomic.Uint32
	closeCh   chan struct{}
	closeOnce sync.Once
}

// Dial connects to a bridge server.
func Dial(ctx context.Context, network, address string, config ClientConfig) (*Client, error) {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	framer := NewFramer(conn, config.MaxMessageSize)
	if config.Logger != nil {
		framer.SetLogger(config.Logger, conn.LocalAddr().String())
	}

	return &Client{
		conn:    conn,
		framer:  framer,
		closeCh: make(chan struct{}),
	}, nil
}

// LocalAddr returns the local network address.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Call sends call and waits for its result. A zero MessageID is replaced
// with the next ID from the client's counter. The context deadline, if
// any, bounds the round trip.
func (c *Client) Call(ctx context.Context, call *wire.MethodCall) (*wire.Result, error) {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	if call.MessageID == wire.ReservedMessageID {
		call.MessageID = c.allocateID()
	}
	data, err := wire.EncodeCall(call)
	if err != nil {
		return nil, err
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		// Unblock a pending read or write.
		c.conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := c.framer.WriteFrame(data); err != nil {
		return nil, c.ctxErr(ctx, err)
	}
	frame, err := c.framer.ReadFrame()
	if err != nil {
		return nil, c.ctxErr(ctx, err)
	}

	result, err := wire.DecodeResult(frame)
	if err != nil {
		return nil, err
	}
	if result.MessageID != call.MessageID {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrMessageIDMismatch, result.MessageID, call.MessageID)
	}
	return result, nil
}

// Invoke is a shorthand for Call with a fresh message ID.
func (c *Client) Invoke(ctx context.Context, channel, method string, args any) (*wire.Result, error) {
	return c.Call(ctx, &wire.MethodCall{Channel: channel, Method: method, Arguments: args})
}

// Close closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// allocateID returns the next message ID, skipping the reserved zero.
func (c *Client) allocateID() uint32 {
	for {
		if id := c.nextID.Add(1); id != wire.ReservedMessageID {
			return id
		}
	}
}

// ctxErr maps an I/O error caused by the context to the context's error.
// Deadlines on the connection are only ever set from ctx, so a deadline
// error means ctx is done or about to be.
func (c *Client) ctxErr(ctx context.Context, err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		<-ctx.Done()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
