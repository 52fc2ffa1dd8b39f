package transport

import (
	"context"
	"net"

	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
)

// Caller is the client half of a bridge connection. *Client implements it;
// connection.Session redials through it.
type Caller interface {
	Call(ctx context.Context, call *wire.MethodCall) (*wire.Result, error)
	Invoke(ctx context.Context, channel, method string, args any) (*wire.Result, error)
	RemoteAddr() net.Addr
	Close() error
}

var _ Caller = (*Client)(nil)
