// Package channel implements a named method channel: a dispatcher that maps
// method names to handlers and turns their outcome into wire results.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
)

// CodeGeneric is the error code used for handler errors that carry no code.
const CodeGeneric = "ERROR"

// HandlerFunc handles one method call. The returned value becomes the
// success payload. A returned *Error keeps its code; any other error is
// reported with CodeGeneric.
type HandlerFunc func(ctx context.Context, args any) (any, error)

// Error is a coded error answer.
type Error struct {
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// NewError creates a coded error.
func NewError(code, message string, details any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// MethodChannel dispatches calls for one channel name.
type MethodChannel struct {
	name   string
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// New creates an empty method channel. logger may be nil.
func New(name string, logger *slog.Logger) *MethodChannel {
	return &MethodChannel{
		name:     name,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

// Name returns the channel name.
func (c *MethodChannel) Name() string {
	return c.name
}

// Handle registers fn for method, replacing any previous handler.
// A nil fn removes the handler.
func (c *MethodChannel) Handle(method string, fn HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		delete(c.handlers, method)
		return
	}
	c.handlers[method] = fn
}

// Methods returns the number of registered handlers.
func (c *MethodChannel) Methods() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}

// Invoke dispatches call and always returns exactly one result.
// Calls for another channel or an unregistered method get a
// not-implemented result.
func (c *MethodChannel) Invoke(ctx context.Context, call *wire.MethodCall) (result *wire.Result) {
	if call.Channel != c.name {
		c.debugLog("Invoke: wrong channel", "channel", call.Channel, "method", call.Method)
		return wire.NotImplemented(call.MessageID)
	}

	c.mu.RLock()
	fn, ok := c.handlers[call.Method]
	c.mu.RUnlock()
	if !ok {
		c.debugLog("Invoke: no handler", "method", call.Method)
		return wire.NotImplemented(call.MessageID)
	}

	defer func() {
		if r := recover(); r != nil {
			if c.logger != nil {
				c.logger.Error("method handler panicked", "method", call.Method, "panic", r)
			}
			result = wire.Failure(call.MessageID, CodeGeneric, fmt.Sprintf("handler panic: %v", r), nil)
		}
	}()

	value, err := fn(ctx, call.Arguments)
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			return wire.Failure(call.MessageID, cerr.Code, cerr.Message, cerr.Details)
		}
		return wire.Failure(call.MessageID, CodeGeneric, err.Error(), nil)
	}
	return wire.Success(call.MessageID, value)
}

func (c *MethodChannel) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
