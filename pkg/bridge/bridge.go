// Package bridge exposes the multicast guard on the lan_discovery method
// channel.
//
// The application shell calls acquireMulticast before it starts listening
// for mDNS traffic and releaseMulticast when it is done. Both answer true
// on success or a LOCK_ERROR carrying the platform's message. Any other
// method is answered as not implemented.
package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/seguridad-en-casa/lanbridge/pkg/channel"
)

// Channel and method names.
const (
	ChannelName = "lan_discovery"

	MethodAcquireMulticast = "acquireMulticast"
	MethodReleaseMulticast = "releaseMulticast"
	MethodMulticastStatus  = "multicastStatus"
)

// ErrorCodeLock is the error code for permit acquire/release failures.
const ErrorCodeLock = "LOCK_ERROR"

// Guard is the part of the multicast guard the bridge drives.
// Implemented by *guard.Guard.
type Guard interface {
	Acquire() error
	Release() error
	Held() bool
	Close() error
}

// Bridge binds a Guard to a method channel.
type Bridge struct {
	guard   Guard
	channel *channel.MethodChannel
	logger  *slog.Logger

	closeOnce sync.Once
}

// New creates a bridge and registers its handlers on a new channel.
// An empty name means ChannelName. logger may be nil.
func New(g Guard, name string, logger *slog.Logger) *Bridge {
	if name == "" {
		name = ChannelName
	}
	b := &Bridge{
		guard:   g,
		channel: channel.New(name, logger),
		logger:  logger,
	}
	b.channel.Handle(MethodAcquireMulticast, b.handleAcquire)
	b.channel.Handle(MethodReleaseMulticast, b.handleRelease)
	b.channel.Handle(MethodMulticastStatus, b.handleStatus)
	return b
}

// Channel returns the method channel the bridge is registered on.
func (b *Bridge) Channel() *channel.MethodChannel {
	return b.channel
}

// Close runs the guard's teardown hook. Only the first call has an effect.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		if b.logger != nil {
			b.logger.Debug("bridge teardown", "channel", b.channel.Name())
		}
		_ = b.guard.Close()
	})
	return nil
}

func (b *Bridge) handleAcquire(context.Context, any) (any, error) {
	if err := b.guard.Acquire(); err != nil {
		return nil, channel.NewError(ErrorCodeLock, err.Error(), nil)
	}
	return true, nil
}

func (b *Bridge) handleRelease(context.Context, any) (any, error) {
	if err := b.guard.Release(); err != nil {
		return nil, channel.NewError(ErrorCodeLock, err.Error(), nil)
	}
	return true, nil
}

func (b *Bridge) handleStatus(context.Context, any) (any, error) {
	return b.guard.Held(), nil
}
