// Package guard owns the process's multicast-reception permit.
//
// A Guard presents a binary held/released view over a reference-counted
// platform permit: Acquire and Release are idempotent, and Close is the
// teardown hook the owning scope runs exactly once when it shuts down.
package guard

import (
	"log/slog"
	"sync"
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/log"
	"github.com/seguridad-en-casa/lanbridge/pkg/permit"
)

// DefaultTag is the permit tag used when none is configured.
const DefaultTag = "mdns_lock"

// State is the guard's view of the permit.
type State uint8

const (
	// StateReleased - no permit is held (initial and terminal state).
	StateReleased State = iota

	// StateHeld - the permit is held.
	StateHeld
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReleased:
		return "RELEASED"
	case StateHeld:
		return "HELD"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Guard.
type Config struct {
	// Tag names the permit (default: DefaultTag).
	Tag string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives permit state changes (optional).
	ProtocolLogger log.Logger

	// OnStateChange is called for every transition with the guard's lock
	// held. It must not call back into the guard.
	OnStateChange func(from, to State, op Op)
}

// Guard is the multicast resource guard. It holds at most one permit handle;
// the handle is non-nil exactly when the state is StateHeld.
// All methods are safe for concurrent use.
type Guard struct {
	service permit.Service
	config  Config

	mu     sync.Mutex
	handle permit.Permit
}

// New creates a guard over the given permit service. The guard starts
// in StateReleased.
func New(service permit.Service, config Config) *Guard {
	if config.Tag == "" {
		config.Tag = DefaultTag
	}
	return &Guard{
		service: service,
		config:  config,
	}
}

// Tag returns the permit tag.
func (g *Guard) Tag() string {
	return g.config.Tag
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

// Held reports whether the permit is held.
func (g *Guard) Held() bool {
	return g.State() == StateHeld
}

func (g *Guard) stateLocked() State {
	if g.handle != nil {
		return StateHeld
	}
	return StateReleased
}

// Acquire obtains the permit. If it is already held this is a no-op.
// On failure the guard stays released and a *ResourceError carrying the
// platform's message is returned.
func (g *Guard) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.handle != nil {
		g.debugLog("Acquire: already held", "tag", g.config.Tag)
		return nil
	}

	p, err := g.service.NewPermit(g.config.Tag)
	if err != nil {
		return g.fail(OpAcquire, err)
	}
	p.SetReferenceCounted(true)
	if err := p.Acquire(); err != nil {
		return g.fail(OpAcquire, err)
	}

	g.handle = p
	g.logTransition(StateReleased, StateHeld, OpAcquire)
	return nil
}

// Release gives the permit back. If it is not held this is a no-op.
// The platform release only happens if the platform still reports the
// permit as held. The local handle is cleared even if the platform call
// fails; the failure is returned as a *ResourceError.
func (g *Guard) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.releaseLocked(OpRelease)
}

// Close is the teardown hook. It releases the permit like Release but
// swallows errors, since nobody remains to observe them. After Close the
// guard is always released. Close always returns nil.
func (g *Guard) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.releaseLocked(OpTeardown); err != nil {
		if g.config.Logger != nil {
			g.config.Logger.Warn("multicast permit release failed during teardown",
				"tag", g.config.Tag, "error", err)
		}
	}
	return nil
}

// Hold acquires the permit, runs fn and releases the permit on every exit
// path, including a panic in fn. The error from fn takes precedence over a
// release error.
func (g *Guard) Hold(fn func() error) (err error) {
	if err := g.Acquire(); err != nil {
		return err
	}
	defer func() {
		if releaseErr := g.Release(); err == nil {
			err = releaseErr
		}
	}()
	return fn()
}

func (g *Guard) releaseLocked(op Op) error {
	if g.handle == nil {
		g.debugLog("release: not held", "tag", g.config.Tag, "op", op)
		return nil
	}

	p := g.handle
	g.handle = nil
	g.logTransition(StateHeld, StateReleased, op)

	if !p.IsHeld() {
		// Released behind our back; nothing to give back.
		g.debugLog("release: platform no longer holds permit", "tag", g.config.Tag)
		return nil
	}
	if err := p.Release(); err != nil {
		return g.fail(op, err)
	}
	return nil
}

// fail wraps err and reports it to the protocol log.
func (g *Guard) fail(op Op, err error) error {
	rerr := &ResourceError{Op: op, Message: err.Error(), Err: err}
	if g.config.ProtocolLogger != nil {
		g.config.ProtocolLogger.Log(log.Event{
			Timestamp: time.Now(),
			Layer:     log.LayerService,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerService,
				Message: rerr.Message,
				Context: op.String(),
			},
		})
	}
	return rerr
}

func (g *Guard) logTransition(from, to State, op Op) {
	g.debugLog("multicast permit state change", "tag", g.config.Tag, "from", from, "to", to, "op", op)
	if g.config.OnStateChange != nil {
		g.config.OnStateChange(from, to, op)
	}
	if g.config.ProtocolLogger == nil {
		return
	}
	g.config.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityPermit,
			OldState: from.String(),
			NewState: to.String(),
			Reason:   op.String(),
		},
	})
}

func (g *Guard) debugLog(msg string, args ...any) {
	if g.config.Logger != nil {
		g.config.Logger.Debug(msg, args...)
	}
}
