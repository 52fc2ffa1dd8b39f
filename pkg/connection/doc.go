// Package connection keeps a control client attached to a bridge across
// bridge restarts.
//
// A Session dials lazily on the first Invoke. When a call fails at the
// transport level the connection is dropped and the next Invoke redials.
// The failed call itself is not retried: a call that reached the bridge
// before the connection broke may already have changed the permit.
//
// # Backoff
//
// Redials back off exponentially with jitter:
//
//	delay = base + random(0, base * Jitter)
//
// starting at InitialBackoff and doubling up to MaxBackoff. The base resets
// after every successful dial.
package connection
