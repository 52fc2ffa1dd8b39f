package permit

import "errors"

// Permit errors.
var (
	// ErrUnderLocked indicates Release was called on a permit that is not held.
	ErrUnderLocked = errors.New("permit under-locked")

	// ErrNoInterface indicates no up, multicast-capable interface is available.
	ErrNoInterface = errors.New("no multicast-capable interface")

	// ErrJoinFailed indicates the multicast groups could not be joined.
	ErrJoinFailed = errors.New("failed to join multicast group")

	// ErrEmptyTag indicates a permit was requested without a tag.
	ErrEmptyTag = errors.New("permit tag is required")
)

// Service hands out multicast permits.
// Implemented by MulticastService.
type Service interface {
	// NewPermit creates a permit with the given tag. The permit is not held.
	NewPermit(tag string) (Permit, error)
}

// Permit is a handle to the host's multicast-reception permit.
// Implementations must be safe for concurrent use.
type Permit interface {
	// Tag returns the tag the permit was created with.
	Tag() string

	// SetReferenceCounted selects reference counted or one-shot semantics.
	// It should be called before the first Acquire.
	SetReferenceCounted(refCounted bool)

	// Acquire obtains the permit.
	Acquire() error

	// IsHeld reports whether the permit is currently held.
	IsHeld() bool

	// Release gives the permit back. Returns ErrUnderLocked if not held.
	Release() error
}

// Compile-time interface satisfaction checks.
var (
	_ Service = (*MulticastService)(nil)
	_ Permit  = (*multicastPermit)(nil)
)
