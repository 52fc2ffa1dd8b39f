package guard

// Op names a guard operation in errors and state transitions.
type Op uint8

const (
	OpAcquire Op = iota
	OpRelease
	OpTeardown
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpAcquire:
		return "acquire"
	case OpRelease:
		return "release"
	case OpTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}

// ResourceError is returned when the platform refuses to grant or give back
// the permit. Message is the platform's error text, unchanged.
type ResourceError struct {
	Op      Op
	Message string
	Err     error
}

func (e *ResourceError) Error() string {
	return e.Message
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
