package wire

// Status represents a result status code.
type Status uint8

const (
	// StatusSuccess indicates the method completed and Payload holds its value.
	StatusSuccess Status = 0

	// StatusError indicates the method failed. ErrorCode and ErrorMessage are set.
	StatusError Status = 1

	// StatusNotImplemented indicates the channel has no handler for the method.
	StatusNotImplemented Status = 2
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	case StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	return s <= StatusNotImplemented
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
