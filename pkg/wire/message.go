package wire

import (
	"errors"
	"fmt"
)

// CBOR map keys for message encoding.
const (
	// Common keys
	KeyMessageID = 1

	// MethodCall keys
	KeyChannel   = 2
	KeyMethod    = 3
	KeyArguments = 4

	// Result keys
	KeyStatus       = 2
	KeyPayload      = 3
	KeyErrorCode    = 4
	KeyErrorMessage = 5
	KeyErrorDetails = 6
)

// ReservedMessageID is never assigned to a call.
const ReservedMessageID uint32 = 0

// Validation errors.
var (
	ErrReservedMessageID = errors.New("messageId 0 is reserved")
	ErrMissingChannel    = errors.New("channel is required")
	ErrMissingMethod     = errors.New("method is required")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrMissingErrorCode  = errors.New("error result requires an error code")
)

// MethodCall represents a method invocation from the application shell.
//
// CBOR encoding:
//
//	{
//	  1: messageId,    // uint32, > 0
//	  2: channel,      // text, e.g. "lan_discovery"
//	  3: method,       // text, e.g. "acquireMulticast"
//	  4: arguments     // optional, method-specific
//	}
type MethodCall struct {
	MessageID uint32 `cbor:"1,keyasint"`
	Channel   string `cbor:"2,keyasint"`
	Method    string `cbor:"3,keyasint"`
	Arguments any    `cbor:"4,keyasint,omitempty"`
}

// Validate checks if the call is valid.
func (c *MethodCall) Validate() error {
	if c.MessageID == ReservedMessageID {
		return ErrReservedMessageID
	}
	if c.Channel == "" {
		return ErrMissingChannel
	}
	if c.Method == "" {
		return ErrMissingMethod
	}
	return nil
}

// String returns "channel/method".
func (c *MethodCall) String() string {
	return c.Channel + "/" + c.Method
}

// Result represents the answer to a MethodCall.
//
// CBOR encoding:
//
//	{
//	  1: messageId,     // uint32: matches the call
//	  2: status,        // uint8: 0=success, 1=error, 2=not implemented
//	  3: payload,       // success value
//	  4: errorCode,     // text, error only
//	  5: errorMessage,  // text, error only
//	  6: errorDetails   // optional, error only
//	}
type Result struct {
	MessageID    uint32 `cbor:"1,keyasint"`
	Status       Status `cbor:"2,keyasint"`
	Payload      any    `cbor:"3,keyasint"`
	ErrorCode    string `cbor:"4,keyasint,omitempty"`
	ErrorMessage string `cbor:"5,keyasint,omitempty"`
	ErrorDetails any    `cbor:"6,keyasint,omitempty"`
}

// Success creates a success result.
func Success(messageID uint32, payload any) *Result {
	return &Result{
		MessageID: messageID,
		Status:    StatusSuccess,
		Payload:   payload,
	}
}

// Failure creates an error result.
func Failure(messageID uint32, code, message string, details any) *Result {
	return &Result{
		MessageID:    messageID,
		Status:       StatusError,
		ErrorCode:    code,
		ErrorMessage: message,
		ErrorDetails: details,
	}
}

// NotImplemented creates a not-implemented result.
func NotImplemented(messageID uint32) *Result {
	return &Result{
		MessageID: messageID,
		Status:    StatusNotImplemented,
	}
}

// Validate checks if the result is valid.
func (r *Result) Validate() error {
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, r.Status)
	}
	if r.Status == StatusError && r.ErrorCode == "" {
		return ErrMissingErrorCode
	}
	return nil
}

// IsSuccess returns true if the result indicates success.
func (r *Result) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// IsNotImplemented returns true if the method had no handler.
func (r *Result) IsNotImplemented() bool {
	return r.Status == StatusNotImplemented
}

// Err converts an error result into a *CallError. It returns nil for
// success and not-implemented results.
func (r *Result) Err() error {
	if r.Status != StatusError {
		return nil
	}
	return &CallError{
		Code:    r.ErrorCode,
		Message: r.ErrorMessage,
		Details: r.ErrorDetails,
	}
}

// CallError is an error result seen from the caller's side.
type CallError struct {
	Code    string
	Message string
	Details any
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}
