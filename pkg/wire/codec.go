package wire

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for method channel messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for method channel messages.
var decMode cbor.DecMode

func init() {
	var err error

	// Configure encoder for deterministic output
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical, // Deterministic key ordering
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix, // Unix timestamps
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Configure decoder to be lenient so newer shells can add keys
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet, // Ignore duplicate keys (last wins)
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// EncodeCall encodes a method call to CBOR bytes.
func EncodeCall(call *MethodCall) ([]byte, error) {
	if err := call.Validate(); err != nil {
		return nil, fmt.Errorf("invalid method call: %w", err)
	}
	return Marshal(call)
}

// DecodeCall decodes CBOR bytes into a method call.
func DecodeCall(data []byte) (*MethodCall, error) {
	var call MethodCall
	if err := Unmarshal(data, &call); err != nil {
		return nil, fmt.Errorf("failed to decode method call: %w", err)
	}
	if err := call.Validate(); err != nil {
		return nil, fmt.Errorf("invalid method call: %w", err)
	}
	return &call, nil
}

// EncodeResult encodes a result message to CBOR bytes.
func EncodeResult(result *Result) ([]byte, error) {
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid result: %w", err)
	}
	return Marshal(result)
}

// DecodeResult decodes CBOR bytes into a result message.
func DecodeResult(data []byte) (*Result, error) {
	var result Result
	if err := Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid result: %w", err)
	}
	return &result, nil
}

// PeekMessageID extracts the message ID from CBOR data without validating
// the rest of the message. Used to answer calls that fail to decode.
func PeekMessageID(data []byte) (uint32, error) {
	var peek struct {
		MessageID uint32 `cbor:"1,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return ReservedMessageID, fmt.Errorf("failed to peek message: %w", err)
	}
	return peek.MessageID, nil
}
