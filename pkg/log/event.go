package log

import (
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
)

// Event is one entry of the protocol log. Exactly one of Frame, Message,
// StateChange or Error is set. Field keys are CBOR integers so the on-disk
// form stays small.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID is the transport connection's UUID. Permit and service
	// events leave it empty.
	ConnectionID string    `cbor:"2,keyasint"`
	Direction    Direction `cbor:"3,keyasint"`
	Layer        Layer     `cbor:"4,keyasint"`
	Category     Category  `cbor:"5,keyasint"`
	RemoteAddr   string    `cbor:"7,keyasint,omitempty"`
	Channel      string    `cbor:"8,keyasint,omitempty"`

	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) || names[i] == "" {
		return "UNKNOWN"
	}
	return names[i]
}

// Direction is relative to the bridge: IN is read from a client, OUT is
// written to one.
type Direction uint8

const (
	DirectionIn Direction = iota
	DirectionOut
)

var directionNames = []string{"IN", "OUT"}

func (d Direction) String() string { return enumName(directionNames, int(d)) }

// Layer names the part of the bridge that recorded an event.
type Layer uint8

const (
	// LayerTransport sees length-prefixed frames.
	LayerTransport Layer = iota
	// LayerWire sees decoded calls and results.
	LayerWire
	// LayerService covers the guard and the service lifecycle.
	LayerService
)

var layerNames = []string{"TRANSPORT", "WIRE", "SERVICE"}

func (l Layer) String() string { return enumName(layerNames, int(l)) }

// Category classifies an event by its payload.
type Category uint8

// Value 1 is reserved.
const (
	CategoryMessage Category = 0
	CategoryState   Category = 2
	CategoryError   Category = 3
)

var categoryNames = []string{"MESSAGE", "", "STATE", "ERROR"}

func (c Category) String() string { return enumName(categoryNames, int(c)) }

// FrameEvent records a raw frame. Size counts the length prefix; Data is
// cut short for large frames.
type FrameEvent struct {
	Size      int    `cbor:"1,keyasint"`
	Data      []byte `cbor:"2,keyasint,omitempty"`
	Truncated bool   `cbor:"3,keyasint,omitempty"`
}

// MessageEvent records a decoded call or result.
type MessageEvent struct {
	Type      MessageType `cbor:"1,keyasint"`
	MessageID uint32      `cbor:"2,keyasint"`

	// Method is set on calls.
	Method string `cbor:"3,keyasint,omitempty"`

	// Status and ErrorCode are set on results.
	Status    *wire.Status `cbor:"6,keyasint,omitempty"`
	ErrorCode string       `cbor:"7,keyasint,omitempty"`

	Payload any `cbor:"8,keyasint,omitempty"`

	// ProcessingTime spans call receipt to result send.
	ProcessingTime *time.Duration `cbor:"9,keyasint,omitempty"`
}

// MessageType tells calls from results.
type MessageType uint8

const (
	MessageTypeCall MessageType = iota
	MessageTypeResult
)

var messageTypeNames = []string{"CALL", "RESULT"}

func (m MessageType) String() string { return enumName(messageTypeNames, int(m)) }

// StateChangeEvent records a lifecycle transition. OldState is empty for
// the first transition of an entity.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`
	Reason   string      `cbor:"4,keyasint,omitempty"`
}

// StateEntity names what changed state.
type StateEntity uint8

const (
	StateEntityConnection StateEntity = iota
	// StateEntityPermit is the multicast guard (RELEASED/HELD).
	StateEntityPermit
	StateEntityService
)

var stateEntityNames = []string{"CONNECTION", "PERMIT", "SERVICE"}

func (s StateEntity) String() string { return enumName(stateEntityNames, int(s)) }

// ErrorEventData records a failure. Code carries the channel error code,
// such as LOCK_ERROR, when there is one. Context names the operation.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`
	Code    string `cbor:"3,keyasint,omitempty"`
	Context string `cbor:"4,keyasint,omitempty"`
}
