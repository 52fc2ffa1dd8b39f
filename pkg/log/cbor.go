package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Events use canonical key order and RFC 3339 nanosecond timestamps.
var (
	logEncMode = mustMode(cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode())

	logDecMode = mustMode(cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode())
)

func mustMode[M any](mode M, err error) M {
	if err != nil {
		panic("log: invalid CBOR options: " + err.Error())
	}
	return mode
}

// EncodeEvent returns the CBOR encoding of a single event.
func EncodeEvent(event Event) ([]byte, error) {
	return logEncMode.Marshal(event)
}

// DecodeEvent decodes a single CBOR event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := logDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	event.normalizePayload()
	return event, nil
}

// normalizePayload rewrites decoded CBOR maps in a message payload to
// map[string]any so events stay JSON-encodable. Keys keep their text form,
// integer keys included.
func (e *Event) normalizePayload() {
	if e.Message != nil && e.Message.Payload != nil {
		e.Message.Payload = plainValue(e.Message.Payload)
	}
}

func plainValue(v any) any {
	switch v := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = plainValue(val)
		}
		return m
	case map[string]any:
		for k, val := range v {
			v[k] = plainValue(val)
		}
		return v
	case []any:
		for i, val := range v {
			v[i] = plainValue(val)
		}
		return v
	}
	return v
}

// NewEncoder returns a streaming event encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return logEncMode.NewEncoder(w)
}

// NewDecoder returns a streaming event decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return logDecMode.NewDecoder(r)
}
