package log

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "OUT", DirectionOut.String())
	assert.Equal(t, "SERVICE", LayerService.String())
	assert.Equal(t, "STATE", CategoryState.String())
	assert.Equal(t, "RESULT", MessageTypeResult.String())
	assert.Equal(t, "PERMIT", StateEntityPermit.String())

	for _, s := range []string{
		Direction(7).String(),
		Layer(7).String(),
		Category(1).String(),
		Category(99).String(),
		MessageType(7).String(),
		StateEntity(7).String(),
	} {
		assert.Equal(t, "UNKNOWN", s)
	}
}

func TestResultEventCBOR(t *testing.T) {
	status := wire.StatusError
	took := 1500 * time.Microsecond
	original := Event{
		Timestamp:    time.Date(2026, 10, 18, 10, 15, 32, 123456789, time.UTC),
		ConnectionID: "abc12345-def6-7890-abcd-ef1234567890",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		RemoteAddr:   "127.0.0.1:52114",
		Channel:      "lan_discovery",
		Message: &MessageEvent{
			Type:           MessageTypeResult,
			MessageID:      7,
			Status:         &status,
			ErrorCode:      "LOCK_ERROR",
			ProcessingTime: &took,
		},
	}

	data, err := EncodeEvent(original)
	require.NoError(t, err)
	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	assert.True(t, decoded.Timestamp.Equal(original.Timestamp), "nanoseconds survive")
	assert.Equal(t, original.ConnectionID, decoded.ConnectionID)
	assert.Equal(t, original.Channel, decoded.Channel)
	require.NotNil(t, decoded.Message)
	require.NotNil(t, decoded.Message.Status)
	assert.Equal(t, wire.StatusError, *decoded.Message.Status)
	assert.Equal(t, "LOCK_ERROR", decoded.Message.ErrorCode)
	require.NotNil(t, decoded.Message.ProcessingTime)
	assert.Equal(t, took, *decoded.Message.ProcessingTime)
	assert.Nil(t, decoded.StateChange)
}

func TestPermitEventCBORHasOnePayload(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		Layer:     LayerService,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityPermit,
			OldState: "RELEASED",
			NewState: "HELD",
			Reason:   "acquireMulticast",
		},
	}

	data, err := EncodeEvent(original)
	require.NoError(t, err)
	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	require.NotNil(t, decoded.StateChange)
	assert.Equal(t, *original.StateChange, *decoded.StateChange)
	assert.Nil(t, decoded.Frame)
	assert.Nil(t, decoded.Message)
	assert.Nil(t, decoded.Error)
}

func TestDecodeEventGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte{0xff, 0x00})
	assert.Error(t, err)
}

func TestDecodeEventMapPayloadIsJSONable(t *testing.T) {
	data, err := EncodeEvent(Event{
		Message: &MessageEvent{
			Type:    MessageTypeCall,
			Payload: map[string]any{"reason": "scan", "ids": []any{map[uint8]string{7: "x"}}},
		},
	})
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)

	payload, ok := decoded.Message.Payload.(map[string]any)
	require.True(t, ok, "payload type %T", decoded.Message.Payload)
	assert.Equal(t, "scan", payload["reason"])
	assert.Equal(t, []any{map[string]any{"7": "x"}}, payload["ids"])

	_, err = json.Marshal(decoded)
	assert.NoError(t, err)
}
