package channel

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(id uint32, method string) *wire.MethodCall {
	return &wire.MethodCall{MessageID: id, Channel: "test", Method: method}
}

func TestInvokeSuccess(t *testing.T) {
	ch := New("test", nil)
	ch.Handle("ping", func(context.Context, any) (any, error) {
		return true, nil
	})

	res := ch.Invoke(context.Background(), call(7, "ping"))
	require.NotNil(t, res)
	assert.Equal(t, uint32(7), res.MessageID)
	assert.Equal(t, wire.StatusSuccess, res.Status)
	assert.Equal(t, true, res.Payload)
}

func TestInvokePassesArguments(t *testing.T) {
	ch := New("test", nil)
	ch.Handle("echo", func(_ context.Context, args any) (any, error) {
		return args, nil
	})

	c := call(1, "echo")
	c.Arguments = "wlan0"
	res := ch.Invoke(context.Background(), c)
	assert.Equal(t, "wlan0", res.Payload)
}

func TestInvokeNotImplemented(t *testing.T) {
	ch := New("test", nil)
	ch.Handle("ping", func(context.Context, any) (any, error) { return nil, nil })

	tests := []struct {
		name string
		call *wire.MethodCall
	}{
		{"unknown method", call(1, "frobnicate")},
		{"case sensitive", call(2, "Ping")},
		{"other channel", &wire.MethodCall{MessageID: 3, Channel: "other", Method: "ping"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ch.Invoke(context.Background(), tt.call)
			assert.True(t, res.IsNotImplemented())
			assert.Equal(t, tt.call.MessageID, res.MessageID)
			assert.Empty(t, res.ErrorCode)
		})
	}
}

func TestInvokeCodedError(t *testing.T) {
	ch := New("test", nil)
	ch.Handle("lock", func(context.Context, any) (any, error) {
		return nil, fmt.Errorf("wrapped: %w", NewError("LOCK_ERROR", "permission denied", nil))
	})

	res := ch.Invoke(context.Background(), call(4, "lock"))
	assert.Equal(t, wire.StatusError, res.Status)
	assert.Equal(t, "LOCK_ERROR", res.ErrorCode)
	assert.Equal(t, "permission denied", res.ErrorMessage)
	assert.Nil(t, res.ErrorDetails)
}

func TestInvokePlainError(t *testing.T) {
	ch := New("test", nil)
	ch.Handle("fail", func(context.Context, any) (any, error) {
		return nil, errors.New("boom")
	})

	res := ch.Invoke(context.Background(), call(5, "fail"))
	assert.Equal(t, wire.StatusError, res.Status)
	assert.Equal(t, CodeGeneric, res.ErrorCode)
	assert.Equal(t, "boom", res.ErrorMessage)
}

func TestInvokeRecoversPanic(t *testing.T) {
	ch := New("test", nil)
	ch.Handle("explode", func(context.Context, any) (any, error) {
		panic("kaboom")
	})

	res := ch.Invoke(context.Background(), call(6, "explode"))
	require.NotNil(t, res)
	assert.Equal(t, uint32(6), res.MessageID)
	assert.Equal(t, wire.StatusError, res.Status)
	assert.Equal(t, CodeGeneric, res.ErrorCode)
	assert.Contains(t, res.ErrorMessage, "kaboom")
}

func TestHandleReplaceAndRemove(t *testing.T) {
	ch := New("test", nil)
	ch.Handle("v", func(context.Context, any) (any, error) { return 1, nil })
	ch.Handle("v", func(context.Context, any) (any, error) { return 2, nil })
	assert.Equal(t, 1, ch.Methods())

	res := ch.Invoke(context.Background(), call(1, "v"))
	assert.Equal(t, 2, res.Payload)

	ch.Handle("v", nil)
	assert.Equal(t, 0, ch.Methods())
	assert.True(t, ch.Invoke(context.Background(), call(2, "v")).IsNotImplemented())
}

func TestErrorString(t *testing.T) {
	err := NewError("LOCK_ERROR", "permission denied", nil)
	assert.Equal(t, "LOCK_ERROR: permission denied", err.Error())
}
