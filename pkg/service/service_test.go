package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/bridge"
	"github.com/seguridad-en-casa/lanbridge/pkg/guard"
	"github.com/seguridad-en-casa/lanbridge/pkg/log"
	"github.com/seguridad-en-casa/lanbridge/pkg/permit/mocks"
	"github.com/seguridad-en-casa/lanbridge/pkg/transport"
	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingLogger) Events() []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]log.Event(nil), r.events...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	return cfg
}

// grantedPermit expects one acquisition and one release.
func grantedPermit(t *testing.T) *mocks.MockPermit {
	p := mocks.NewMockPermit(t)
	p.EXPECT().SetReferenceCounted(true).Return().Once()
	p.EXPECT().Acquire().Return(nil).Once()
	p.EXPECT().IsHeld().Return(true).Once()
	p.EXPECT().Release().Return(nil).Once()
	return p
}

func startService(t *testing.T, svc *mocks.MockService, cfg Config) *BridgeService {
	t.Helper()
	s, err := NewBridgeService(svc, cfg)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { s.Stop() })
	return s
}

func dial(t *testing.T, s *BridgeService) *transport.Client {
	t.Helper()
	c, err := transport.Dial(context.Background(), s.Network(), s.Addr(), transport.ClientConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func invoke(t *testing.T, c *transport.Client, method string) *wire.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := c.Invoke(ctx, bridge.ChannelName, method, nil)
	require.NoError(t, err)
	return res
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad network", func(c *Config) { c.Network = "udp" }},
		{"no address", func(c *Config) { c.Address = "" }},
		{"no channel", func(c *Config) { c.Channel = "" }},
		{"no tag", func(c *Config) { c.PermitTag = "" }},
		{"frame too large", func(c *Config) { c.MaxMessageSize = transport.DefaultMaxMessageSize + 1 }},
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

			_, err := NewBridgeService(mocks.NewMockService(t), cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestAcquireReleaseOverTransport(t *testing.T) {
	svc := mocks.NewMockService(t)
	svc.EXPECT().NewPermit(guard.DefaultTag).Return(grantedPermit(t), nil).Once()

	s := startService(t, svc, testConfig())
	c := dial(t, s)

	res := invoke(t, c, bridge.MethodAcquireMulticast)
	assert.Equal(t, wire.StatusSuccess, res.Status)
	assert.Equal(t, true, res.Payload)
	assert.True(t, s.Held())

	res = invoke(t, c, bridge.MethodMulticastStatus)
	assert.Equal(t, true, res.Payload)

	res = invoke(t, c, bridge.MethodReleaseMulticast)
	assert.Equal(t, true, res.Payload)
	assert.False(t, s.Held())
}

func TestUnknownMethodOverTransport(t *testing.T) {
	s := startService(t, mocks.NewMockService(t), testConfig())
	c := dial(t, s)

	res := invoke(t, c, "startBrowse")
	assert.True(t, res.IsNotImplemented())
	assert.Nil(t, res.Err())
}

func TestDeniedOverTransport(t *testing.T) {
	svc := mocks.NewMockService(t)
	p := mocks.NewMockPermit(t)
	p.EXPECT().SetReferenceCounted(true).Return().Once()
	p.EXPECT().Acquire().Return(errors.New("permission denied")).Once()
	svc.EXPECT().NewPermit(guard.DefaultTag).Return(p, nil).Once()

	s := startService(t, svc, testConfig())
	c := dial(t, s)

	res := invoke(t, c, bridge.MethodAcquireMulticast)
	var callErr *wire.CallError
	require.ErrorAs(t, res.Err(), &callErr)
	assert.Equal(t, bridge.ErrorCodeLock, callErr.Code)
	assert.Equal(t, "permission denied", callErr.Message)
	assert.False(t, s.Held())
}

func TestStopReleasesHeldPermit(t *testing.T) {
	svc := mocks.NewMockService(t)
	svc.EXPECT().NewPermit(guard.DefaultTag).Return(grantedPermit(t), nil).Once()

	s := startService(t, svc, testConfig())
	c := dial(t, s)
	invoke(t, c, bridge.MethodAcquireMulticast)
	require.True(t, s.Held())

	require.NoError(t, s.Stop())
	assert.False(t, s.Held())
	assert.Equal(t, StateStopped, s.State())

	// Second stop must not release again; the mock expects exactly one Release.
	require.NoError(t, s.Stop())
}

func TestStopWithoutPermit(t *testing.T) {
	s := startService(t, mocks.NewMockService(t), testConfig())
	require.NoError(t, s.Stop())
	assert.Equal(t, StateStopped, s.State())
}

func TestStartStates(t *testing.T) {
	s, err := NewBridgeService(mocks.NewMockService(t), testConfig())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Addr())

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateRunning, s.State())
	assert.NotEmpty(t, s.Addr())
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	require.NoError(t, s.Stop())
	assert.ErrorIs(t, s.Start(context.Background()), ErrStopped)
}

func TestBadFrameAnsweredWithBadRequest(t *testing.T) {
	s := startService(t, mocks.NewMockService(t), testConfig())

	conn, err := net.Dial(s.Network(), s.Addr())
	require.NoError(t, err)
	defer conn.Close()
	framer := transport.NewFramer(conn, 0)

	// Valid message ID, missing method.
	data, err := wire.Marshal(&wire.MethodCall{MessageID: 5, Channel: bridge.ChannelName})
	require.NoError(t, err)
	require.NoError(t, framer.WriteFrame(data))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame, err := framer.ReadFrame()
	require.NoError(t, err)
	res, err := wire.DecodeResult(frame)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), res.MessageID)
	assert.Equal(t, ErrorCodeBadRequest, res.ErrorCode)

	// Garbage without a message ID is dropped; the connection stays usable.
	require.NoError(t, framer.WriteFrame([]byte{0xff, 0x00, 0x13}))
	data, err = wire.EncodeCall(&wire.MethodCall{MessageID: 6, Channel: bridge.ChannelName, Method: "nope"})
	require.NoError(t, err)
	require.NoError(t, framer.WriteFrame(data))

	frame, err = framer.ReadFrame()
	require.NoError(t, err)
	res, err = wire.DecodeResult(frame)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), res.MessageID)
	assert.True(t, res.IsNotImplemented())
}

func TestEvents(t *testing.T) {
	svc := mocks.NewMockService(t)
	svc.EXPECT().NewPermit(guard.DefaultTag).Return(grantedPermit(t), nil).Once()

	s, err := NewBridgeService(svc, testConfig())
	require.NoError(t, err)

	events := make(chan Event, 16)
	s.OnEvent(func(e Event) { events <- e })
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	c := dial(t, s)
	invoke(t, c, bridge.MethodAcquireMulticast)
	invoke(t, c, bridge.MethodReleaseMulticast)

	seen := map[EventType]int{}
	var permitStates []string
	timeout := time.After(2 * time.Second)
	for seen[EventCallHandled] < 2 || seen[EventPermitChanged] < 2 || seen[EventConnected] < 1 {
		select {
		case e := <-events:
			seen[e.Type]++
			if e.Type == EventPermitChanged {
				assert.Empty(t, e.ConnID)
				permitStates = append(permitStates, fmt.Sprintf("%s:%t", e.Reason, e.Held))
			}
		case <-timeout:
			t.Fatalf("missing events, saw %v", seen)
		}
	}
	assert.ElementsMatch(t, []string{"acquire:true", "release:false"}, permitStates)
}

func TestPermitEventsUnderConcurrentCalls(t *testing.T) {
	svc := mocks.NewMockService(t)
	svc.EXPECT().NewPermit(guard.DefaultTag).Return(grantedPermit(t), nil).Once()

	s, err := NewBridgeService(svc, testConfig())
	require.NoError(t, err)

	events := make(chan Event, 64)
	s.OnEvent(func(e Event) {
		if e.Type == EventPermitChanged {
			events <- e
		}
	})
	require.NoError(t, s.Start(context.Background()))

	const shells = 4
	clients := make([]*transport.Client, shells)
	for i := range clients {
		clients[i] = dial(t, s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var wg sync.WaitGroup
	errs := make(chan error, shells)
	for _, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Invoke(ctx, bridge.ChannelName, bridge.MethodAcquireMulticast, nil)
			if err == nil && !res.IsSuccess() {
				err = fmt.Errorf("acquire answered %s", res.Status)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.NoError(t, s.Stop())

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case e := <-events:
			got = append(got, fmt.Sprintf("%s:%t", e.Reason, e.Held))
		case <-timeout:
			t.Fatalf("missing permit events, saw %v", got)
		}
	}
	select {
	case e := <-events:
		t.Fatalf("unexpected permit event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
	assert.ElementsMatch(t, []string{"acquire:true", "teardown:false"}, got)
}

func TestProtocolLogging(t *testing.T) {
	svc := mocks.NewMockService(t)
	svc.EXPECT().NewPermit(guard.DefaultTag).Return(grantedPermit(t), nil).Once()

	rec := &recordingLogger{}
	cfg := testConfig()
	cfg.ProtocolLogger = rec

	s := startService(t, svc, cfg)
	c := dial(t, s)
	invoke(t, c, bridge.MethodAcquireMulticast)
	require.NoError(t, s.Stop())

	var calls, results, permitChanges, serviceChanges int
	for _, e := range rec.Events() {
		switch {
		case e.Message != nil && e.Message.Type == log.MessageTypeCall:
			calls++
			assert.Equal(t, bridge.MethodAcquireMulticast, e.Message.Method)
			assert.Equal(t, bridge.ChannelName, e.Channel)
		case e.Message != nil && e.Message.Type == log.MessageTypeResult:
			results++
			require.NotNil(t, e.Message.Status)
			assert.Equal(t, wire.StatusSuccess, *e.Message.Status)
			assert.NotNil(t, e.Message.ProcessingTime)
		case e.StateChange != nil && e.StateChange.Entity == log.StateEntityPermit:
			permitChanges++
		case e.StateChange != nil && e.StateChange.Entity == log.StateEntityService:
			serviceChanges++
		}
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, results)
	assert.Equal(t, 2, permitChanges, "acquire and teardown")
	assert.Equal(t, 4, serviceChanges, "starting, running, stopping, stopped")
}

func TestServiceStateString(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "STOPPED", StateStopped.String())
	assert.Equal(t, "UNKNOWN", ServiceState(42).String())
	assert.Equal(t, "PERMIT_CHANGED", EventPermitChanged.String())
}
