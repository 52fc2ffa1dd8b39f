package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/bridge"
	"github.com/seguridad-en-casa/lanbridge/pkg/guard"
	"github.com/seguridad-en-casa/lanbridge/pkg/log"
	"github.com/seguridad-en-casa/lanbridge/pkg/permit"
	"github.com/seguridad-en-casa/lanbridge/pkg/transport"
	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
)

// BridgeService serves the lan_discovery bridge to local shells.
type BridgeService struct {
	mu sync.RWMutex

	config Config
	state  ServiceState

	guard  *guard.Guard
	bridge *bridge.Bridge
	server *transport.Server

	eventHandlers []EventHandler
}

// NewBridgeService creates a bridge service over the given permit service.
func NewBridgeService(permits permit.Service, config Config) (*BridgeService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &BridgeService{
		config: config,
		state:  StateIdle,
	}
	s.guard = guard.New(permits, guard.Config{
		Tag:            config.PermitTag,
		Logger:         config.Logger,
		ProtocolLogger: config.ProtocolLogger,
		OnStateChange:  s.handlePermitChange,
	})
	s.bridge = bridge.New(s.guard, config.Channel, config.Logger)

	server, err := transport.NewServer(transport.ServerConfig{
		Network:        config.Network,
		Address:        config.Address,
		MaxMessageSize: config.MaxMessageSize,
		Logger:         config.ProtocolLogger,
		OnConnect:      s.handleConnect,
		OnDisconnect:   s.handleDisconnect,
		OnMessage:      s.handleMessage,
		OnError:        s.handleError,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	s.server = server

	return s, nil
}

// State returns the current service state.
func (s *BridgeService) State() ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Held reports whether the multicast permit is held.
func (s *BridgeService) Held() bool {
	return s.guard.Held()
}

// Addr returns the listen address, or "" before Start.
func (s *BridgeService) Addr() string {
	if addr := s.server.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Network returns the listen network.
func (s *BridgeService) Network() string {
	return s.config.Network
}

// OnEvent registers an event handler.
func (s *BridgeService) OnEvent(handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventHandlers = append(s.eventHandlers, handler)
}

// Start starts accepting shell connections.
func (s *BridgeService) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateIdle:
	case StateStopping, StateStopped:
		s.mu.Unlock()
		return ErrStopped
	default:
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.setStateLocked(StateStarting)
	s.mu.Unlock()

	if err := s.server.Start(ctx); err != nil {
		s.mu.Lock()
		s.setStateLocked(StateIdle)
		s.mu.Unlock()
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.mu.Lock()
	s.setStateLocked(StateRunning)
	s.mu.Unlock()

	if s.config.Logger != nil {
		s.config.Logger.Info("bridge listening",
			"network", s.config.Network, "address", s.Addr(), "channel", s.config.Channel)
	}
	return nil
}

// Stop closes the listener and all connections, then releases the permit.
// Only the first call has an effect.
func (s *BridgeService) Stop() error {
	s.mu.Lock()
	if s.state == StateStopping || s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.setStateLocked(StateStopping)
	s.mu.Unlock()

	// No handler runs after the server has stopped, so teardown sees the
	// final permit state.
	err := s.server.Stop()
	wasHeld := s.guard.Held()
	s.bridge.Close()

	s.mu.Lock()
	s.setStateLocked(StateStopped)
	s.mu.Unlock()

	if s.config.Logger != nil {
		s.config.Logger.Info("bridge stopped", "released_permit", wasHeld)
	}
	return err
}

func (s *BridgeService) setStateLocked(state ServiceState) {
	old := s.state
	s.state = state
	if s.config.ProtocolLogger != nil {
		s.config.ProtocolLogger.Log(log.Event{
			Timestamp: time.Now(),
			Layer:     log.LayerService,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityService,
				OldState: old.String(),
				NewState: state.String(),
			},
		})
	}
}

func (s *BridgeService) handleConnect(conn *transport.ServerConn) {
	s.debugLog("shell connected", "conn_id", conn.ConnID(), "remote", conn.RemoteAddr())
	s.emitEvent(Event{Type: EventConnected, ConnID: conn.ConnID()})
}

func (s *BridgeService) handleDisconnect(conn *transport.ServerConn) {
	s.debugLog("shell disconnected", "conn_id", conn.ConnID())
	s.emitEvent(Event{Type: EventDisconnected, ConnID: conn.ConnID()})
}

func (s *BridgeService) handleError(conn *transport.ServerConn, err error) {
	if s.config.Logger == nil {
		return
	}
	if conn == nil {
		s.config.Logger.Warn("listener error", "error", err)
		return
	}
	s.config.Logger.Warn("connection error", "conn_id", conn.ConnID(), "error", err)
}

// handleMessage answers one frame.
func (s *BridgeService) handleMessage(conn *transport.ServerConn, data []byte) {
	received := time.Now()

	call, err := wire.DecodeCall(data)
	if err != nil {
		s.handleBadFrame(conn, data, err)
		return
	}
	s.logMessage(conn, call.Channel, &log.MessageEvent{
		Type:      log.MessageTypeCall,
		MessageID: call.MessageID,
		Method:    call.Method,
		Payload:   call.Arguments,
	}, log.DirectionIn)

	result := s.bridge.Channel().Invoke(conn.Context(), call)

	s.send(conn, call.Channel, call.Method, result, time.Since(received))

	s.emitEvent(Event{
		Type:   EventCallHandled,
		ConnID: conn.ConnID(),
		Method: call.Method,
		Result: result.Status.String(),
	})
}

// handlePermitChange runs under the guard's lock, once per transition.
func (s *BridgeService) handlePermitChange(_, to guard.State, op guard.Op) {
	s.emitEvent(Event{Type: EventPermitChanged, Held: to == guard.StateHeld, Reason: op.String()})
}

// handleBadFrame answers an undecodable call when its message ID can be
// recovered. Otherwise the frame is dropped, since there is nothing to
// correlate an answer with.
func (s *BridgeService) handleBadFrame(conn *transport.ServerConn, data []byte, decodeErr error) {
	id, err := wire.PeekMessageID(data)
	if err != nil || id == wire.ReservedMessageID {
		if s.config.Logger != nil {
			s.config.Logger.Warn("dropping undecodable frame",
				"conn_id", conn.ConnID(), "size", len(data), "error", decodeErr)
		}
		if s.config.ProtocolLogger != nil {
			s.config.ProtocolLogger.Log(log.Event{
				Timestamp:    time.Now(),
				ConnectionID: conn.ConnID(),
				Direction:    log.DirectionIn,
				Layer:        log.LayerWire,
				Category:     log.CategoryError,
				RemoteAddr:   conn.RemoteAddr(),
				Error: &log.ErrorEventData{
					Layer:   log.LayerWire,
					Message: decodeErr.Error(),
					Context: "decode call",
				},
			})
		}
		return
	}

	s.debugLog("bad request", "conn_id", conn.ConnID(), "message_id", id, "error", decodeErr)
	s.send(conn, "", "", wire.Failure(id, ErrorCodeBadRequest, decodeErr.Error(), nil), 0)
}

func (s *BridgeService) send(conn *transport.ServerConn, channel, method string, result *wire.Result, elapsed time.Duration) {
	data, err := wire.EncodeResult(result)
	if err != nil {
		// Handler payloads that CBOR cannot carry.
		result = wire.Failure(result.MessageID, "ENCODE_ERROR", err.Error(), nil)
		data, err = wire.EncodeResult(result)
		if err != nil {
			return
		}
	}

	if err := conn.Send(data); err != nil {
		s.debugLog("send failed", "conn_id", conn.ConnID(), "error", err)
		return
	}

	status := result.Status
	s.logMessage(conn, channel, &log.MessageEvent{
		Type:           log.MessageTypeResult,
		MessageID:      result.MessageID,
		Method:         method,
		Status:         &status,
		ErrorCode:      result.ErrorCode,
		Payload:        result.Payload,
		ProcessingTime: &elapsed,
	}, log.DirectionOut)
}

func (s *BridgeService) logMessage(conn *transport.ServerConn, channel string, msg *log.MessageEvent, dir log.Direction) {
	if s.config.ProtocolLogger == nil {
		return
	}
	s.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: conn.ConnID(),
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		RemoteAddr:   conn.RemoteAddr(),
		Channel:      channel,
		Message:      msg,
	})
}

// emitEvent sends an event to all registered handlers.
func (s *BridgeService) emitEvent(event Event) {
	s.mu.RLock()
	handlers := s.eventHandlers
	s.mu.RUnlock()
	for _, handler := range handlers {
		go handler(event)
	}
}

func (s *BridgeService) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}
