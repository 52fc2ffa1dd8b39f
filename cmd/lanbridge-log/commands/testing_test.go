package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/log"
	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
)

// createTestLogFile writes events to a fresh log file and returns its path.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.mlog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create log file: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close log file: %v", err)
	}
	return path
}

// sessionEvents is one acquire call that fails with LOCK_ERROR, followed by
// a successful acquire and release on a second connection.
func sessionEvents() []log.Event {
	ts := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	success := wire.StatusSuccess
	failed := wire.StatusError
	took := 1500 * time.Microsecond

	call := func(at time.Duration, conn string, id uint32, method string) log.Event {
		return log.Event{
			Timestamp:    ts.Add(at),
			ConnectionID: conn,
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			Channel:      "lan_discovery",
			Message:      &log.MessageEvent{Type: log.MessageTypeCall, MessageID: id, Method: method},
		}
	}
	result := func(at time.Duration, conn string, id uint32, status *wire.Status, code string) log.Event {
		return log.Event{
			Timestamp:    ts.Add(at),
			ConnectionID: conn,
			Direction:    log.DirectionOut,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			Channel:      "lan_discovery",
			Message: &log.MessageEvent{
				Type:           log.MessageTypeResult,
				MessageID:      id,
				Status:         status,
				ErrorCode:      code,
				ProcessingTime: &took,
			},
		}
	}
	permit := func(at time.Duration, from, to, reason string) log.Event {
		return log.Event{
			Timestamp: ts.Add(at),
			Layer:     log.LayerService,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityPermit,
				OldState: from,
				NewState: to,
				Reason:   reason,
			},
		}
	}

	return []log.Event{
		call(0, "conn-aaaaaaaa-1", 1, "acquireMulticast"),
		{
			Timestamp: ts.Add(time.Millisecond),
			Layer:     log.LayerService,
			Category:  log.CategoryError,
			Error:     &log.ErrorEventData{Layer: log.LayerService, Message: "no multicast interface", Code: "LOCK_ERROR", Context: "acquire"},
		},
		result(2*time.Millisecond, "conn-aaaaaaaa-1", 1, &failed, "LOCK_ERROR"),
		call(time.Second, "conn-bbbbbbbb-2", 1, "acquireMulticast"),
		permit(time.Second+time.Millisecond, "RELEASED", "HELD", "acquire"),
		result(time.Second+2*time.Millisecond, "conn-bbbbbbbb-2", 1, &success, ""),
		call(2*time.Second, "conn-bbbbbbbb-2", 2, "releaseMulticast"),
		permit(2*time.Second+time.Millisecond, "HELD", "RELEASED", "release"),
		result(2*time.Second+2*time.Millisecond, "conn-bbbbbbbb-2", 2, &success, ""),
	}
}
