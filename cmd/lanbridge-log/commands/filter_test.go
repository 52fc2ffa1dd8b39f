package commands

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/seguridad-en-casa/lanbridge/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()

	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	var events []log.Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		events = append(events, event)
	}
}

func TestFilterByConnectionID(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	outPath := filepath.Join(t.TempDir(), "filtered.mlog")

	n, err := RunFilter(path, outPath, log.Filter{ConnectionID: "conn-bbbbbbbb-2"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 4 {
		t.Errorf("RunFilter wrote %d events, want 4", n)
	}

	events := readAll(t, outPath)
	if len(events) != 4 {
		t.Fatalf("expected 4 events in output, got %d", len(events))
	}
	for _, e := range events {
		if e.ConnectionID != "conn-bbbbbbbb-2" {
			t.Errorf("expected conn-bbbbbbbb-2, got %s", e.ConnectionID)
		}
	}
}

func TestFilterByDirection(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	outPath := filepath.Join(t.TempDir(), "filtered.mlog")

	out := log.DirectionOut
	n, err := RunFilter(path, outPath, log.Filter{Direction: &out, Channel: "lan_discovery"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 3 {
		t.Errorf("RunFilter wrote %d events, want 3 results", n)
	}
	for _, e := range readAll(t, outPath) {
		if e.Message == nil || e.Message.Type != log.MessageTypeResult {
			t.Errorf("expected only results, got %+v", e)
		}
	}
}

func TestFilterPermitTransitions(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	outPath := filepath.Join(t.TempDir(), "permit.mlog")

	permit := log.StateEntityPermit
	n, err := RunFilter(path, outPath, log.Filter{Entity: &permit})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("RunFilter wrote %d events, want 2", n)
	}
	events := readAll(t, outPath)
	if events[0].StateChange.NewState != "HELD" || events[1].StateChange.NewState != "RELEASED" {
		t.Errorf("unexpected transitions: %+v, %+v", events[0].StateChange, events[1].StateChange)
	}
}

func TestFilterByMethod(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	outPath := filepath.Join(t.TempDir(), "acquire.mlog")

	n, err := RunFilter(path, outPath, log.Filter{Method: "acquireMulticast"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("RunFilter wrote %d events, want 2 acquire calls", n)
	}
}

func TestFilterRequiresOutput(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	if _, err := RunFilter(path, "", log.Filter{}); err == nil {
		t.Error("expected error without output path")
	}
}
