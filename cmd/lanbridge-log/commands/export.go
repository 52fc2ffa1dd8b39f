package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/seguridad-en-casa/lanbridge/pkg/log"
)

// RunExport writes every event in the log at path to w as jsonl or csv.
func RunExport(path, format string, w io.Writer) error {
	var write func(log.Event) error
	var flush func() error

	switch format {
	case "jsonl":
		encoder := json.NewEncoder(w)
		write = func(e log.Event) error { return encoder.Encode(e) }
		flush = func() error { return nil }
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		write = func(e log.Event) error { return cw.Write(csvRow(e)) }
		flush = func() error {
			cw.Flush()
			return cw.Error()
		}
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := write(event); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
	return flush()
}

var csvHeader = []string{
	"timestamp", "connection_id", "direction", "layer", "category", "channel",
	"type", "message_id", "method", "status", "error_code",
}

// csvRow flattens event into csvHeader's columns. State changes put the new
// state in the status column.
func csvRow(event log.Event) []string {
	eventType := "unknown"
	var msgID, method, status, code string
	switch {
	case event.Frame != nil:
		eventType = "frame"
	case event.Message != nil:
		eventType = event.Message.Type.String()
		msgID = strconv.FormatUint(uint64(event.Message.MessageID), 10)
		method = event.Message.Method
		if event.Message.Status != nil {
			status = event.Message.Status.String()
		}
		code = event.Message.ErrorCode
	case event.StateChange != nil:
		eventType = "state"
		status = event.StateChange.NewState
	case event.Error != nil:
		eventType = "error"
		code = event.Error.Code
	}

	return []string{
		event.Timestamp.UTC().Format(viewTimeLayout),
		event.ConnectionID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		event.Channel,
		eventType,
		msgID,
		method,
		status,
		code,
	}
}
