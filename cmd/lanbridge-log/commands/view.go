package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/log"
)

const viewTimeLayout = "2006-01-02T15:04:05.000000Z"

// RunView prints the events matching filter in human-readable form.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
	return nil
}

// detail is one indented "Key: value" line under an event header.
type detail struct {
	key, value string
}

// formatEvent writes a header line, the payload details and a blank line:
//
//	2026-10-18T09:12:01.000123Z [conn:1f0c2a9b] IN  WIRE CALL lan_discovery
//	  MessageID: 3
//	  Method: acquireMulticast
func formatEvent(w io.Writer, event log.Event) {
	label, details := describe(event)

	conn := "-"
	if id := event.ConnectionID; id != "" {
		conn = id[:min(len(id), 8)]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [conn:%s] %-3s %s %s",
		event.Timestamp.UTC().Format(viewTimeLayout), conn, event.Direction, event.Layer, label)
	if event.Channel != "" {
		b.WriteString(" " + event.Channel)
	}
	b.WriteByte('\n')
	for _, d := range details {
		if d.key == "" {
			fmt.Fprintf(&b, "  %s\n", d.value)
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", d.key, d.value)
	}
	b.WriteByte('\n')
	io.WriteString(w, b.String())
}

func describe(event log.Event) (string, []detail) {
	switch {
	case event.Frame != nil:
		return "Frame", frameDetails(event.Frame)
	case event.Message != nil:
		return event.Message.Type.String(), messageDetails(event.Message)
	case event.StateChange != nil:
		return "State", stateDetails(event.StateChange)
	case event.Error != nil:
		return "Error", errorDetails(event.Error)
	}
	return "Unknown", nil
}

// appendSet appends key: value when value is non-empty.
func appendSet(ds []detail, key, value string) []detail {
	if value == "" {
		return ds
	}
	return append(ds, detail{key, value})
}

func frameDetails(frame *log.FrameEvent) []detail {
	ds := []detail{{"Size", fmt.Sprintf("%d bytes", frame.Size)}}
	if len(frame.Data) == 0 {
		return ds
	}
	data := hex.EncodeToString(frame.Data)
	if frame.Truncated {
		data += " (truncated)"
	}
	return append(ds, detail{"Data", data})
}

func messageDetails(msg *log.MessageEvent) []detail {
	ds := []detail{{"MessageID", fmt.Sprint(msg.MessageID)}}
	ds = appendSet(ds, "Method", msg.Method)
	if msg.Status != nil {
		ds = append(ds, detail{"Status", fmt.Sprintf("%s (%d)", *msg.Status, *msg.Status)})
	}
	ds = appendSet(ds, "ErrorCode", msg.ErrorCode)
	if msg.ProcessingTime != nil {
		ds = append(ds, detail{"Duration", formatDuration(*msg.ProcessingTime)})
	}
	if msg.Payload != nil {
		if raw, err := json.Marshal(msg.Payload); err == nil {
			ds = append(ds, detail{"Payload", string(raw)})
		}
	}
	return ds
}

func stateDetails(sc *log.StateChangeEvent) []detail {
	transition := "-> " + sc.NewState
	if sc.OldState != "" {
		transition = sc.OldState + " " + transition
	}
	ds := []detail{
		{"Entity", sc.Entity.String()},
		{"", transition},
	}
	return appendSet(ds, "Reason", sc.Reason)
}

func errorDetails(e *log.ErrorEventData) []detail {
	ds := []detail{
		{"Layer", e.Layer.String()},
		{"Message", e.Message},
	}
	ds = appendSet(ds, "Code", e.Code)
	return appendSet(ds, "Context", e.Context)
}

// formatDuration prints d with three decimals in us, ms or s.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.3fus", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}
