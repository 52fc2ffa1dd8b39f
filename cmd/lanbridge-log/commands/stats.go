package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/log"
	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
)

// Stats summarizes a protocol log.
type Stats struct {
	TotalEvents int
	Connections map[string]bool
	TimeStart   time.Time
	TimeEnd     time.Time

	Calls        map[string]int // per CallKey
	Results      map[wire.Status]int
	ErrorCodes   map[string]int // failure results by code
	Errors       int
	PermitGrants int
	PermitFreed  int

	totalProcessing time.Duration
	timedResults    int
}

func newStats() *Stats {
	return &Stats{
		Connections: make(map[string]bool),
		Calls:       make(map[string]int),
		Results:     make(map[wire.Status]int),
		ErrorCodes:  make(map[string]int),
	}
}

// CallKey is the Stats.Calls key for a method on a channel.
func CallKey(channel, method string) string {
	if channel == "" {
		return method
	}
	return channel + "/" + method
}

// AverageProcessing returns the mean call handling time, or 0 when no
// result carried a processing time.
func (s *Stats) AverageProcessing() time.Duration {
	if s.timedResults == 0 {
		return 0
	}
	return s.totalProcessing / time.Duration(s.timedResults)
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++

	if s.TimeStart.IsZero() || event.Timestamp.Before(s.TimeStart) {
		s.TimeStart = event.Timestamp
	}
	if event.Timestamp.After(s.TimeEnd) {
		s.TimeEnd = event.Timestamp
	}
	if event.ConnectionID != "" {
		s.Connections[event.ConnectionID] = true
	}

	switch {
	case event.Message != nil:
		s.addMessage(event.Channel, event.Message)
	case event.StateChange != nil:
		if event.StateChange.Entity == log.StateEntityPermit {
			switch event.StateChange.NewState {
			case "HELD":
				s.PermitGrants++
			case "RELEASED":
				s.PermitFreed++
			}
		}
	case event.Error != nil:
		s.Errors++
	}
}

func (s *Stats) addMessage(channel string, msg *log.MessageEvent) {
	switch msg.Type {
	case log.MessageTypeCall:
		s.Calls[CallKey(channel, msg.Method)]++
	case log.MessageTypeResult:
		if msg.Status != nil {
			s.Results[*msg.Status]++
		}
		if msg.ErrorCode != "" {
			s.ErrorCodes[msg.ErrorCode]++
		}
		if msg.ProcessingTime != nil {
			s.totalProcessing += *msg.ProcessingTime
			s.timedResults++
		}
	}
}

// CollectStats reads the whole log at path.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
}

// RunStats prints a summary of the log at path.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, s *Stats) {
	fmt.Fprintf(w, "Total events: %d\n", s.TotalEvents)
	if s.TotalEvents == 0 {
		return
	}
	fmt.Fprintf(w, "Connections:  %d\n", len(s.Connections))
	fmt.Fprintf(w, "Time range:   %s - %s (%s)\n",
		s.TimeStart.UTC().Format(time.RFC3339),
		s.TimeEnd.UTC().Format(time.RFC3339),
		s.TimeEnd.Sub(s.TimeStart).Round(time.Millisecond))

	if len(s.Calls) > 0 {
		fmt.Fprintln(w, "\nCalls by channel/method:")
		for _, key := range sortedKeys(s.Calls) {
			fmt.Fprintf(w, "  %-32s %d\n", key, s.Calls[key])
		}
	}

	if len(s.Results) > 0 {
		fmt.Fprintln(w, "\nResults:")
		statuses := make([]wire.Status, 0, len(s.Results))
		for st := range s.Results {
			statuses = append(statuses, st)
		}
		sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
		for _, st := range statuses {
			fmt.Fprintf(w, "  %-20s %d\n", st, s.Results[st])
		}
		if avg := s.AverageProcessing(); avg > 0 {
			fmt.Fprintf(w, "  avg processing       %s\n", formatDuration(avg))
		}
	}

	if len(s.ErrorCodes) > 0 {
		fmt.Fprintln(w, "\nError codes:")
		for _, code := range sortedKeys(s.ErrorCodes) {
			fmt.Fprintf(w, "  %-20s %d\n", code, s.ErrorCodes[code])
		}
	}

	fmt.Fprintln(w, "\nPermit:")
	fmt.Fprintf(w, "  acquired             %d\n", s.PermitGrants)
	fmt.Fprintf(w, "  released             %d\n", s.PermitFreed)

	if s.Errors > 0 {
		fmt.Fprintf(w, "\nError events: %d\n", s.Errors)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
