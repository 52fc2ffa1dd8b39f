package log

import (
	"errors"
	"io"
)

// MultiLogger fans each event out to a fixed set of sinks, typically a
// FileLogger and a SlogAdapter.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger returns a MultiLogger over the given sinks. Nil sinks and
// NoopLoggers are dropped, nested MultiLoggers are flattened.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, s := range sinks {
		switch s := s.(type) {
		case nil, NoopLogger:
		case *MultiLogger:
			m.sinks = append(m.sinks, s.sinks...)
		default:
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of sinks.
func (m *MultiLogger) Len() int {
	return len(m.sinks)
}

// Log forwards the event to every sink in order.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

// Close closes every sink that implements io.Closer and returns the joined
// errors.
func (m *MultiLogger) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

var _ Logger = (*MultiLogger)(nil)
