package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/seguridad-en-casa/lanbridge/pkg/log"
)

// capturingLogger captures log events for testing.
type capturingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *capturingLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *capturingLogger) Events() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"single byte", []byte{0x42}},
		{"small", []byte("acquireMulticast")},
		{"binary", []byte{0x00, 0xFF, 0x7F, 0x80}},
		{"max size", bytes.Repeat([]byte("y"), DefaultMaxMessageSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			if err := NewFrameWriter(buf, 0).WriteFrame(tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}
			if buf.Len() != FrameSize(len(tt.payload)) {
				t.Errorf("frame size = %d, want %d", buf.Len(), FrameSize(len(tt.payload)))
			}
			if got := binary.BigEndian.Uint32(buf.Bytes()[:LengthPrefixSize]); got != uint32(len(tt.payload)) {
				t.Errorf("length prefix = %d, want %d", got, len(tt.payload))
			}

			got, err := NewFrameReader(buf, 0).ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Error("payload mismatch")
			}
		})
	}
}

func TestFrameWriterRejects(t *testing.T) {
	w := NewFrameWriter(io.Discard, 8)

	if err := w.WriteFrame(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("empty: got %v, want ErrMessageEmpty", err)
	}
	if err := w.WriteFrame(make([]byte, 9)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("oversize: got %v, want ErrMessageTooLarge", err)
	}
}

func TestFrameReaderErrors(t *testing.T) {
	prefix := func(n uint32) []byte {
		b := make([]byte, LengthPrefixSize)
		binary.BigEndian.PutUint32(b, n)
		return b
	}

	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{"clean eof", nil, io.EOF},
		{"truncated prefix", []byte{0x00, 0x01}, ErrFrameTruncated},
		{"zero length", prefix(0), ErrMessageEmpty},
		{"too large", prefix(DefaultMaxMessageSize + 1), ErrMessageTooLarge},
		{"truncated payload", append(prefix(10), 1, 2, 3), ErrFrameTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFrameReader(bytes.NewReader(tt.input), 0).ReadFrame()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFramerSequence(t *testing.T) {
	buf := new(bytes.Buffer)
	f := NewFramer(buf, 0)

	msgs := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, m := range msgs {
		if err := f.WriteFrame(m); err != nil {
			t.Fatalf("WriteFrame failed: %v", err)
		}
	}
	for _, want := range msgs {
		got, err := f.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if _, err := f.ReadFrame(); err != io.EOF {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
}

func TestFramerLogsFrames(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := &capturingLogger{}
	f := NewFramer(buf, 0)
	f.SetLogger(logger, "conn-1")

	if err := f.WriteFrame([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ReadFrame(); err != nil {
		t.Fatal(err)
	}

	events := logger.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	wantDir := []log.Direction{log.DirectionOut, log.DirectionIn}
	for i, e := range events {
		if e.ConnectionID != "conn-1" {
			t.Errorf("event %d: ConnectionID = %q", i, e.ConnectionID)
		}
		if e.Direction != wantDir[i] {
			t.Errorf("event %d: Direction = %v, want %v", i, e.Direction, wantDir[i])
		}
		if e.Layer != log.LayerTransport || e.Category != log.CategoryMessage {
			t.Errorf("event %d: layer/category = %v/%v", i, e.Layer, e.Category)
		}
		if e.Frame == nil || e.Frame.Size != FrameSize(5) || string(e.Frame.Data) != "hello" {
			t.Errorf("event %d: unexpected frame %+v", i, e.Frame)
		}
	}
}

func TestFramerLogsTruncatedData(t *testing.T) {
	logger := &capturingLogger{}
	w := NewFrameWriter(io.Discard, 0)
	w.SetLogger(logger, "conn-2")

	payload := bytes.Repeat([]byte("z"), MaxLogFrameDataSize+100)
	if err := w.WriteFrame(payload); err != nil {
		t.Fatal(err)
	}

	e := logger.Events()[0]
	if !e.Frame.Truncated {
		t.Error("expected Truncated")
	}
	if len(e.Frame.Data) != MaxLogFrameDataSize {
		t.Errorf("logged %d bytes, want %d", len(e.Frame.Data), MaxLogFrameDataSize)
	}
	if e.Frame.Size != FrameSize(len(payload)) {
		t.Errorf("Size = %d, want %d", e.Frame.Size, FrameSize(len(payload)))
	}
}

func TestFrameWriterConcurrent(t *testing.T) {
	pr, pw := io.Pipe()
	w := NewFrameWriter(pw, 0)
	r := NewFrameReader(pr, 0)

	const n = 20
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w.WriteFrame(bytes.Repeat([]byte{byte(i + 1)}, 100))
		}(i)
	}
	go func() {
		wg.Wait()
		pw.Close()
	}()

	count := 0
	for {
		data, err := r.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		// Interleaved writes would mix bytes within a frame.
		for _, b := range data {
			if b != data[0] {
				t.Fatal("frame contents interleaved")
			}
		}
		count++
	}
	if count != n {
		t.Errorf("read %d frames, want %d", count, n)
	}
}
