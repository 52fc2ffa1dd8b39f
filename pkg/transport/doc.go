// Package transport carries method calls between the application shell and
// the bridge over a local stream socket.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   CBOR MethodCall / Result     │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│    TCP loopback or Unix socket │
//	└────────────────────────────────┘
//
// Every frame is a 4-byte big-endian payload length followed by the
// payload. Frames are limited to DefaultMaxMessageSize bytes.
//
// The bridge is a platform-local boundary: the listener binds loopback or a
// filesystem socket and performs no authentication of its own.
package transport
