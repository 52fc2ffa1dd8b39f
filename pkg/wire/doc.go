// Package wire defines the CBOR wire format of the lan_discovery method
// channel.
//
// Messages use CBOR (RFC 8949) with integer keys and are length-prefixed by
// the transport layer.
//
// # Message Types
//
// There are two message types:
//   - MethodCall: application shell to bridge (channel + method name)
//   - Result: bridge to application shell (success, error or not implemented)
//
// A Result always carries the MessageID of the call it answers. MessageID 0
// is reserved and never used by a call.
//
// # Status
//
// Error results carry a stable string code (for example LOCK_ERROR) and a
// message. Not-implemented results carry neither; they only tell the caller
// that the channel has no handler for the method.
package wire
