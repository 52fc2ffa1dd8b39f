// Package permit provides the host-side multicast-reception permit used by
// the lan_discovery bridge.
//
// A permit corresponds to the platform's multicast lock: while it is held,
// the process is a member of the mDNS multicast groups (224.0.0.251 and,
// optionally, ff02::fb) on the selected interfaces, which makes the host
// deliver multicast traffic for those groups. Discovery itself (sending and
// answering mDNS queries) is done by the application on its own sockets.
//
// # Reference Counting
//
// Permits follow the platform's lock semantics:
//   - Reference counted: every Acquire must be balanced by a Release. The
//     groups are left when the count drops to zero.
//   - Not reference counted: any number of Acquire calls are undone by a
//     single Release.
//
// Releasing a permit that is not held returns ErrUnderLocked.
package permit
