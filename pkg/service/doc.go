// Package service runs the lan_discovery bridge as a local service.
//
// BridgeService owns the multicast guard, the bridge and the transport
// server. Calls arriving on any connection are decoded, dispatched on the
// method channel and answered on the same connection. Stopping the service
// closes the listener first and then runs the bridge teardown, so a permit
// still held by the shell is given back exactly once.
//
// Example usage:
//
//	permits := permit.NewMulticastService(permit.Config{})
//	svc, err := service.NewBridgeService(permits, service.DefaultConfig())
//	svc.Start(ctx)
//	defer svc.Stop()
package service
