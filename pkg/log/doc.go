// Package log records what the bridge does on the wire as a stream of
// typed events.
//
// The protocol log is distinct from the operational slog output. Each Event
// carries one payload: a raw frame, a decoded call or result, a state change
// (connection, permit or service) or an error. Events go to a Logger;
// FileLogger appends them as CBOR to an .mlog file, SlogAdapter mirrors them
// to a console logger and MultiLogger fans out to several sinks:
//
//	file, err := log.NewFileLogger("/var/log/lanbridge/bridge.mlog")
//	if err != nil {
//		return err
//	}
//	cfg.ProtocolLogger = log.NewMultiLogger(file, log.NewSlogAdapter(slog.Default()))
//
// Reader and Filter read a file back; cmd/lanbridge-log builds on them.
package log
