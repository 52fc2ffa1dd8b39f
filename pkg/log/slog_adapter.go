package log

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors protocol events to an slog.Logger, typically the
// console at debug level. Error events are logged at warn so they surface
// at the default level too.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter returns an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes one record for the event.
func (a *SlogAdapter) Log(event Event) {
	level := slog.LevelDebug
	if event.Category == CategoryError {
		level = slog.LevelWarn
	}
	ctx := context.Background()
	if !a.logger.Enabled(ctx, level) {
		return
	}
	a.logger.LogAttrs(ctx, level, "protocol", eventAttrs(event)...)
}

func eventAttrs(event Event) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.ConnectionID != "" {
		attrs = append(attrs,
			slog.String("conn_id", event.ConnectionID),
			slog.String("direction", event.Direction.String()),
		)
	}
	attrs = appendNonEmpty(attrs, "remote_addr", event.RemoteAddr)
	attrs = appendNonEmpty(attrs, "channel", event.Channel)

	switch {
	case event.Frame != nil:
		attrs = append(attrs, slog.Group("frame",
			slog.Int("size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		))
	case event.Message != nil:
		attrs = append(attrs, slog.Group("wire", messageAttrs(event.Message)...))
	case event.StateChange != nil:
		sc := event.StateChange
		group := []any{
			slog.String("entity", sc.Entity.String()),
			slog.String("from", sc.OldState),
			slog.String("to", sc.NewState),
		}
		if sc.Reason != "" {
			group = append(group, slog.String("reason", sc.Reason))
		}
		attrs = append(attrs, slog.Group("state", group...))
	case event.Error != nil:
		group := []any{
			slog.String("layer", event.Error.Layer.String()),
			slog.String("message", event.Error.Message),
		}
		if event.Error.Code != "" {
			group = append(group, slog.String("code", event.Error.Code))
		}
		if event.Error.Context != "" {
			group = append(group, slog.String("context", event.Error.Context))
		}
		attrs = append(attrs, slog.Group("error", group...))
	}
	return attrs
}

func messageAttrs(msg *MessageEvent) []any {
	attrs := []any{
		slog.String("type", msg.Type.String()),
		slog.Uint64("id", uint64(msg.MessageID)),
	}
	if msg.Method != "" {
		attrs = append(attrs, slog.String("method", msg.Method))
	}
	if msg.Status != nil {
		attrs = append(attrs, slog.String("status", msg.Status.String()))
	}
	if msg.ErrorCode != "" {
		attrs = append(attrs, slog.String("error_code", msg.ErrorCode))
	}
	if msg.ProcessingTime != nil {
		attrs = append(attrs, slog.Duration("took", *msg.ProcessingTime))
	}
	return attrs
}

func appendNonEmpty(attrs []slog.Attr, key, value string) []slog.Attr {
	if value == "" {
		return attrs
	}
	return append(attrs, slog.String(key, value))
}

var _ Logger = (*SlogAdapter)(nil)
