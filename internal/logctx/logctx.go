// Package logctx enriches slog records with request- and event-scoped
// attributes carried on the context, so that transport, dispatch, and
// application code all log with consistent correlation fields.
package logctx

import (
	"context"
	"log/slog"
)

type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("remote_addr", rd.RemoteAddr),
			slog.String("user_agent", rd.UserAgent),
		))
	}

	if ed, ok := ctx.Value(eventDataKey{}).(*EventData); ok {
		r.AddAttrs(slog.Group("event",
			slog.String("session_id", ed.SessionID),
			slog.String("path", ed.EventPath),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type requestDataKey struct{}

type RequestData struct {
	RequestID  string
	RemoteAddr string
	UserAgent  string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type eventDataKey struct{}

type EventData struct {
	SessionID string
	EventPath string
}

func WithEventData(ctx context.Context, data *EventData) context.Context {
	return context.WithValue(ctx, eventDataKey{}, data)
}
