package logctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	inner := slog.NewTextHandler(buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(Handler{Handler: inner})
}

func TestHandleWithoutContextData(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf)

	log.InfoContext(context.Background(), "plain")

	got := buf.String()
	if strings.Contains(got, "req.") || strings.Contains(got, "event.") {
		t.Fatalf("unexpected correlation attrs: %q", got)
	}
}

func TestHandleAddsRequestAndEventData(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf)

	ctx := WithRequestData(context.Background(), &RequestData{
		RequestID:  "req-1",
		RemoteAddr: "10.0.0.1:1234",
		UserAgent:  "renderer/1.0",
	})
	ctx = WithEventData(ctx, &EventData{
		SessionID: "sess-1",
		EventPath: "/main/step",
	})

	log.InfoContext(ctx, "handled")

	got := buf.String()
	for _, want := range []string{
		"req.id=req-1",
		"req.remote_addr=10.0.0.1:1234",
		"req.user_agent=renderer/1.0",
		"event.session_id=sess-1",
		"event.path=/main/step",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("record missing %q: %q", want, got)
		}
	}
}
