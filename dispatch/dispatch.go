// Package dispatch drives an application handler over the events of one
// renderer request and folds the per-event action logs into a single
// ordered response.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openfacet/facet-go/internal/logctx"
	"github.com/openfacet/facet-go/ui"
	"github.com/openfacet/facet-go/wire"
)

// Handler processes one event against per-session application logic and
// returns the finalized action log for that event. It is invoked once
// per event, strictly in request order; the next invocation does not
// start until the previous one has returned.
type Handler func(ctx context.Context, sessionID string, root *ui.Root) (*ui.Response, error)

// Dispatcher parses requests and applies the batch error-isolation
// policy around a Handler.
type Dispatcher struct {
	log     *slog.Logger
	handler Handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used to report handler and parse failures.
// The default discards all records.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// New builds a Dispatcher around the application handler.
func New(handler Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:     slog.New(slog.DiscardHandler),
		handler: handler,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleRequest parses one request body and returns the flat ordered
// action array. Errors never escape as Go errors: a malformed body
// yields a single root_error action and no handler invocations, and a
// failing event contributes exactly one root_error action without
// dropping or blocking the events after it. A failed event's partial
// action log is discarded whole.
func (d *Dispatcher) HandleRequest(ctx context.Context, body []byte) []wire.Action {
	var req wire.Request
	if err := json.Unmarshal(body, &req); err != nil {
		d.log.ErrorContext(ctx, "invalid request body", slog.String("err", err.Error()))
		return []wire.Action{wire.NewErrorAction(fmt.Sprintf("Invalid request body. %v", err))}
	}

	actions := make([]wire.Action, 0)

	for _, ev := range req.Events {
		evCtx := logctx.WithEventData(ctx, &logctx.EventData{
			SessionID: req.SessionID,
			EventPath: ev.Key.EventPath.String(),
		})

		res, err := d.handler(evCtx, req.SessionID, ui.NewRoot(ev))
		if err != nil {
			d.log.ErrorContext(evCtx, "event handler failed", slog.String("err", err.Error()))
			actions = append(actions, wire.NewErrorAction(err.Error()))
			continue
		}

		actions = append(actions, res.Actions()...)
	}

	return actions
}
