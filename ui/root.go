package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openfacet/facet-go/wire"
)

// mainScopeSegment is the literal top-level scope every client handle is
// rooted at.
const mainScopeSegment = "main"

// Root is the mutable state for one incoming event: the path it
// originated from, its once-consumable payload, and the append-only
// action log. A Root lives for exactly one handler invocation.
type Root struct {
	eventPath wire.Path
	eventData json.RawMessage
	hasData   bool
	actions   []wire.Action

	clientTaken bool
	finalized   bool
}

// NewRoot builds the per-event state from a raw renderer event.
func NewRoot(ev wire.Event) *Root {
	return &Root{
		eventPath: ev.Key.EventPath,
		eventData: ev.Data,
		hasData:   len(ev.Data) > 0,
	}
}

// EventPath returns the path the event originated from.
func (r *Root) EventPath() wire.Path {
	return r.eventPath.Clone()
}

// Client returns the single mutation handle for this root, rooted at the
// literal "main" scope. At most one client may be obtained per root;
// this is enforced at runtime, not left to convention.
func (r *Root) Client() (*Client, error) {
	if r.finalized {
		return nil, ErrRootFinalized
	}
	if r.clientTaken {
		return nil, ErrClientAlreadyTaken
	}
	r.clientTaken = true

	return &Client{
		view: Ui{scope: []string{mainScopeSegment}},
		root: r,
	}, nil
}

// MountData is the fixed payload shape of the session-bootstrap event.
type MountData struct {
	Token *string `json:"token"`
}

// TakeMountEvent reports whether this root's event is the session
// bootstrap. Only the first path segment is examined. A (nil, nil)
// return means the event is an ordinary one and its payload is left
// untouched for normal dispatch.
func (r *Root) TakeMountEvent() (*MountData, error) {
	if r.finalized {
		return nil, ErrRootFinalized
	}

	first, ok := r.eventPath.First()
	if !ok {
		return nil, ErrEmptyEventPath
	}
	if first != wire.MountMarker {
		return nil, nil
	}

	if !r.hasData {
		return nil, ErrNoMountData
	}
	raw := r.eventData
	r.eventData = nil
	r.hasData = false

	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, &MountDataError{Err: errors.New("mount data must be an object")}
	}

	var md MountData
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, &MountDataError{Err: err}
	}

	return &md, nil
}

// Component is an opaque reference to a renderer-side component
// implementation, as produced by the generated bindings.
type Component interface {
	// ComponentIndex returns the value the renderer resolves to a
	// concrete component implementation.
	ComponentIndex() any
}

// SetRootUI appends the reserved action that (re)initializes the whole
// rendered tree. Repeated calls append further actions; the renderer
// applies them in order.
func (r *Root) SetRootUI(c Component) error {
	if r.finalized {
		return ErrRootFinalized
	}

	payload, err := json.Marshal(c.ComponentIndex())
	if err != nil {
		return fmt.Errorf("ui: failed to encode component index: %w", err)
	}

	r.actions = append(r.actions, wire.Action{
		Key:  wire.ActionRef{ActionPath: wire.Path{wire.RootMountSegment}},
		Data: payload,
	})

	return nil
}

// Response finalizes the root and returns its accumulated action log in
// emission order. The root must not be used afterwards.
func (r *Root) Response() *Response {
	r.finalized = true
	actions := r.actions
	r.actions = nil
	return &Response{actions: actions}
}

// Response is the ordered action log accumulated while handling one
// event.
type Response struct {
	actions []wire.Action
}

// Actions returns the log in emission order.
func (r *Response) Actions() []wire.Action {
	if r == nil {
		return nil
	}
	return r.actions
}
