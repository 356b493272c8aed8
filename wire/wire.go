// Package wire defines the JSON types exchanged between a remote renderer
// and the application: inbound event batches and the flat, ordered array
// of actions that answers them.
package wire

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reserved path segments understood by every renderer.
const (
	// MountMarker is the first path segment of the session-bootstrap event.
	MountMarker = "root_app_ready"

	// RootMountSegment addresses the action that replaces the whole
	// rendered tree.
	RootMountSegment = "root_mount"

	// RootErrorSegment addresses the action that surfaces a protocol or
	// handler error to the renderer.
	RootErrorSegment = "root_error"
)

// Path is an ordered sequence of symbols addressing a UI subtree,
// root to leaf.
type Path []string

// Equal reports whether two paths have the same length and elements.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// First returns the root segment of the path, if any.
func (p Path) First() (string, bool) {
	if len(p) == 0 {
		return "", false
	}
	return p[0], true
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return append(Path(nil), p...)
}

func (p Path) String() string {
	return "/" + strings.Join(p, "/")
}

// Request is one inbound batch of renderer events.
type Request struct {
	SessionID string  `json:"sessionId"`
	Events    []Event `json:"events"`
}

// UnmarshalJSON enforces the presence of both request fields. A request
// missing either field is structurally malformed and must not reach the
// event loop.
func (r *Request) UnmarshalJSON(data []byte) error {
	type rawRequest struct {
		SessionID *string  `json:"sessionId"`
		Events    *[]Event `json:"events"`
	}

	var raw rawRequest
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.SessionID == nil {
		return fmt.Errorf("missing required field %q", "sessionId")
	}
	if raw.Events == nil {
		return fmt.Errorf("missing required field %q", "events")
	}

	r.SessionID = *raw.SessionID
	r.Events = *raw.Events

	return nil
}

// Event is one raw renderer event: the path it originated from plus its
// opaque payload. The payload is not inspected until an event key claims
// it.
type Event struct {
	Key  EventRef        `json:"key"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EventRef is the wire form of an event key. Only the path travels; the
// payload type is a compile-time concern of the application.
type EventRef struct {
	EventPath Path `json:"eventPath"`
}

// ActionRef is the wire form of an action key.
type ActionRef struct {
	ActionPath  Path    `json:"actionPath"`
	DebugSymbol *string `json:"debugSymbol,omitempty"`
}

// Action is one unit of renderer-bound state change.
type Action struct {
	Key  ActionRef       `json:"key"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewErrorAction builds the reserved action that surfaces a
// human-readable error message to the renderer.
func NewErrorAction(msg string) Action {
	data, err := json.Marshal(msg)
	if err != nil {
		// Marshaling a string cannot fail.
		panic(err)
	}
	return Action{
		Key:  ActionRef{ActionPath: Path{RootErrorSegment}},
		Data: data,
	}
}
