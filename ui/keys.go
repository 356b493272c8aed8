package ui

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/openfacet/facet-go/wire"
)

// keyJSON is the shared wire shape of both key kinds. The payload type
// parameter has no runtime representation and never travels.
type eventKeyJSON struct {
	EventPath   wire.Path `json:"eventPath"`
	DebugSymbol *string   `json:"debugSymbol,omitempty"`
}

type actionKeyJSON struct {
	ActionPath  wire.Path `json:"actionPath"`
	DebugSymbol *string   `json:"debugSymbol,omitempty"`
}

// EventKey tests whether an incoming event originated from a specific UI
// scope and, on a match, extracts the event payload as T. The type
// parameter is compile-time only: the wire format carries no type tag,
// so a key bound to the wrong type may decode garbage without error.
type EventKey[T any] struct {
	eventPath   wire.Path
	debugSymbol *string
}

// NewEventKey captures the view's current scope as the key's path.
func NewEventKey[T any](u *Ui) EventKey[T] {
	return EventKey[T]{eventPath: u.Path()}
}

// WithDebugSymbol attaches a cosmetic label. It has no effect on
// matching.
func (k EventKey[T]) WithDebugSymbol(label string) EventKey[T] {
	k.debugSymbol = &label
	return k
}

// Path returns the path the key matches against.
func (k EventKey[T]) Path() wire.Path {
	return k.eventPath.Clone()
}

// TakeData compares the key's path against the incoming event path and,
// on an exact match, moves the payload out of the root and decodes it as
// T. Handlers typically test several candidate keys against one event;
// only the matching key may consume the payload, and consumption is
// strictly single-use.
func (k EventKey[T]) TakeData(c *Client) (T, error) {
	var out T

	if !k.eventPath.Equal(c.eventPath()) {
		return out, &PathMismatchError{
			KeyPath:   k.eventPath.Clone(),
			EventPath: c.eventPath().Clone(),
		}
	}

	raw, ok := c.takeEventData()
	if !ok {
		return out, ErrDataAlreadyTaken
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &PayloadError{Err: err}
	}

	return out, nil
}

func (k EventKey[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventKeyJSON{EventPath: k.eventPath, DebugSymbol: k.debugSymbol})
}

func (k *EventKey[T]) UnmarshalJSON(data []byte) error {
	var raw eventKeyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k.eventPath = raw.EventPath
	k.debugSymbol = raw.DebugSymbol
	return nil
}

// ActionKey addresses a renderer-side mutation target. Action addressing
// is deliberately flat: keys are minted with a fresh process-unique
// segment and are not derived from any UI scope.
type ActionKey[T any] struct {
	actionPath  wire.Path
	debugSymbol *string
}

// NewActionKey mints a key with a single freshly-randomized segment.
func NewActionKey[T any]() ActionKey[T] {
	return ActionKey[T]{
		actionPath: wire.Path{strconv.FormatUint(rand.Uint64(), 10)},
	}
}

// WithDebugSymbol attaches a cosmetic label. It has no effect on
// matching.
func (k ActionKey[T]) WithDebugSymbol(label string) ActionKey[T] {
	k.debugSymbol = &label
	return k
}

// Path returns the key's action path.
func (k ActionKey[T]) Path() wire.Path {
	return k.actionPath.Clone()
}

// Emit serializes data under the key and appends it to the root's action
// log. Emit may be called any number of times; each call is an
// independent log entry.
func (k ActionKey[T]) Emit(data T, c *Client) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("ui: failed to encode action payload: %w", err)
	}

	return c.pushAction(wire.Action{
		Key: wire.ActionRef{
			ActionPath:  k.actionPath,
			DebugSymbol: k.debugSymbol,
		},
		Data: payload,
	})
}

func (k ActionKey[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(actionKeyJSON{ActionPath: k.actionPath, DebugSymbol: k.debugSymbol})
}

func (k *ActionKey[T]) UnmarshalJSON(data []byte) error {
	var raw actionKeyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k.actionPath = raw.ActionPath
	k.debugSymbol = raw.DebugSymbol
	return nil
}
