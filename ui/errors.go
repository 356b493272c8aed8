package ui

import (
	"errors"
	"fmt"

	"github.com/openfacet/facet-go/wire"
)

var (
	// ErrClientAlreadyTaken is returned when a second mutation handle is
	// requested for the same root. A root has exactly one writer.
	ErrClientAlreadyTaken = errors.New("ui: client handle already taken for this root")

	// ErrRootFinalized is returned when a root is used after its action
	// log was extracted into a response.
	ErrRootFinalized = errors.New("ui: root already finalized into a response")

	// ErrEmptyEventPath is returned when checking for a mount event on an
	// event with an empty path, which is never valid.
	ErrEmptyEventPath = errors.New("ui: empty event path is never valid")

	// ErrNoMountData is returned when an event declares itself a mount
	// event but carries no payload.
	ErrNoMountData = errors.New("ui: mount event carries no event data")

	// ErrDataAlreadyTaken is returned when the event payload was already
	// consumed, typically by calling TakeData more than once in a single
	// event loop cycle.
	ErrDataAlreadyTaken = errors.New("ui: event data was already taken")
)

// PathMismatchError reports an event key tested against an event that
// originated from a different path. The event payload is left untouched
// so a later, correctly-matching key can still consume it.
type PathMismatchError struct {
	KeyPath   wire.Path
	EventPath wire.Path
}

func (e *PathMismatchError) Error() string {
	return fmt.Sprintf("ui: key path %s does not match incoming event path %s", e.KeyPath, e.EventPath)
}

// PayloadError reports an event payload that did not decode as the
// key's payload type.
type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("ui: failed to decode event payload: %v", e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// MountDataError reports a bootstrap payload that did not match the
// fixed mount data shape.
type MountDataError struct {
	Err error
}

func (e *MountDataError) Error() string {
	return fmt.Sprintf("ui: failed to decode mount data: %v", e.Err)
}

func (e *MountDataError) Unwrap() error { return e.Err }
