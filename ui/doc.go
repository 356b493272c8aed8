// Package ui holds the per-event session state and the typed keys the
// application uses to route renderer events and emit renderer-bound
// actions.
//
// One Root exists per incoming event. The application acquires the
// single Client mutation handle, derives scoped Ui views to build event
// keys, consumes the event payload at most once, and emits any number of
// actions. Finalizing the Root yields the ordered action log that is
// folded into the batch response.
package ui
