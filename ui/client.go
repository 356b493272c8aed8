package ui

import (
	"encoding/json"

	"github.com/openfacet/facet-go/symbol"
	"github.com/openfacet/facet-go/wire"
)

// Client is the one mutation handle over a Root. It carries the scope
// stack used to derive event keys plus exclusive access to the event
// payload and the action log. Nested application logic should be handed
// a Ui view instead: a Ui can derive keys but cannot touch the payload
// or emit actions.
type Client struct {
	view Ui
	root *Root
}

// Ui returns a read view sharing the client's current scope prefix.
func (c *Client) Ui() *Ui {
	return &Ui{scope: cloneScope(c.view.scope)}
}

func (c *Client) eventPath() wire.Path {
	return c.root.eventPath
}

// takeEventData moves the payload out of the root. The second return is
// false when the payload is absent or was already consumed.
func (c *Client) takeEventData() (json.RawMessage, bool) {
	if c.root.finalized || !c.root.hasData {
		return nil, false
	}
	data := c.root.eventData
	c.root.eventData = nil
	c.root.hasData = false
	return data, true
}

func (c *Client) pushAction(a wire.Action) error {
	if c.root.finalized {
		return ErrRootFinalized
	}
	c.root.actions = append(c.root.actions, a)
	return nil
}

// Ui is a read-mostly view over a scope prefix. Deriving a child scope
// copies the prefix: sibling derivations never share backing storage, so
// unbounded nesting is safe.
type Ui struct {
	scope []symbol.Symbol
}

// Scope returns a child view with sym appended. The receiver is not
// mutated.
func (u *Ui) Scope(sym symbol.Symbol) *Ui {
	child := make([]symbol.Symbol, len(u.scope)+1)
	copy(child, u.scope)
	child[len(u.scope)] = sym
	return &Ui{scope: child}
}

// Path flattens the scope stack into a root-to-leaf event path.
func (u *Ui) Path() wire.Path {
	return wire.Path(cloneScope(u.scope))
}

func cloneScope(scope []symbol.Symbol) []symbol.Symbol {
	return append([]symbol.Symbol(nil), scope...)
}
