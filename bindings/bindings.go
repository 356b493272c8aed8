// Package bindings describes component shapes for the build-time binding
// generator: each component's name plus JSON Schemas for its event and
// action payload types, reflected from the application's Go types.
//
// The registry exists solely to feed the generator. The runtime never
// validates incoming events or outgoing actions against it.
package bindings

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
)

// ComponentRef is the opaque component index value the renderer resolves
// to a concrete component implementation. It is the payload of the
// reserved root-mount action.
type ComponentRef struct {
	Name string `json:"name"`
}

// ComponentIndex implements ui.Component.
func (r ComponentRef) ComponentIndex() any { return r }

// Descriptor describes one component's payload shapes.
type Descriptor struct {
	Name    string                        `json:"name"`
	Events  map[string]*jsonschema.Schema `json:"events,omitempty"`
	Actions map[string]*jsonschema.Schema `json:"actions,omitempty"`
}

// Ref returns the runtime component reference for this descriptor.
func (d Descriptor) Ref() ComponentRef {
	return ComponentRef{Name: d.Name}
}

// SchemaFor reflects a JSON Schema from a payload type. Definitions are
// inlined so the generator can consume each schema standalone.
func SchemaFor[T any]() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true, // inline defs
		ExpandedStruct: true, // put struct at root
	}
	// Reflect from a zero value pointer to capture struct tags consistently
	return r.Reflect(new(T))
}

// Registry collects component descriptors for manifest generation.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register adds a component descriptor. Component names must be unique.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("bindings: component name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("bindings: component %q already registered", d.Name)
	}
	r.byName[d.Name] = d

	return nil
}

// Component looks up a descriptor by name.
func (r *Registry) Component(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// Manifest serializes all descriptors, sorted by name, for the binding
// generator to consume.
func (r *Registry) Manifest() ([]byte, error) {
	r.mu.RLock()
	descriptors := make([]Descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		descriptors = append(descriptors, d)
	}
	r.mu.RUnlock()

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})

	return json.MarshalIndent(descriptors, "", "  ")
}
