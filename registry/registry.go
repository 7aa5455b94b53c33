// Package registry holds the runtime singleton instances built from a catalogue.
package registry

import (
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/toutaio/toutago-autosingleton/catalogue"
	"github.com/toutaio/toutago-autosingleton/scene"
	"github.com/toutaio/toutago-autosingleton/typeindex"
)

// Entry is one live singleton.
type Entry struct {
	// Type is the concrete runtime type of Instance.
	Type reflect.Type

	// TypeName is the qualified name persisted in the catalogue.
	TypeName string

	Kind     typeindex.Kind
	Instance any

	// Object is the scene object hosting a component singleton, nil for data assets.
	Object *scene.Object

	Reference catalogue.ObjectRef
}

// Registry maps runtime types to singleton instances.
// It keeps registration order and never changes once built.
type Registry struct {
	entries []*Entry
	byType  map[reflect.Type]*Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make([]*Entry, 0),
		byType:  make(map[reflect.Type]*Entry),
	}
}

// Of builds a registry directly from instances, in the given order.
// Instances are registered as data assets with no catalogue reference.
func Of(instances ...any) (*Registry, error) {
	r := New()
	for _, instance := range instances {
		if instance == nil {
			return nil, errors.New("registry: nil instance")
		}
		entry := &Entry{
			Type:     reflect.TypeOf(instance),
			TypeName: typeindex.QualifiedName(instance),
			Kind:     typeindex.KindAsset,
			Instance: instance,
		}
		if err := r.register(entry); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(entry *Entry) error {
	if first, exists := r.byType[entry.Type]; exists {
		return &DuplicateTypeError{
			Type:   entry.Type,
			First:  first.Reference.Path,
			Second: entry.Reference.Path,
		}
	}
	r.byType[entry.Type] = entry
	r.entries = append(r.entries, entry)
	return nil
}

// Get returns the entry registered for the exact runtime type t.
func (r *Registry) Get(t reflect.Type) (*Entry, bool) {
	entry, ok := r.byType[t]
	return entry, ok
}

// Has reports whether an instance of exactly t is registered.
func (r *Registry) Has(t reflect.Type) bool {
	_, ok := r.byType[t]
	return ok
}

// Len returns the number of registered singletons.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns the entries in registration order.
func (r *Registry) Entries() []*Entry {
	return slices.Clone(r.entries)
}

// Types returns the registered runtime types in registration order.
func (r *Registry) Types() []reflect.Type {
	types := make([]reflect.Type, len(r.entries))
	for i, entry := range r.entries {
		types[i] = entry.Type
	}
	return types
}

// Instances returns every instance in registration order.
func (r *Registry) Instances() []any {
	instances := make([]any, len(r.entries))
	for i, entry := range r.entries {
		instances[i] = entry.Instance
	}
	return instances
}
