// Package scene is the minimal object model live singletons are attached to.
package scene

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Object is a named container of components.
type Object struct {
	Name       string
	Components []any
	Children   []*Object

	// Persistent objects outlive scene transitions.
	Persistent bool

	parent    *Object
	destroyed bool
}

// NewObject creates a detached object.
func NewObject(name string) *Object {
	return &Object{Name: name}
}

// Parent returns the object this one is attached to.
func (o *Object) Parent() *Object {
	return o.parent
}

// AddChild attaches child to o.
func (o *Object) AddChild(child *Object) {
	child.parent = o
	o.Children = append(o.Children, child)
}

// Component returns the first component whose dynamic type is t.
func (o *Object) Component(t reflect.Type) (any, bool) {
	for _, c := range o.Components {
		if reflect.TypeOf(c) == t {
			return c, true
		}
	}
	return nil, false
}

// Destroyer is implemented by components that release resources when their
// object is destroyed.
type Destroyer interface {
	OnDestroy()
}

// Destroyed reports whether Destroy was called.
func (o *Object) Destroyed() bool {
	return o.destroyed
}

// Destroy releases the object and its children, children first. Components
// implementing Destroyer are notified once.
func (o *Object) Destroy() {
	if o.destroyed {
		return
	}
	for _, child := range o.Children {
		child.Destroy()
	}
	for _, c := range o.Components {
		if d, ok := c.(Destroyer); ok {
			d.OnDestroy()
		}
	}
	o.Children = nil
	o.Components = nil
	o.destroyed = true
}

// ComponentSource builds one component of a template.
type ComponentSource struct {
	Type reflect.Type
	New  func() (any, error)
}

// Template is the persisted blueprint of an object.
type Template struct {
	Name       string
	Components []ComponentSource
}

// Instantiate creates a fresh copy of tpl under parent. The copy keeps the
// template name and gets newly built components.
func Instantiate(tpl *Template, parent *Object) (*Object, error) {
	obj := NewObject(tpl.Name)
	for _, src := range tpl.Components {
		component, err := src.New()
		if err != nil {
			return nil, errors.Wrapf(err, "instantiate %q: component %v", tpl.Name, src.Type)
		}
		obj.Components = append(obj.Components, component)
	}
	if parent != nil {
		parent.AddChild(obj)
	}
	return obj, nil
}
