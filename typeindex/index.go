// Package typeindex is the compiled-in catalog of singleton-eligible types.
//
// Go has neither class inheritance nor attribute scanning, so game code
// registers its types explicitly, usually from an init function or a Provider:
//
//	idx := typeindex.New()
//	idx.MustRegister((*Manager)(nil), typeindex.Of(typeindex.KindComponent), typeindex.Abstract(),
//	    typeindex.Singleton(typeindex.InFolder("Managers"), typeindex.Inherited()))
//	idx.MustRegister((*AudioManager)(nil), typeindex.Extends((*Manager)(nil)))
//
// The Extends relation is the subtype relation used for inheritance
// propagation during reconciliation.
package typeindex

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/toutaio/toutago-autosingleton/internal/lazy"
)

// Kind identifies the two object kinds a singleton can be backed by.
type Kind int

const (
	// KindAsset is a free-standing data asset.
	KindAsset Kind = iota + 1

	// KindComponent is a behaviour attached to a template container.
	KindComponent
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindAsset:
		return "asset"
	case KindComponent:
		return "component"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) valid() bool {
	return k == KindAsset || k == KindComponent
}

// TypeInfo describes a registered type.
type TypeInfo struct {
	// Type is the pointer type of the registered struct, e.g. *AudioManager.
	Type reflect.Type

	// Name is the struct name without package.
	Name string

	// QualifiedName is "<package path>.<Name>" and is what catalogues persist.
	QualifiedName string

	Kind     Kind
	Parent   *TypeInfo
	Abstract bool

	// Declaration is nil for types without the singleton annotation.
	Declaration *Declaration
}

// Annotated reports whether the type carries its own singleton declaration.
func (t *TypeInfo) Annotated() bool {
	return t.Declaration != nil
}

// Instantiable reports whether an asset can be created for the type.
func (t *TypeInfo) Instantiable() bool {
	return !t.Abstract
}

func (t *TypeInfo) String() string {
	return t.QualifiedName
}

// Index stores registered types. It is safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	types     map[reflect.Type]*TypeInfo
	byName    map[string]*TypeInfo
	providers []Provider
	// parent chains, nearest first
	ancestors lazy.Cache[reflect.Type, []*TypeInfo]
}

// New creates an empty index.
func New() *Index {
	return &Index{
		types:     make(map[reflect.Type]*TypeInfo),
		byName:    make(map[string]*TypeInfo),
		providers: make([]Provider, 0),
	}
}

type typeConfig struct {
	kind        Kind
	parent      any
	abstract    bool
	declaration *Declaration
}

// TypeOption configures a type registration.
type TypeOption func(*typeConfig)

// Of sets the kind of a root type.
func Of(kind Kind) TypeOption {
	return func(c *typeConfig) {
		c.kind = kind
	}
}

// Extends makes the registered type a subtype of an already registered parent.
func Extends(parent any) TypeOption {
	return func(c *typeConfig) {
		c.parent = parent
	}
}

// Abstract marks a type that never gets an asset of its own.
func Abstract() TypeOption {
	return func(c *typeConfig) {
		c.abstract = true
	}
}

// Singleton annotates the type as singleton-eligible.
func Singleton(opts ...DeclarationOption) TypeOption {
	return func(c *typeConfig) {
		d := &Declaration{}
		for _, opt := range opts {
			opt(d)
		}
		c.declaration = d
	}
}

// Register adds a type to the index. The prototype must be a pointer to a
// struct, typically a typed nil like (*Settings)(nil).
func (x *Index) Register(prototype any, opts ...TypeOption) error {
	t, err := prototypeType(prototype)
	if err != nil {
		return err
	}

	cfg := typeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var parentType reflect.Type
	if cfg.parent != nil {
		parentType, err = prototypeType(cfg.parent)
		if err != nil {
			return &RegistrationError{Type: t, Reason: fmt.Sprintf("invalid parent: %v", err)}
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.types[t]; exists {
		return &RegistrationError{Type: t, Reason: "already registered"}
	}

	info := &TypeInfo{
		Type:          t,
		Name:          t.Elem().Name(),
		QualifiedName: qualifiedName(t),
		Abstract:      cfg.abstract,
		Declaration:   cfg.declaration,
	}

	if parentType != nil {
		if parentType == t {
			return &RegistrationError{Type: t, Reason: "a type cannot extend itself"}
		}
		parent, ok := x.types[parentType]
		if !ok {
			return &RegistrationError{Type: t, Reason: fmt.Sprintf("parent %v is not registered", parentType)}
		}
		if cfg.kind != 0 && cfg.kind != parent.Kind {
			return &RegistrationError{
				Type:   t,
				Reason: fmt.Sprintf("kind %v conflicts with parent kind %v", cfg.kind, parent.Kind),
			}
		}
		info.Parent = parent
		info.Kind = parent.Kind
	} else {
		if !cfg.kind.valid() {
			return &RegistrationError{Type: t, Reason: "root types need a kind, use Of(KindAsset) or Of(KindComponent)"}
		}
		info.Kind = cfg.kind
	}

	if other, exists := x.byName[info.QualifiedName]; exists {
		return &RegistrationError{Type: t, Reason: fmt.Sprintf("qualified name collides with %v", other.Type)}
	}

	x.types[t] = info
	x.byName[info.QualifiedName] = info
	return nil
}

// MustRegister is like Register but panics on error.
func (x *Index) MustRegister(prototype any, opts ...TypeOption) {
	if err := x.Register(prototype, opts...); err != nil {
		panic(err)
	}
}

// Lookup returns the type registered under a qualified name.
func (x *Index) Lookup(qualifiedName string) (*TypeInfo, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	info, ok := x.byName[qualifiedName]
	return info, ok
}

// TypeOf returns the registration of a pointer type.
func (x *Index) TypeOf(t reflect.Type) (*TypeInfo, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	info, ok := x.types[t]
	return info, ok
}

// Annotated returns the types of the given kind that carry their own
// declaration, ordered by qualified name.
func (x *Index) Annotated(kind Kind) []*TypeInfo {
	return x.filter(func(info *TypeInfo) bool {
		return info.Kind == kind && info.Annotated()
	})
}

// DerivedFrom returns every strict subtype of info, ordered by qualified name.
func (x *Index) DerivedFrom(info *TypeInfo) []*TypeInfo {
	return x.filter(func(candidate *TypeInfo) bool {
		return x.IsSubtype(candidate, info)
	})
}

// IsSubtype reports whether sub strictly derives from super.
func (x *Index) IsSubtype(sub, super *TypeInfo) bool {
	if sub == nil || super == nil || sub == super {
		return false
	}
	for _, ancestor := range x.ancestorsOf(sub) {
		if ancestor == super {
			return true
		}
	}
	return false
}

func (x *Index) ancestorsOf(info *TypeInfo) []*TypeInfo {
	return x.ancestors.Get(info.Type, func() []*TypeInfo {
		chain := make([]*TypeInfo, 0, 4)
		for parent := info.Parent; parent != nil; parent = parent.Parent {
			chain = append(chain, parent)
		}
		return chain
	})
}

// New creates a zero instance of the registered type.
func (x *Index) New(info *TypeInfo) any {
	return reflect.New(info.Type.Elem()).Interface()
}

func (x *Index) filter(keep func(*TypeInfo) bool) []*TypeInfo {
	x.mu.RLock()
	result := make([]*TypeInfo, 0, len(x.types))
	for _, info := range x.types {
		if keep(info) {
			result = append(result, info)
		}
	}
	x.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].QualifiedName < result[j].QualifiedName
	})
	return result
}

// QualifiedName returns the name under which a value's type is persisted.
// It accepts values and pointers alike.
func QualifiedName(v any) string {
	return TypeName(reflect.TypeOf(v))
}

// TypeName is QualifiedName for a reflect.Type.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() != reflect.Ptr {
		t = reflect.PointerTo(t)
	}
	return qualifiedName(t)
}

func qualifiedName(t reflect.Type) string {
	elem := t.Elem()
	if elem.PkgPath() == "" {
		return elem.Name()
	}
	return elem.PkgPath() + "." + elem.Name()
}

func prototypeType(prototype any) (reflect.Type, error) {
	if prototype == nil {
		return nil, &RegistrationError{Reason: "prototype cannot be nil"}
	}
	t := reflect.TypeOf(prototype)
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil, &RegistrationError{Type: t, Reason: "prototype must be a pointer to struct"}
	}
	if t.Elem().Name() == "" {
		return nil, &RegistrationError{Type: t, Reason: "anonymous structs cannot be singletons"}
	}
	return t, nil
}
