package reconcile

import (
	"github.com/toutaio/toutago-autosingleton/assets"
	"github.com/toutaio/toutago-autosingleton/catalogue"
	"github.com/toutaio/toutago-autosingleton/typeindex"
)

// CreateFunc persists a new backing asset for value and returns its reference.
type CreateFunc func(store assets.Store, value any, path, name, typeName string) (catalogue.ObjectRef, error)

// Processor carries what differs between the two object kinds.
// The reconciliation algorithm itself is shared.
type Processor struct {
	// Title labels log output.
	Title string

	Kind          typeindex.Kind
	DefaultFolder string

	// Extension is appended to the asset name, without the dot.
	Extension string

	Create CreateFunc
}

// AssetProcessor reconciles free-standing data assets.
var AssetProcessor = Processor{
	Title:         "Data Asset",
	Kind:          typeindex.KindAsset,
	DefaultFolder: "Singleton/Assets",
	Extension:     "asset",
	Create: func(store assets.Store, value any, path, name, typeName string) (catalogue.ObjectRef, error) {
		return store.CreateAsset(path, name, typeName, value)
	},
}

// ComponentProcessor reconciles template containers carrying one component.
var ComponentProcessor = Processor{
	Title:         "Component",
	Kind:          typeindex.KindComponent,
	DefaultFolder: "Singleton/Components",
	Extension:     "prefab",
	Create: func(store assets.Store, value any, path, name, typeName string) (catalogue.ObjectRef, error) {
		return store.CreatePrefab(path, name, typeName, value)
	},
}

// DefaultProcessors returns the built-in processors, data assets first.
func DefaultProcessors() []Processor {
	return []Processor{AssetProcessor, ComponentProcessor}
}
