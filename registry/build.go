package registry

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-autosingleton/catalogue"
	"github.com/toutaio/toutago-autosingleton/scene"
	"github.com/toutaio/toutago-autosingleton/typeindex"
)

// RootName names the persistent object parenting every component singleton.
const RootName = "Auto Singleton"

// Loader reads the assets referenced by catalogue entries.
type Loader interface {
	LoadAsset(ref catalogue.ObjectRef) (any, error)
	LoadTemplate(ref catalogue.ObjectRef) (*scene.Template, error)
}

// Result is the outcome of Build.
type Result struct {
	Registry *Registry

	// Root parents every instantiated component singleton.
	Root *scene.Object

	// NullEntries counts enabled entries whose asset is missing.
	NullEntries int
}

type buildConfig struct {
	logger *zap.Logger
}

// Option configures Build.
type Option func(*buildConfig)

// WithLogger sets the logger Build warns through.
func WithLogger(logger *zap.Logger) Option {
	return func(c *buildConfig) {
		c.logger = logger
	}
}

// Build creates every enabled singleton of cat. Data assets are loaded first,
// then each component template is instantiated under a single persistent root.
// Disabled entries are skipped and null entries are reported once.
func Build(cat *catalogue.Catalogue, loader Loader, opts ...Option) (*Result, error) {
	cfg := &buildConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	res := &Result{Registry: New()}

	for _, entry := range cat.Assets {
		if !entry.Enabled {
			continue
		}
		if entry.Null() {
			res.NullEntries++
			continue
		}
		ref := *entry.Reference
		value, err := loader.LoadAsset(ref)
		if err != nil {
			return nil, errors.Wrapf(err, "load singleton asset %s", ref.Path)
		}
		if err := res.Registry.register(&Entry{
			Type:      reflect.TypeOf(value),
			TypeName:  ref.Type,
			Kind:      typeindex.KindAsset,
			Instance:  value,
			Reference: ref,
		}); err != nil {
			return nil, err
		}
	}

	res.Root = scene.NewObject(RootName)
	res.Root.Persistent = true

	for _, entry := range cat.Components {
		if !entry.Enabled {
			continue
		}
		if entry.Null() {
			res.NullEntries++
			continue
		}
		if err := instantiate(res, *entry.Reference, loader); err != nil {
			res.Root.Destroy()
			return nil, err
		}
	}

	if res.NullEntries > 0 {
		cfg.logger.Warn("Found an empty entry in "+catalogue.AssetName,
			zap.Int("count", res.NullEntries))
	}
	return res, nil
}

func instantiate(res *Result, ref catalogue.ObjectRef, loader Loader) error {
	tpl, err := loader.LoadTemplate(ref)
	if err != nil {
		return errors.Wrapf(err, "load singleton template %s", ref.Path)
	}
	obj, err := scene.Instantiate(tpl, res.Root)
	if err != nil {
		return errors.Wrapf(err, "instantiate %s", ref.Path)
	}

	component := componentOf(tpl, obj, ref.Type)
	if component == nil {
		return &MissingComponentError{TypeName: ref.Type, Template: tpl.Name}
	}
	return res.Registry.register(&Entry{
		Type:      reflect.TypeOf(component),
		TypeName:  ref.Type,
		Kind:      typeindex.KindComponent,
		Instance:  component,
		Object:    obj,
		Reference: ref,
	})
}

// componentOf returns the component of obj built from the template source
// persisted as typeName.
func componentOf(tpl *scene.Template, obj *scene.Object, typeName string) any {
	for _, src := range tpl.Components {
		if typeindex.TypeName(src.Type) != typeName {
			continue
		}
		if component, ok := obj.Component(src.Type); ok {
			return component
		}
	}
	return nil
}
