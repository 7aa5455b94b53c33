package assets

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/toutaio/toutago-autosingleton/catalogue"
	"github.com/toutaio/toutago-autosingleton/scene"
	"github.com/toutaio/toutago-autosingleton/typeindex"
)

// Loader turns persisted documents into live values using the type index.
type Loader struct {
	reader Reader
	index  *typeindex.Index
}

// NewLoader creates a loader reading through r.
func NewLoader(r Reader, index *typeindex.Index) *Loader {
	return &Loader{reader: r, index: index}
}

// LoadAsset returns a fresh instance decoded from the data asset at ref.
func (l *Loader) LoadAsset(ref catalogue.ObjectRef) (any, error) {
	doc, err := l.reader.ReadAsset(ref)
	if err != nil {
		return nil, err
	}
	info, err := l.lookup(doc.Type, ref.Path)
	if err != nil {
		return nil, err
	}

	value := l.index.New(info)
	if err := decodeData(&doc.Data, value); err != nil {
		return nil, errors.Wrapf(err, "decode data of %s", ref.Path)
	}
	return value, nil
}

// LoadTemplate returns the blueprint of the prefab at ref. Components are
// decoded again on every instantiation.
func (l *Loader) LoadTemplate(ref catalogue.ObjectRef) (*scene.Template, error) {
	doc, err := l.reader.ReadPrefab(ref)
	if err != nil {
		return nil, err
	}

	tpl := &scene.Template{Name: doc.Name}
	for _, component := range doc.Components {
		info, err := l.lookup(component.Type, ref.Path)
		if err != nil {
			return nil, err
		}
		data := component.Data
		tpl.Components = append(tpl.Components, scene.ComponentSource{
			Type: info.Type,
			New:  l.factory(info, &data),
		})
	}
	return tpl, nil
}

func (l *Loader) factory(info *typeindex.TypeInfo, data *yaml.Node) func() (any, error) {
	return func() (any, error) {
		value := l.index.New(info)
		if err := decodeData(data, value); err != nil {
			return nil, errors.Wrapf(err, "decode %s", info.QualifiedName)
		}
		return value, nil
	}
}

func (l *Loader) lookup(typeName, path string) (*typeindex.TypeInfo, error) {
	info, ok := l.index.Lookup(typeName)
	if !ok {
		return nil, errors.WithHint(
			errors.Newf("%s references unknown type %q", path, typeName),
			"register the type in the type index or run reconciliation to prune the entry")
	}
	return info, nil
}
