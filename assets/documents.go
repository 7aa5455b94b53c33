package assets

import "gopkg.in/yaml.v3"

// MetaExtension is appended to an asset path to name its sidecar file.
const MetaExtension = ".meta"

// AssetDocument is the on-disk form of a free-standing data asset.
type AssetDocument struct {
	Name string    `yaml:"name"`
	Type string    `yaml:"type"`
	Data yaml.Node `yaml:"data,omitempty"`
}

// PrefabDocument is the on-disk form of a template container.
type PrefabDocument struct {
	Name       string              `yaml:"name"`
	Components []ComponentDocument `yaml:"components"`
}

// ComponentDocument is one behaviour attached to a prefab.
type ComponentDocument struct {
	Type string    `yaml:"type"`
	Data yaml.Node `yaml:"data,omitempty"`
}

// storedDocument reads either document shape far enough to tell its types.
type storedDocument struct {
	Name       string              `yaml:"name"`
	Type       string              `yaml:"type"`
	Components []ComponentDocument `yaml:"components"`
}

func (d *storedDocument) holds(typeName string) bool {
	if d.Type == typeName {
		return true
	}
	for _, c := range d.Components {
		if c.Type == typeName {
			return true
		}
	}
	return false
}

// Meta is the sidecar carrying the stable identity of an asset.
type Meta struct {
	GUID string `yaml:"guid"`
}

func encodeData(value any) (yaml.Node, error) {
	var node yaml.Node
	if value == nil {
		return node, nil
	}
	if err := node.Encode(value); err != nil {
		return yaml.Node{}, err
	}
	return node, nil
}

func decodeData(node *yaml.Node, target any) error {
	if node == nil || node.Kind == 0 {
		return nil
	}
	return node.Decode(target)
}
