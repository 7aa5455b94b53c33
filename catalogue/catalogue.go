// Package catalogue holds the persisted list of singleton assets.
//
// The catalogue is split in two partitions, one per object kind. Each entry
// pairs an enabled flag with a reference to the backing asset. A nil reference
// is a dangling entry whose asset was deleted outside the tooling.
package catalogue

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/toutaio/toutago-autosingleton/typeindex"
)

const (
	// AssetName is the display name of the catalogue.
	AssetName = "Singleton List"

	// DefaultPath is the well-known location of the catalogue, relative to the asset root.
	DefaultPath = "Resources/Singleton List.yaml"
)

// ObjectRef is a stable reference to a persisted asset.
// GUID survives moves; Path is the last known location.
type ObjectRef struct {
	GUID string `yaml:"guid"`
	Path string `yaml:"path"`
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

// Entry is one catalogue line.
type Entry struct {
	Enabled   bool       `yaml:"enabled"`
	Reference *ObjectRef `yaml:"reference"`
}

// Null reports whether the entry lost its asset.
func (e Entry) Null() bool {
	return e.Reference == nil
}

// Partition is an ordered list of entries. Order is creation order.
type Partition []Entry

// RemoveNull drops dangling entries and returns how many were removed.
func (p *Partition) RemoveNull() int {
	kept := (*p)[:0]
	removed := 0
	for _, entry := range *p {
		if entry.Null() {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	clear((*p)[len(kept):])
	*p = kept
	return removed
}

// IndexOf returns the position of the entry referencing typeName, or -1.
func (p Partition) IndexOf(typeName string) int {
	for i, entry := range p {
		if entry.Reference != nil && entry.Reference.Type == typeName {
			return i
		}
	}
	return -1
}

// Remove deletes the entry at i, keeping order.
func (p *Partition) Remove(i int) {
	*p = append((*p)[:i], (*p)[i+1:]...)
}

// Append adds an enabled entry for ref.
func (p *Partition) Append(ref ObjectRef) {
	*p = append(*p, Entry{Enabled: true, Reference: &ref})
}

// Types returns the set of type names referenced by non-null entries.
func (p Partition) Types() map[string]bool {
	types := make(map[string]bool, len(p))
	for _, entry := range p {
		if entry.Reference != nil {
			types[entry.Reference.Type] = true
		}
	}
	return types
}

// Duplicates returns the type names referenced by more than one entry.
func (p Partition) Duplicates() []string {
	seen := make(map[string]int, len(p))
	var duplicates []string
	for _, entry := range p {
		if entry.Reference == nil {
			continue
		}
		seen[entry.Reference.Type]++
		if seen[entry.Reference.Type] == 2 {
			duplicates = append(duplicates, entry.Reference.Type)
		}
	}
	return duplicates
}

// Catalogue is the whole persisted configuration.
type Catalogue struct {
	Components Partition `yaml:"components"`
	Assets     Partition `yaml:"assets"`

	dirty bool
}

// New returns an empty catalogue.
func New() *Catalogue {
	return &Catalogue{
		Components: Partition{},
		Assets:     Partition{},
	}
}

// Partition returns the partition holding the given kind.
func (c *Catalogue) Partition(kind typeindex.Kind) *Partition {
	if kind == typeindex.KindComponent {
		return &c.Components
	}
	return &c.Assets
}

// SetDirty marks the catalogue as needing a save.
func (c *Catalogue) SetDirty() {
	c.dirty = true
}

// Dirty reports whether the catalogue changed since it was loaded or saved.
func (c *Catalogue) Dirty() bool {
	return c.dirty
}

// Resolve checks every reference against storage. locate returns the current
// reference for an asset and false when it no longer exists. Missing assets
// become null entries; moved assets get their path rewritten.
func (c *Catalogue) Resolve(locate func(ObjectRef) (ObjectRef, bool)) (nulled, moved int) {
	for _, partition := range []*Partition{&c.Assets, &c.Components} {
		for i := range *partition {
			entry := &(*partition)[i]
			if entry.Reference == nil {
				continue
			}
			current, ok := locate(*entry.Reference)
			if !ok {
				entry.Reference = nil
				nulled++
				continue
			}
			if current.Path != entry.Reference.Path {
				entry.Reference.Path = current.Path
				moved++
			}
		}
	}
	if nulled > 0 || moved > 0 {
		c.SetDirty()
	}
	return nulled, moved
}

// SetEnabled toggles every entry whose type or name matches selector.
// The selector matches the qualified type name, its last segment, or the asset name.
// It returns the number of entries that changed.
func (c *Catalogue) SetEnabled(selector string, enabled bool) (matched, changed int) {
	for _, partition := range []*Partition{&c.Assets, &c.Components} {
		for i := range *partition {
			entry := &(*partition)[i]
			if entry.Reference == nil || !matches(*entry.Reference, selector) {
				continue
			}
			matched++
			if entry.Enabled != enabled {
				entry.Enabled = enabled
				changed++
			}
		}
	}
	if changed > 0 {
		c.SetDirty()
	}
	return matched, changed
}

func matches(ref ObjectRef, selector string) bool {
	if ref.Type == selector || ref.Name == selector {
		return true
	}
	short := ref.Type
	if i := strings.LastIndex(short, "."); i >= 0 {
		short = short[i+1:]
	}
	return short == selector
}

// Load reads the catalogue at path. A missing file yields an empty catalogue.
func Load(fs afero.Fs, path string) (*Catalogue, error) {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	c := New()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "decode %s", path),
			"the catalogue was edited by hand or is corrupted")
	}
	if c.Components == nil {
		c.Components = Partition{}
	}
	if c.Assets == nil {
		c.Assets = Partition{}
	}
	return c, nil
}

// Save writes the catalogue to path and clears the dirty flag.
func (c *Catalogue) Save(fs afero.Fs, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode catalogue")
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create folder for %s", path)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	c.dirty = false
	return nil
}

// SaveIfDirty saves only when something changed. It reports whether it wrote.
func (c *Catalogue) SaveIfDirty(fs afero.Fs, path string) (bool, error) {
	if !c.dirty {
		return false, nil
	}
	return true, c.Save(fs, path)
}
