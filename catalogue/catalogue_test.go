package catalogue

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toutaio/toutago-autosingleton/typeindex"
)

func ref(typeName, path string) ObjectRef {
	return ObjectRef{GUID: "guid-" + typeName, Path: path, Type: typeName, Name: typeName}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	c, err := Load(afero.NewMemMapFs(), DefaultPath)
	require.NoError(t, err)
	assert.Empty(t, c.Assets)
	assert.Empty(t, c.Components)
	assert.False(t, c.Dirty())
}

func TestSaveAndLoad_PreservesOrderAndNulls(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := New()
	c.Components.Append(ref("game.B", "Singleton/Components/B.prefab"))
	c.Components.Append(ref("game.A", "Singleton/Components/A.prefab"))
	c.Assets = append(c.Assets, Entry{Enabled: false, Reference: nil})
	c.SetDirty()

	written, err := c.SaveIfDirty(fs, DefaultPath)
	require.NoError(t, err)
	assert.True(t, written)
	assert.False(t, c.Dirty())

	loaded, err := Load(fs, DefaultPath)
	require.NoError(t, err)
	require.Len(t, loaded.Components, 2)
	assert.Equal(t, "game.B", loaded.Components[0].Reference.Type)
	assert.Equal(t, "game.A", loaded.Components[1].Reference.Type)
	require.Len(t, loaded.Assets, 1)
	assert.True(t, loaded.Assets[0].Null())

	written, err = loaded.SaveIfDirty(fs, DefaultPath)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestLoad_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, DefaultPath, []byte("components: [oops"), 0o644))

	_, err := Load(fs, DefaultPath)
	assert.Error(t, err)
}

func TestPartition_RemoveNull(t *testing.T) {
	p := Partition{
		{Enabled: true, Reference: nil},
		{Enabled: true, Reference: &ObjectRef{Type: "game.A"}},
		{Enabled: false, Reference: nil},
		{Enabled: false, Reference: &ObjectRef{Type: "game.B"}},
	}

	removed := p.RemoveNull()

	assert.Equal(t, 2, removed)
	require.Len(t, p, 2)
	assert.Equal(t, "game.A", p[0].Reference.Type)
	assert.Equal(t, "game.B", p[1].Reference.Type)
}

func TestPartition_IndexOfRemoveDuplicates(t *testing.T) {
	var p Partition
	p.Append(ref("game.A", "a"))
	p.Append(ref("game.B", "b"))
	p.Append(ref("game.A", "a2"))

	assert.Equal(t, 1, p.IndexOf("game.B"))
	assert.Equal(t, -1, p.IndexOf("game.C"))
	assert.Equal(t, []string{"game.A"}, p.Duplicates())
	assert.Equal(t, map[string]bool{"game.A": true, "game.B": true}, p.Types())

	p.Remove(0)
	assert.Empty(t, p.Duplicates())
	assert.Equal(t, "game.B", p[0].Reference.Type)
}

func TestCatalogue_PartitionByKind(t *testing.T) {
	c := New()
	c.Partition(typeindex.KindComponent).Append(ref("game.Manager", "m"))
	c.Partition(typeindex.KindAsset).Append(ref("game.Settings", "s"))

	assert.Len(t, c.Components, 1)
	assert.Len(t, c.Assets, 1)
}

func TestCatalogue_Resolve(t *testing.T) {
	c := New()
	c.Assets.Append(ref("game.Kept", "kept.asset"))
	c.Assets.Append(ref("game.Gone", "gone.asset"))
	c.Components.Append(ref("game.Moved", "old/moved.prefab"))

	nulled, moved := c.Resolve(func(r ObjectRef) (ObjectRef, bool) {
		switch r.Type {
		case "game.Gone":
			return ObjectRef{}, false
		case "game.Moved":
			r.Path = "new/moved.prefab"
		}
		return r, true
	})

	assert.Equal(t, 1, nulled)
	assert.Equal(t, 1, moved)
	assert.True(t, c.Dirty())
	assert.True(t, c.Assets[1].Null())
	assert.Equal(t, "new/moved.prefab", c.Components[0].Reference.Path)
}

func TestCatalogue_SetEnabled(t *testing.T) {
	c := New()
	c.Assets.Append(ObjectRef{Type: "github.com/acme/game.Settings", Name: "Game Settings"})
	c.Components.Append(ObjectRef{Type: "github.com/acme/game.Manager", Name: "Manager"})

	matched, changed := c.SetEnabled("Settings", false)
	assert.Equal(t, 1, matched)
	assert.Equal(t, 1, changed)
	assert.False(t, c.Assets[0].Enabled)
	assert.True(t, c.Dirty())

	matched, changed = c.SetEnabled("Game Settings", false)
	assert.Equal(t, 1, matched)
	assert.Equal(t, 0, changed)

	matched, _ = c.SetEnabled("github.com/acme/game.Manager", true)
	assert.Equal(t, 1, matched)

	matched, _ = c.SetEnabled("Unknown", true)
	assert.Equal(t, 0, matched)
}
