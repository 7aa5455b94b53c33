package autosingleton

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toutaio/toutago-autosingleton/assets"
	"github.com/toutaio/toutago-autosingleton/catalogue"
	"github.com/toutaio/toutago-autosingleton/config"
	"github.com/toutaio/toutago-autosingleton/reconcile"
	"github.com/toutaio/toutago-autosingleton/registry"
	"github.com/toutaio/toutago-autosingleton/typeindex"
)

type Difficulty struct {
	Level int `yaml:"level"`
}

type Spawner struct {
	Rate int `yaml:"rate"`
}

const assetRoot = "/game/Assets"

func loadIndex(t *testing.T) *typeindex.Index {
	t.Helper()
	idx := typeindex.New()
	idx.MustRegister((*Difficulty)(nil), typeindex.Of(typeindex.KindAsset), typeindex.Singleton())
	idx.MustRegister((*Spawner)(nil), typeindex.Of(typeindex.KindComponent), typeindex.Singleton(typeindex.Named("Enemy Spawner")))
	return idx
}

func TestLoad_AfterReconcile(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx := loadIndex(t)
	store := assets.NewFileStore(fs, assetRoot)
	engine := reconcile.NewEngine(idx, store,
		reconcile.WithCatalogueFile(fs, store.Abs(catalogue.DefaultPath)))
	_, report, err := engine.Reconcile(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())

	c, err := Load(context.Background(), idx, WithFs(fs), WithAssetRoot(assetRoot))
	require.NoError(t, err)
	assert.True(t, c.Running())
	assert.Equal(t, 2, c.Registry().Len())

	difficulty, err := For[*Difficulty](c).Instance()
	require.NoError(t, err)
	assert.Equal(t, &Difficulty{}, difficulty)

	spawner, err := For[*Spawner](c).Instance()
	require.NoError(t, err)
	require.Len(t, c.Root().Children, 1)
	assert.Equal(t, "Enemy Spawner", c.Root().Children[0].Name)
	assert.Same(t, spawner, c.Root().Children[0].Components[0])

	require.NoError(t, c.Stop(context.Background()))
	assert.True(t, c.Root().Destroyed())
}

func TestLoad_DecodesDataAndSkipsDisabled(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx := loadIndex(t)
	store := assets.NewFileStore(fs, assetRoot)

	difficultyRef, err := store.CreateAsset("Difficulty.asset", "Difficulty", typeindex.QualifiedName(&Difficulty{}), &Difficulty{Level: 7})
	require.NoError(t, err)
	spawnerRef, err := store.CreatePrefab("Spawner.prefab", "Spawner", typeindex.QualifiedName(&Spawner{}), &Spawner{Rate: 3})
	require.NoError(t, err)

	cat := catalogue.New()
	cat.Assets.Append(difficultyRef)
	cat.Components = catalogue.Partition{{Enabled: false, Reference: &spawnerRef}}
	require.NoError(t, cat.Save(fs, store.Abs("Config/singletons.yaml")))

	cfg := config.Default()
	cfg.Root = assetRoot
	cfg.Catalogue = "Config/singletons.yaml"
	c, err := Load(context.Background(), idx, WithFs(fs), WithConfig(cfg))
	require.NoError(t, err)

	assert.Equal(t, 7, For[*Difficulty](c).MustInstance().Level)
	assert.False(t, For[*Spawner](c).HasInstance())
	assert.Empty(t, c.Root().Children)
}

func TestLoad_MissingAssetIsSkipped(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx := loadIndex(t)
	store := assets.NewFileStore(fs, assetRoot)

	ref, err := store.CreateAsset("Difficulty.asset", "Difficulty", typeindex.QualifiedName(&Difficulty{}), &Difficulty{})
	require.NoError(t, err)
	cat := catalogue.New()
	cat.Assets.Append(ref)
	require.NoError(t, cat.Save(fs, store.Abs(catalogue.DefaultPath)))
	require.NoError(t, store.Delete(ref))

	c, err := Load(context.Background(), idx, WithFs(fs), WithAssetRoot(assetRoot))
	require.NoError(t, err)
	assert.Zero(t, c.Registry().Len())
}

func TestLoad_DuplicateTypeIsFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx := loadIndex(t)
	store := assets.NewFileStore(fs, assetRoot)
	typeName := typeindex.QualifiedName(&Difficulty{})

	first, err := store.CreateAsset("Easy.asset", "Easy", typeName, &Difficulty{Level: 1})
	require.NoError(t, err)
	second, err := store.CreateAsset("Hard.asset", "Hard", typeName, &Difficulty{Level: 9})
	require.NoError(t, err)
	cat := catalogue.New()
	cat.Assets.Append(first)
	cat.Assets.Append(second)
	require.NoError(t, cat.Save(fs, store.Abs(catalogue.DefaultPath)))

	_, err = Load(context.Background(), idx, WithFs(fs), WithAssetRoot(assetRoot))
	assert.ErrorIs(t, err, registry.ErrCorruptCatalogue)
	var dup *registry.DuplicateTypeError
	assert.ErrorAs(t, err, &dup)
}

func TestBoot_RunsOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx := loadIndex(t)

	first, err := Boot(context.Background(), idx, WithFs(fs), WithAssetRoot(assetRoot))
	require.NoError(t, err)
	second, err := Boot(context.Background(), nil)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, Default())
}
