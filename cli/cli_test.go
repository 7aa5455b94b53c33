package cli

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-autosingleton/assets"
	"github.com/toutaio/toutago-autosingleton/catalogue"
	"github.com/toutaio/toutago-autosingleton/typeindex"
)

type Difficulty struct {
	Level int `yaml:"level"`
}

type Spawner struct{}

const assetRoot = "/game/Assets"

func testIndex() *typeindex.Index {
	idx := typeindex.New()
	idx.MustRegister((*Difficulty)(nil), typeindex.Of(typeindex.KindAsset), typeindex.Singleton())
	idx.MustRegister((*Spawner)(nil), typeindex.Of(typeindex.KindComponent), typeindex.Singleton(typeindex.InFolder("Gameplay")))
	return idx
}

func execute(t *testing.T, fs afero.Fs, idx *typeindex.Index, args ...string) (string, error) {
	t.Helper()
	opts := []Option{WithFs(fs), WithLogger(zap.NewNop())}
	if idx != nil {
		opts = append(opts, WithTypeIndex(idx))
	}
	cmd := NewRootCommand(opts...)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--root", assetRoot}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestReconcileThenList(t *testing.T) {
	fs := afero.NewMemMapFs()

	out, err := execute(t, fs, testIndex(), "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "Created 2, adopted 0, deleted 0")

	out, err = execute(t, fs, nil, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Singleton/Assets/Difficulty.asset")
	assert.Contains(t, out, "Gameplay/Spawner.prefab")
	assert.Contains(t, out, typeindex.QualifiedName(&Spawner{}))
}

func TestReconcile_RequiresTypeIndex(t *testing.T) {
	_, err := execute(t, afero.NewMemMapFs(), nil, "reconcile")
	assert.Error(t, err)
}

func TestToggle(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := execute(t, fs, testIndex(), "reconcile")
	require.NoError(t, err)

	out, err := execute(t, fs, nil, "disable", "Spawner")
	require.NoError(t, err)
	assert.Contains(t, out, "Disabled 1 of 1")

	cat, err := catalogue.Load(fs, assetRoot+"/"+catalogue.DefaultPath)
	require.NoError(t, err)
	require.Len(t, cat.Components, 1)
	assert.False(t, cat.Components[0].Enabled)

	out, err = execute(t, fs, nil, "enable", typeindex.QualifiedName(&Spawner{}))
	require.NoError(t, err)
	assert.Contains(t, out, "Enabled 1 of 1")

	_, err = execute(t, fs, nil, "enable", "Nothing")
	assert.ErrorContains(t, err, "no catalogue entry matches")

	_, err = execute(t, fs, nil, "enable")
	assert.Error(t, err, "selector is required")
}

func TestVerify(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx := testIndex()
	_, err := execute(t, fs, idx, "reconcile")
	require.NoError(t, err)

	out, err := execute(t, fs, idx, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "is consistent")

	store := assets.NewFileStore(fs, assetRoot)
	cat, err := catalogue.Load(fs, store.Abs(catalogue.DefaultPath))
	require.NoError(t, err)
	require.NoError(t, store.Delete(*cat.Assets[0].Reference))
	extra, err := store.CreatePrefab("Other.prefab", "Other", typeindex.QualifiedName(&Spawner{}), &Spawner{})
	require.NoError(t, err)
	cat.Components.Append(extra)
	ghost, err := store.CreateAsset("Ghost.asset", "Ghost", "game.Ghost", nil)
	require.NoError(t, err)
	cat.Assets.Append(ghost)
	require.NoError(t, cat.Save(fs, store.Abs(catalogue.DefaultPath)))

	out, err = execute(t, fs, idx, "verify")
	require.Error(t, err)
	assert.Contains(t, out, "1 entries reference missing assets")
	assert.Contains(t, out, "has more than one entry")
	assert.Contains(t, out, "game.Ghost of Ghost.asset is not registered")
}

func TestWatchLoop_DebouncesRemovals(t *testing.T) {
	events := make(chan fsnotify.Event, 8)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())

	var runs, observed atomic.Int32
	ran := make(chan struct{}, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchLoop(ctx, events, errs, 20*time.Millisecond, zap.NewNop(),
			func(fsnotify.Event) { observed.Add(1) },
			func() {
				runs.Add(1)
				ran <- struct{}{}
			})
	}()

	events <- fsnotify.Event{Name: "a.asset", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "a.asset", Op: fsnotify.Remove}
	events <- fsnotify.Event{Name: "a.asset.meta", Op: fsnotify.Remove}
	events <- fsnotify.Event{Name: "b.asset", Op: fsnotify.Rename}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciliation never ran")
	}
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(4), observed.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

func TestWatchLoop_WritesDoNotTrigger(t *testing.T) {
	events := make(chan fsnotify.Event, 1)
	var runs atomic.Int32

	events <- fsnotify.Event{Name: "a.asset", Op: fsnotify.Write}
	close(events)
	watchLoop(context.Background(), events, nil, time.Millisecond, zap.NewNop(),
		func(fsnotify.Event) {}, func() { runs.Add(1) })

	assert.Zero(t, runs.Load())
}
