package autosingleton

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toutaio/toutago-autosingleton/registry"
	"github.com/toutaio/toutago-autosingleton/scene"
)

type hookLog struct {
	calls []string
}

type InputManager struct {
	log *hookLog
}

func (m *InputManager) Initialize() error {
	m.log.calls = append(m.log.calls, "init input")
	return nil
}

func (m *InputManager) Dispose() error {
	m.log.calls = append(m.log.calls, "dispose input")
	return nil
}

type SaveManager struct {
	log     *hookLog
	failing bool
}

func (m *SaveManager) Initialize() error {
	m.log.calls = append(m.log.calls, "init save")
	if m.failing {
		return errors.New("save folder unavailable")
	}
	return nil
}

func (m *SaveManager) Dispose() error {
	m.log.calls = append(m.log.calls, "dispose save")
	if m.failing {
		return errors.New("flush failed")
	}
	return nil
}

func TestContainer_Phases(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	assert.Equal(t, PhaseStopped, c.Phase())
	assert.False(t, c.Running())
	assert.Error(t, c.Stop(ctx), "stopping a stopped container")

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, PhaseRunning, c.Phase())
	assert.Error(t, c.Start(ctx), "starting twice")

	require.NoError(t, c.Stop(ctx))
	assert.False(t, c.Running())
	assert.Zero(t, c.Registry().Len())
}

func TestContainer_HooksRunInRegistryOrder(t *testing.T) {
	log := &hookLog{}
	reg, err := registry.Of(&InputManager{log: log}, &GameSettings{}, &SaveManager{log: log})
	require.NoError(t, err)
	root := scene.NewObject("Auto Singleton")
	c := New(reg, WithRootObject(root))
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Stop(ctx))

	assert.Equal(t, []string{"init input", "init save", "dispose save", "dispose input"}, log.calls)
	assert.True(t, root.Destroyed())
	assert.Same(t, root, c.Root())
}

func TestContainer_HookFailures(t *testing.T) {
	log := &hookLog{}
	reg, err := registry.Of(&SaveManager{log: log, failing: true}, &InputManager{log: log})
	require.NoError(t, err)
	c := New(reg)
	ctx := context.Background()

	err = c.Start(ctx)
	var lifecycle *LifecycleError
	require.ErrorAs(t, err, &lifecycle)
	assert.Equal(t, "initialize", lifecycle.Phase)
	assert.ErrorContains(t, err, "save folder unavailable")
	assert.True(t, c.Running(), "a failed hook does not stop the container")
	assert.Contains(t, log.calls, "init input", "later hooks still run")

	err = c.Stop(ctx)
	require.ErrorAs(t, err, &lifecycle)
	assert.Equal(t, "dispose", lifecycle.Phase)
	assert.False(t, c.Running())
}

func TestContainer_InitializeCanUseAccessors(t *testing.T) {
	settings := &GameSettings{Difficulty: 4}
	reader := &settingsReader{}
	reg, err := registry.Of(settings, reader)
	require.NoError(t, err)
	c := New(reg)
	reader.c = c

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 4, reader.difficulty)
}

type settingsReader struct {
	c          *Container
	difficulty int
}

func (r *settingsReader) Initialize() error {
	settings, err := For[*GameSettings](r.c).Instance()
	if err != nil {
		return err
	}
	r.difficulty = settings.Difficulty
	return nil
}
