package scene

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type health struct{ Points int }
type mover struct{}

type emitter struct{ log *[]string }

func (e *emitter) OnDestroy() { *e.log = append(*e.log, "emitter") }

func TestInstantiate_FreshComponentsUnderParent(t *testing.T) {
	root := NewObject("root")
	tpl := &Template{
		Name: "Player",
		Components: []ComponentSource{
			{Type: reflect.TypeOf(&health{}), New: func() (any, error) { return &health{Points: 3}, nil }},
			{Type: reflect.TypeOf(&mover{}), New: func() (any, error) { return &mover{}, nil }},
		},
	}

	first, err := Instantiate(tpl, root)
	require.NoError(t, err)
	second, err := Instantiate(tpl, root)
	require.NoError(t, err)

	assert.Equal(t, "Player", first.Name)
	assert.Same(t, root, first.Parent())
	assert.Len(t, root.Children, 2)

	a, ok := first.Component(reflect.TypeOf(&health{}))
	require.True(t, ok)
	b, _ := second.Component(reflect.TypeOf(&health{}))
	assert.NotSame(t, a, b)

	_, ok = first.Component(reflect.TypeOf(health{}))
	assert.False(t, ok)
}

func TestInstantiate_ComponentError(t *testing.T) {
	tpl := &Template{
		Name: "Broken",
		Components: []ComponentSource{
			{Type: reflect.TypeOf(&mover{}), New: func() (any, error) { return nil, errors.New("boom") }},
		},
	}

	_, err := Instantiate(tpl, nil)
	assert.ErrorContains(t, err, "boom")
}

func TestDestroy_Recursive(t *testing.T) {
	root := NewObject("root")
	child := NewObject("child")
	root.AddChild(child)

	root.Destroy()
	root.Destroy()

	assert.True(t, root.Destroyed())
	assert.True(t, child.Destroyed())
	assert.Empty(t, root.Children)
}

func TestDestroy_NotifiesComponentsOnce(t *testing.T) {
	var log []string
	root := NewObject("root")
	root.Components = []any{&emitter{log: &log}}
	child := NewObject("child")
	child.Components = []any{&mover{}, &emitter{log: &log}}
	root.AddChild(child)

	root.Destroy()
	root.Destroy()

	assert.Equal(t, []string{"emitter", "emitter"}, log)
	assert.Empty(t, root.Components)
}
