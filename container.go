package autosingleton

import (
	"context"
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-autosingleton/internal/lazy"
	"github.com/toutaio/toutago-autosingleton/registry"
	"github.com/toutaio/toutago-autosingleton/scene"
)

// Container serves the singletons of one registry for the lifetime of a process.
// The registry never changes; only the selection of each family does.
type Container struct {
	registry *registry.Registry
	root     *scene.Object
	phase    *fsm.FSM
	families lazy.Cache[reflect.Type, any]
	logger   *zap.Logger

	// lifecycle serialises Start and Stop.
	lifecycle sync.Mutex
}

// New creates a stopped container serving reg.
//
// Example:
//
//	reg, _ := registry.Of(&AudioSettings{})
//	container := autosingleton.New(reg)
//	_ = container.Start(ctx)
func New(reg *registry.Registry, opts ...Option) *Container {
	o := newOptions(opts)
	if reg == nil {
		reg = registry.New()
	}
	return &Container{
		registry: reg,
		root:     o.root,
		phase:    newPhaseMachine(o.logger),
		logger:   o.logger,
	}
}

// Registry returns the registry snapshot served by the container.
func (c *Container) Registry() *registry.Registry {
	return c.registry
}

// Root returns the scene object parenting component singletons, nil when none was given.
func (c *Container) Root() *scene.Object {
	return c.root
}

// Phase returns the current phase.
func (c *Container) Phase() string {
	return c.phase.Current()
}

// Running reports whether accessors may be used.
func (c *Container) Running() bool {
	return c.phase.Current() == PhaseRunning
}

// Start enters the running phase, fills the `singleton` tagged fields of
// every instance and initializes every Initializable singleton in registry
// order. Failures are returned together; the container stays running.
func (c *Container) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if err := c.phase.Event(ctx, eventStart); err != nil {
		return errors.Wrap(err, "start singleton container")
	}
	c.logger.Info("Singleton container started", zap.Int("singletons", c.registry.Len()))

	if err := wireAll(c.registry.Instances()); err != nil {
		c.logger.Error("Singleton wiring failed", zap.Error(err))
		return &LifecycleError{Phase: "wire", Cause: err}
	}
	if err := initializeAll(c.registry.Instances()); err != nil {
		c.logger.Error("Singleton initialization failed", zap.Error(err))
		return &LifecycleError{Phase: "initialize", Cause: err}
	}
	return nil
}

// Stop leaves the running phase, disposes every Disposable singleton in
// reverse registry order and destroys the root object.
func (c *Container) Stop(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if err := c.phase.Event(ctx, eventStop); err != nil {
		return errors.Wrap(err, "stop singleton container")
	}

	err := disposeAll(c.registry.Instances())
	if c.root != nil {
		c.root.Destroy()
	}
	c.logger.Info("Singleton container stopped")

	if err != nil {
		c.logger.Error("Singleton disposal failed", zap.Error(err))
		return &LifecycleError{Phase: "dispose", Cause: err}
	}
	return nil
}

// Find returns every registered instance satisfying pred, in registry order.
func (c *Container) Find(pred func(any) bool) ([]any, error) {
	if !c.Running() {
		return nil, &NotRunningError{Op: "find singletons"}
	}
	var found []any
	for _, instance := range c.registry.Instances() {
		if pred(instance) {
			found = append(found, instance)
		}
	}
	return found, nil
}
