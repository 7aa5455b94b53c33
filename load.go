package autosingleton

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/toutaio/toutago-autosingleton/assets"
	"github.com/toutaio/toutago-autosingleton/catalogue"
	"github.com/toutaio/toutago-autosingleton/registry"
	"github.com/toutaio/toutago-autosingleton/typeindex"
)

// Load reads the catalogue, builds every enabled singleton and returns a
// running container. Types are resolved through idx.
//
// Structural corruption of the catalogue is fatal and matches
// registry.ErrCorruptCatalogue.
func Load(ctx context.Context, idx *typeindex.Index, opts ...Option) (*Container, error) {
	o := newOptions(opts)

	store := assets.NewFileStore(o.fs, o.assetRoot, assets.WithLogger(o.logger))
	cataloguePath := store.Abs(o.cataloguePath)
	cat, err := catalogue.Load(o.fs, cataloguePath)
	if err != nil {
		return nil, err
	}
	if nulled, _ := cat.Resolve(store.Locate); nulled > 0 {
		o.logger.Debug("Catalogue references missing assets",
			zap.String("catalogue", cataloguePath), zap.Int("count", nulled))
	}

	res, err := registry.Build(cat, assets.NewLoader(store, idx), registry.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	c := New(res.Registry, append(opts, WithRootObject(res.Root))...)
	if err := c.Start(ctx); err != nil {
		if stopErr := c.Stop(ctx); stopErr != nil {
			o.logger.Warn("Failed to stop container after a failed start", zap.Error(stopErr))
		}
		return nil, err
	}
	return c, nil
}

var (
	bootOnce sync.Once
	booted   *Container
	bootErr  error
)

// Boot runs Load once per process. Later calls return the first result
// whatever their arguments.
func Boot(ctx context.Context, idx *typeindex.Index, opts ...Option) (*Container, error) {
	bootOnce.Do(func() {
		booted, bootErr = Load(ctx, idx, opts...)
	})
	return booted, bootErr
}

// Default returns the container created by Boot, nil before Boot succeeded.
func Default() *Container {
	return booted
}
