package autosingleton

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-autosingleton/catalogue"
	"github.com/toutaio/toutago-autosingleton/config"
	"github.com/toutaio/toutago-autosingleton/scene"
)

type options struct {
	logger        *zap.Logger
	fs            afero.Fs
	assetRoot     string
	cataloguePath string
	root          *scene.Object
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:        zap.NewNop(),
		fs:            afero.NewOsFs(),
		assetRoot:     config.Default().Root,
		cataloguePath: catalogue.DefaultPath,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a Container or Load.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFs sets the file system Load reads assets from.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithAssetRoot sets the asset root directory.
func WithAssetRoot(root string) Option {
	return func(o *options) {
		o.assetRoot = root
	}
}

// WithCataloguePath sets the catalogue location relative to the asset root.
func WithCataloguePath(path string) Option {
	return func(o *options) {
		o.cataloguePath = path
	}
}

// WithConfig applies the asset root and catalogue path of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.assetRoot = cfg.Root
		o.cataloguePath = cfg.Catalogue
	}
}

// WithRootObject hands the scene root of component singletons to the
// container, which destroys it on Stop.
func WithRootObject(root *scene.Object) Option {
	return func(o *options) {
		o.root = root
	}
}
