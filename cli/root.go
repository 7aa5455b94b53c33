// Package cli is the command line tooling around the singleton catalogue.
package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-autosingleton/assets"
	"github.com/toutaio/toutago-autosingleton/catalogue"
	"github.com/toutaio/toutago-autosingleton/config"
	"github.com/toutaio/toutago-autosingleton/internal/logging"
	"github.com/toutaio/toutago-autosingleton/typeindex"
)

type settings struct {
	index  *typeindex.Index
	fs     afero.Fs
	logger *zap.Logger
}

// Option configures the command tree.
type Option func(*settings)

// WithTypeIndex enables the commands that need the compiled singleton types.
func WithTypeIndex(idx *typeindex.Index) Option {
	return func(s *settings) {
		s.index = idx
	}
}

// WithFs replaces the OS file system.
func WithFs(fs afero.Fs) Option {
	return func(s *settings) {
		s.fs = fs
	}
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// app is the state shared by every command of one invocation.
type app struct {
	settings
	cfgFile string
	cfg     *config.Config
	store   *assets.FileStore
}

// flag name to config key
var persistentFlags = map[string]string{
	"root":      config.KeyRoot,
	"catalogue": config.KeyCatalogue,
	"log-level": config.KeyLogLevel,
}

// NewRootCommand builds the autosingleton command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{settings: settings{fs: afero.NewOsFs()}}
	for _, opt := range opts {
		opt(&a.settings)
	}

	root := &cobra.Command{
		Use:   "autosingleton",
		Short: "Maintain the singleton catalogue of a game project",
		Long: `autosingleton inspects and edits the Singleton List, the catalogue of every
singleton asset of a project. Projects embedding the tool with their type index
also get reconcile and watch, which keep the catalogue in sync with the code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./autosingleton.yaml)")
	flags.String("root", "", "asset root directory")
	flags.String("catalogue", "", "catalogue path relative to the asset root")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newListCommand(a),
		newToggleCommand(a, true),
		newToggleCommand(a, false),
		newVerifyCommand(a),
	)
	if a.index != nil {
		root.AddCommand(newReconcileCommand(a), newWatchCommand(a))
	}
	return root
}

func (a *app) setup(flags *pflag.FlagSet) error {
	v, err := config.NewViper(a.fs, a.cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, flags); err != nil {
		return err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger == nil {
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return errors.Wrap(err, "create logger")
		}
		a.logger = logger
	}
	a.store = assets.NewFileStore(a.fs, cfg.Root, assets.WithLogger(a.logger))
	return nil
}

// bindFlags binds the persistent flags that were set on the command line.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var result error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := persistentFlags[f.Name]
		if !ok || !f.Changed {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			result = multierror.Append(result, err)
		}
	})
	return result
}

func (a *app) cataloguePath() string {
	return a.store.Abs(a.cfg.Catalogue)
}

func (a *app) loadCatalogue() (*catalogue.Catalogue, error) {
	return catalogue.Load(a.fs, a.cataloguePath())
}
