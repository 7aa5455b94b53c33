package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-autosingleton/reconcile"
)

// DefaultDebounce groups bursts of file events into one reconciliation.
const DefaultDebounce = 250 * time.Millisecond

func (a *app) engine() *reconcile.Engine {
	return reconcile.NewEngine(a.index, a.store,
		reconcile.WithLogger(a.logger),
		reconcile.WithLogChanges(a.cfg.LogChanges),
		reconcile.WithDefaultFolders(a.cfg.Folders.Asset, a.cfg.Folders.Component),
		reconcile.WithCatalogueFile(a.fs, a.cataloguePath()),
	)
}

func (a *app) reconcile(ctx context.Context, out io.Writer) error {
	_, report, err := a.engine().Reconcile(ctx)
	if err != nil {
		return err
	}
	for _, change := range report.Changes {
		fmt.Fprintln(out, change)
	}
	fmt.Fprintf(out, "Created %d, adopted %d, deleted %d, removed %d null entries.\n",
		report.Created, report.Adopted, report.Deleted, report.RemovedNull)
	return report.Err()
}

func newReconcileCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Create and prune singleton assets to match the registered types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.reconcile(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func newWatchCommand(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reconcile whenever assets are deleted or moved",
		Long: `watch runs one reconciliation when automatic refresh is enabled, then
reconciles again every time files under the asset root are removed or renamed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			run := func() {
				if err := a.reconcile(ctx, out); err != nil {
					a.logger.Error("Reconciliation failed", zap.Error(err))
				}
			}

			if a.cfg.AutomaticRefresh {
				run()
			}

			w, err := fsnotify.NewWatcher()
			if err != nil {
				return errors.Wrap(err, "create file watcher")
			}
			defer w.Close()
			if err := watchTree(w, a.store.Root()); err != nil {
				return err
			}
			a.logger.Info("Watching asset root", zap.String("root", a.store.Root()))

			watchLoop(ctx, w.Events, w.Errors, debounce, a.logger, func(ev fsnotify.Event) {
				if ev.Has(fsnotify.Create) {
					if err := watchTree(w, ev.Name); err != nil {
						a.logger.Debug("Not watching new path", zap.String("path", ev.Name), zap.Error(err))
					}
				}
			}, run)
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", DefaultDebounce, "quiet period before reconciling")
	return cmd
}

// watchTree adds root and every directory below it to w.
func watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			return errors.Wrapf(err, "watch %s", path)
		}
		return nil
	})
}

// watchLoop calls run once per burst of removals or renames, after debounce
// of quiet. Every event is passed to observe first. It returns when ctx is done
// or events is closed.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	debounce time.Duration, logger *zap.Logger, observe func(fsnotify.Event), run func()) {
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			observe(ev)
			if !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Asset tree changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(debounce)
		case <-timer.C:
			run()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("File watcher error", zap.Error(err))
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
