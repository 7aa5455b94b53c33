// Package reconcile keeps the singleton catalogue in sync with the type index.
//
// A run walks every processor in turn. For each one it computes which types
// must have a singleton asset, prunes catalogue entries that no longer match a
// declared type and creates assets for declared types that have none. Errors
// on single entries are recorded in the Report and never abort the run.
package reconcile

import (
	"context"
	"path"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/toutaio/toutago-autosingleton/assets"
	"github.com/toutaio/toutago-autosingleton/catalogue"
	"github.com/toutaio/toutago-autosingleton/typeindex"
)

// Engine runs reconciliation passes.
type Engine struct {
	index      *typeindex.Index
	store      assets.Store
	processors []Processor
	logger     *zap.Logger
	logChanges bool

	fs            afero.Fs
	cataloguePath string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLogChanges toggles the end-of-processor change dump.
func WithLogChanges(enabled bool) Option {
	return func(e *Engine) {
		e.logChanges = enabled
	}
}

// WithProcessors replaces the built-in processors.
func WithProcessors(processors ...Processor) Option {
	return func(e *Engine) {
		e.processors = processors
	}
}

// WithDefaultFolders overrides the default folder of the built-in processors.
// Empty values keep the built-in folder.
func WithDefaultFolders(assetFolder, componentFolder string) Option {
	return func(e *Engine) {
		for i := range e.processors {
			switch {
			case e.processors[i].Kind == typeindex.KindAsset && assetFolder != "":
				e.processors[i].DefaultFolder = assetFolder
			case e.processors[i].Kind == typeindex.KindComponent && componentFolder != "":
				e.processors[i].DefaultFolder = componentFolder
			}
		}
	}
}

// WithCatalogueFile makes Run save the catalogue at path when it changed.
func WithCatalogueFile(fs afero.Fs, path string) Option {
	return func(e *Engine) {
		e.fs = fs
		e.cataloguePath = path
	}
}

// NewEngine creates an engine over index writing through store.
func NewEngine(index *typeindex.Index, store assets.Store, opts ...Option) *Engine {
	e := &Engine{
		index:      index,
		store:      store,
		processors: DefaultProcessors(),
		logger:     zap.NewNop(),
		logChanges: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Processors returns the processors in run order.
func (e *Engine) Processors() []Processor {
	return slices.Clone(e.processors)
}

// Run reconciles cat. Per-entry failures are collected in Report.Err.
// The returned error only reports cancellation or a failed save. The
// catalogue is written at most once, after the last processor that ran, so a
// cancelled run still records the assets it created.
func (e *Engine) Run(ctx context.Context, cat *catalogue.Catalogue) (*Report, error) {
	report := &Report{}

	nulled, moved := cat.Resolve(e.store.Locate)
	if moved > 0 {
		report.Moved = moved
		cat.SetDirty()
		report.add("Catalogue", LevelMessage, "Followed %d moved assets.", moved)
	}
	if nulled > 0 {
		report.add("Catalogue", LevelWarning, "%d entries reference missing assets.", nulled)
	}

	var cancelled error
	for _, p := range e.processors {
		if err := ctx.Err(); err != nil {
			cancelled = errors.Wrap(err, "reconcile")
			e.logger.Warn("Reconciliation cancelled", zap.String("before", p.Title))
			break
		}
		e.process(p, cat, report)
		e.dump(p, report)
	}

	if e.fs == nil {
		return report, cancelled
	}
	saved, err := cat.SaveIfDirty(e.fs, e.cataloguePath)
	if err != nil {
		return report, errors.CombineErrors(cancelled, err)
	}
	report.Saved = saved
	if saved {
		e.logger.Info("Saved singleton catalogue", zap.String("path", e.cataloguePath))
	}
	return report, cancelled
}

// Reconcile loads the catalogue configured with WithCatalogueFile, runs a
// pass over it and saves it.
func (e *Engine) Reconcile(ctx context.Context) (*catalogue.Catalogue, *Report, error) {
	if e.fs == nil {
		return nil, nil, errors.New("reconcile: no catalogue file configured")
	}
	cat, err := catalogue.Load(e.fs, e.cataloguePath)
	if err != nil {
		return nil, nil, err
	}
	report, err := e.Run(ctx, cat)
	return cat, report, err
}

type parameter struct {
	info   *typeindex.TypeInfo
	folder string
	name   string
}

type parameters struct {
	ordered []parameter
	byType  map[string]int
}

func (ps *parameters) add(p parameter) bool {
	if _, ok := ps.byType[p.info.QualifiedName]; ok {
		return false
	}
	ps.byType[p.info.QualifiedName] = len(ps.ordered)
	ps.ordered = append(ps.ordered, p)
	return true
}

func (ps *parameters) has(typeName string) bool {
	_, ok := ps.byType[typeName]
	return ok
}

// declaredTypes returns the annotated types of kind with every type listed
// before the types it derives from.
func (e *Engine) declaredTypes(kind typeindex.Kind) []*typeindex.TypeInfo {
	var ordered []*typeindex.TypeInfo
	for _, info := range e.index.Annotated(kind) {
		at := len(ordered)
		for i, listed := range ordered {
			if e.index.IsSubtype(info, listed) {
				at = i
				break
			}
		}
		ordered = slices.Insert(ordered, at, info)
	}
	return ordered
}

func (e *Engine) parameters(p Processor) *parameters {
	declared := e.declaredTypes(p.Kind)
	params := &parameters{byType: make(map[string]int, len(declared))}

	for _, info := range declared {
		d := info.Declaration
		folder := d.FolderPath
		if folder == "" {
			folder = p.DefaultFolder
		}
		name := d.DisplayName
		if name == "" {
			name = info.Name
		}
		params.add(parameter{info: info, folder: folder, name: name})
	}

	for _, info := range declared {
		if !info.Declaration.Inherited {
			continue
		}
		folder := params.ordered[params.byType[info.QualifiedName]].folder
		for _, derived := range e.index.DerivedFrom(info) {
			params.add(parameter{info: derived, folder: folder, name: derived.Name})
		}
	}
	return params
}

func (e *Engine) process(p Processor, cat *catalogue.Catalogue, report *Report) {
	params := e.parameters(p)
	partition := cat.Partition(p.Kind)

	if n := partition.RemoveNull(); n > 0 {
		report.RemovedNull += n
		cat.SetDirty()
		report.add(p.Title, LevelMessage, "Removed %d null entries from %s.", n, catalogue.AssetName)
	}

	seen := make(map[string]bool, len(*partition))
	for i := 0; i < len(*partition); {
		ref := *(*partition)[i].Reference
		duplicate := seen[ref.Type]
		if params.has(ref.Type) && !duplicate {
			seen[ref.Type] = true
			i++
			continue
		}
		if err := e.store.Delete(ref); err != nil {
			e.logger.Error("Failed to delete singleton asset",
				zap.String("processor", p.Title), zap.String("path", ref.Path), zap.Error(err))
			report.fail(p.Title, err, "Could not delete %s", ref.Path)
			seen[ref.Type] = true
			i++
			continue
		}
		partition.Remove(i)
		report.Deleted++
		cat.SetDirty()
		if duplicate {
			report.add(p.Title, LevelMessage, "Deleted duplicate %s singleton at %s.", ref.Type, ref.Path)
		} else {
			report.add(p.Title, LevelMessage, "Deleted %s singleton at %s.", ref.Type, ref.Path)
		}
	}

	existing := partition.Types()
	for _, param := range params.ordered {
		info := param.info
		if !info.Instantiable() || existing[info.QualifiedName] {
			continue
		}
		assetPath := path.Join(param.folder, param.name+"."+p.Extension)
		if ref, ok := e.store.Existing(assetPath, info.QualifiedName); ok {
			partition.Append(ref)
			existing[info.QualifiedName] = true
			report.Adopted++
			cat.SetDirty()
			report.add(p.Title, LevelMessage, "Adopted %s singleton at %s.", info.QualifiedName, assetPath)
			continue
		}
		if err := e.store.EnsureFolder(param.folder); err != nil {
			e.logger.Error("Failed to create singleton folder",
				zap.String("processor", p.Title), zap.String("folder", param.folder), zap.Error(err))
			report.fail(p.Title, err, "Could not create folder %s", param.folder)
			continue
		}
		ref, err := p.Create(e.store, e.index.New(info), assetPath, param.name, info.QualifiedName)
		if err != nil {
			e.logger.Error("Failed to create singleton asset",
				zap.String("processor", p.Title), zap.String("path", assetPath), zap.Error(err))
			report.fail(p.Title, err, "Could not create %s", assetPath)
			continue
		}
		partition.Append(ref)
		existing[info.QualifiedName] = true
		report.Created++
		cat.SetDirty()
		report.add(p.Title, LevelMessage, "Created %s singleton at %s.", info.QualifiedName, assetPath)
	}
}

func (e *Engine) dump(p Processor, report *Report) {
	if !e.logChanges {
		return
	}
	changes := report.For(p.Title)
	if len(changes) == 0 {
		return
	}
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		lines = append(lines, c.Level.String()+": "+c.Message)
	}
	e.logger.Info("Singleton reconciliation", zap.String("processor", p.Title), zap.Strings("changes", lines))
}
