// Package assets persists singleton assets on a file system.
//
// Every asset is a YAML document next to a ".meta" sidecar holding its GUID,
// so catalogue references survive the asset being moved or renamed.
package assets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/toutaio/toutago-autosingleton/catalogue"
)

// Store is the storage the reconciliation engine writes through.
type Store interface {
	// EnsureFolder creates folder and its parents when absent.
	EnsureFolder(folder string) error

	// CreateAsset persists a free-standing object at path.
	CreateAsset(path, name, typeName string, value any) (catalogue.ObjectRef, error)

	// CreatePrefab persists a template container named name with component attached.
	CreatePrefab(path, name, typeName string, component any) (catalogue.ObjectRef, error)

	// Delete removes the asset and its sidecar.
	Delete(ref catalogue.ObjectRef) error

	// Locate returns the current reference of an asset, false when it is gone.
	Locate(ref catalogue.ObjectRef) (catalogue.ObjectRef, bool)

	// Existing returns the reference of an asset of typeName already stored
	// at path, false when there is none or it holds another type.
	Existing(path, typeName string) (catalogue.ObjectRef, bool)
}

// Reader reads persisted documents back.
type Reader interface {
	ReadAsset(ref catalogue.ObjectRef) (*AssetDocument, error)
	ReadPrefab(ref catalogue.ObjectRef) (*PrefabDocument, error)
}

// FileStore implements Store and Reader on an afero file system.
// Paths handed to it are slash separated and relative to root.
type FileStore struct {
	fs     afero.Fs
	root   string
	logger *zap.Logger
}

// StoreOption configures a FileStore.
type StoreOption func(*FileStore)

// WithLogger sets the logger used for storage diagnostics.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// NewFileStore creates a store rooted at root.
func NewFileStore(fs afero.Fs, root string, opts ...StoreOption) *FileStore {
	if root == "" {
		root = "."
	}
	s := &FileStore{
		fs:     fs,
		root:   filepath.Clean(root),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fs returns the underlying file system.
func (s *FileStore) Fs() afero.Fs {
	return s.fs
}

// Root returns the asset root.
func (s *FileStore) Root() string {
	return s.root
}

// Abs converts a store-relative path to a file system path.
func (s *FileStore) Abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

func (s *FileStore) rel(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// EnsureFolder creates folder recursively.
func (s *FileStore) EnsureFolder(folder string) error {
	if err := s.fs.MkdirAll(s.Abs(folder), 0o755); err != nil {
		return errors.Wrapf(err, "create folder %s", folder)
	}
	return nil
}

// CreateAsset writes an AssetDocument holding value. A file already at path
// is replaced and gets a new GUID.
func (s *FileStore) CreateAsset(path, name, typeName string, value any) (catalogue.ObjectRef, error) {
	data, err := encodeData(value)
	if err != nil {
		return catalogue.ObjectRef{}, errors.Wrapf(err, "encode %s", typeName)
	}
	doc := &AssetDocument{Name: name, Type: typeName, Data: data}
	return s.write(path, name, typeName, doc)
}

// CreatePrefab writes a PrefabDocument with a single component.
func (s *FileStore) CreatePrefab(path, name, typeName string, component any) (catalogue.ObjectRef, error) {
	data, err := encodeData(component)
	if err != nil {
		return catalogue.ObjectRef{}, errors.Wrapf(err, "encode %s", typeName)
	}
	doc := &PrefabDocument{
		Name:       name,
		Components: []ComponentDocument{{Type: typeName, Data: data}},
	}
	return s.write(path, name, typeName, doc)
}

func (s *FileStore) write(path, name, typeName string, doc any) (catalogue.ObjectRef, error) {
	full := s.Abs(path)

	exists, err := afero.Exists(s.fs, full)
	if err != nil {
		return catalogue.ObjectRef{}, errors.Wrapf(err, "stat %s", path)
	}
	if exists {
		s.logger.Warn("Replacing asset", zap.String("path", path))
	}

	body, err := yaml.Marshal(doc)
	if err != nil {
		return catalogue.ObjectRef{}, errors.Wrapf(err, "encode %s", path)
	}
	if err := afero.WriteFile(s.fs, full, body, 0o644); err != nil {
		return catalogue.ObjectRef{}, errors.Wrapf(err, "write %s", path)
	}

	meta := Meta{GUID: uuid.NewString()}
	metaBody, err := yaml.Marshal(&meta)
	if err == nil {
		err = afero.WriteFile(s.fs, full+MetaExtension, metaBody, 0o644)
	}
	if err != nil {
		if rmErr := s.fs.Remove(full); rmErr != nil {
			s.logger.Warn("Failed to roll back asset without sidecar",
				zap.String("path", path), zap.Error(rmErr))
		}
		return catalogue.ObjectRef{}, errors.Wrapf(err, "write %s%s", path, MetaExtension)
	}

	s.logger.Debug("Created asset", zap.String("path", path), zap.String("guid", meta.GUID))

	return catalogue.ObjectRef{
		GUID: meta.GUID,
		Path: filepath.ToSlash(path),
		Type: typeName,
		Name: name,
	}, nil
}

// Delete removes the asset file and its sidecar. Files already gone are not an error.
func (s *FileStore) Delete(ref catalogue.ObjectRef) error {
	full := s.Abs(ref.Path)
	if err := s.fs.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "delete %s", ref.Path)
	}
	if err := s.fs.Remove(full + MetaExtension); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "delete %s%s", ref.Path, MetaExtension)
	}
	s.logger.Debug("Deleted asset", zap.String("path", ref.Path))
	return nil
}

// Locate checks the recorded path first, then searches every sidecar for the GUID.
func (s *FileStore) Locate(ref catalogue.ObjectRef) (catalogue.ObjectRef, bool) {
	if ref.GUID == "" {
		return ref, false
	}
	if guid, ok := s.readGUID(s.Abs(ref.Path) + MetaExtension); ok && guid == ref.GUID {
		if exists, _ := afero.Exists(s.fs, s.Abs(ref.Path)); exists {
			return ref, true
		}
	}

	found := ""
	_ = afero.Walk(s.fs, s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(p, MetaExtension) {
			return nil
		}
		if guid, ok := s.readGUID(p); ok && guid == ref.GUID {
			asset := strings.TrimSuffix(p, MetaExtension)
			if exists, _ := afero.Exists(s.fs, asset); exists {
				found = asset
				return filepath.SkipAll
			}
		}
		return nil
	})
	if found == "" {
		return ref, false
	}

	ref.Path = s.rel(found)
	return ref, true
}

// Existing reads the asset at path and its sidecar. The asset is reported only
// when it carries typeName, as its own type or as a component of a prefab.
func (s *FileStore) Existing(path, typeName string) (catalogue.ObjectRef, bool) {
	guid, ok := s.readGUID(s.Abs(path) + MetaExtension)
	if !ok {
		return catalogue.ObjectRef{}, false
	}
	var doc storedDocument
	if err := s.read(path, &doc); err != nil {
		s.logger.Debug("Unreadable asset", zap.String("path", path), zap.Error(err))
		return catalogue.ObjectRef{}, false
	}
	if !doc.holds(typeName) {
		return catalogue.ObjectRef{}, false
	}
	return catalogue.ObjectRef{
		GUID: guid,
		Path: filepath.ToSlash(path),
		Type: typeName,
		Name: doc.Name,
	}, true
}

func (s *FileStore) readGUID(metaPath string) (string, bool) {
	body, err := afero.ReadFile(s.fs, metaPath)
	if err != nil {
		return "", false
	}
	var meta Meta
	if err := yaml.Unmarshal(body, &meta); err != nil {
		s.logger.Warn("Unreadable sidecar", zap.String("path", s.rel(metaPath)), zap.Error(err))
		return "", false
	}
	return meta.GUID, meta.GUID != ""
}

// ReadAsset decodes the AssetDocument at ref.
func (s *FileStore) ReadAsset(ref catalogue.ObjectRef) (*AssetDocument, error) {
	var doc AssetDocument
	if err := s.read(ref.Path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReadPrefab decodes the PrefabDocument at ref.
func (s *FileStore) ReadPrefab(ref catalogue.ObjectRef) (*PrefabDocument, error) {
	var doc PrefabDocument
	if err := s.read(ref.Path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *FileStore) read(path string, out any) error {
	body, err := afero.ReadFile(s.fs, s.Abs(path))
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
