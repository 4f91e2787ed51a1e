package snapshot

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// CaseExt is the extension of regression case files.
	CaseExt = ".yaml"
	// ManifestFile names the accepted-state manifest inside the regression directory.
	ManifestFile = domain.ManifestFile
)

// Store implements ports.SnapshotStore over a regression directory holding one
// <package>@<version>.yaml file per case.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at dir. The directory is created on first save.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// CaseName returns the file name of the case for root.
func CaseName(root domain.Root) string {
	return root.String() + CaseExt
}

// Load reads and decodes the snapshot at path.
func (s *Store) Load(path string) ([]domain.RawRelease, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a case file chosen by the caller
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrSnapshotReadFailed, err.Error()), "path", path)
	}
	records, err := Decode(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return records, nil
}

// Save writes records as the case for root, replacing any previous file.
func (s *Store) Save(root domain.Root, records []domain.RawRelease) (string, error) {
	data, err := Encode(records)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, CaseName(root))
	if err := s.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Cases lists the case files in lexical order. A missing directory holds no cases.
func (s *Store) Cases() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrSnapshotReadFailed, err.Error()), "dir", s.Dir)
	}

	var cases []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == ManifestFile || strings.HasPrefix(name, ".") || filepath.Ext(name) != CaseExt {
			continue
		}
		cases = append(cases, filepath.Join(s.Dir, name))
	}
	return cases, nil
}

// Manifest reads the accepted classifications, keyed by case file name.
func (s *Store) Manifest() (domain.Manifest, error) {
	path := filepath.Join(s.Dir, ManifestFile)
	data, err := os.ReadFile(path) //nolint:gosec // fixed name inside the regression directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Manifest{}, nil
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrSnapshotReadFailed, err.Error()), "path", path)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrSnapshotDecodeFailed, err.Error()), "path", path)
	}
	m := make(domain.Manifest, len(raw))
	for name, c := range raw {
		m[name] = domain.NormalizeClassification(c)
	}
	return m, nil
}

// SaveManifest replaces the manifest. Keys are written in sorted order.
func (s *Store) SaveManifest(m domain.Manifest) error {
	raw := make(map[string]string, len(m))
	for name, c := range m {
		raw[name] = string(c)
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return zerr.Wrap(domain.ErrSnapshotWriteFailed, err.Error())
	}
	return s.write(filepath.Join(s.Dir, ManifestFile), data)
}

// write replaces path atomically through a temporary file in the same directory.
func (s *Store) write(path string, data []byte) error {
	fail := func(err error) error {
		return zerr.With(zerr.Wrap(domain.ErrSnapshotWriteFailed, err.Error()), "path", path)
	}
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(s.Dir, ".case-*")
	if err != nil {
		return fail(err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fail(err)
	}
	return nil
}
