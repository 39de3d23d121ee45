package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Default artifact file names inside the models directory.
const (
	DefaultClassifierFile = "cls_pipeline.json"
	DefaultRegressorFile  = "reg_pipeline.json"
	ManifestFile          = "manifest.yaml"
)

// Manifest pins the artifact files and, optionally, their SHA-256 digests.
type Manifest struct {
	Classifier ManifestEntry `yaml:"classifier"`
	Regressor  ManifestEntry `yaml:"regressor"`
}

// ManifestEntry describes one artifact file.
type ManifestEntry struct {
	File   string `yaml:"file"`
	SHA256 string `yaml:"sha256"`
}

// Paths locates the two artifacts on disk.
type Paths struct {
	Classifier       string
	Regressor        string
	ClassifierSHA256 string
	RegressorSHA256  string
}

// ResolvePaths builds Paths for a models directory. If dir contains a
// manifest.yaml it decides the file names and digests; explicit file names
// passed here win over the manifest. A manifest digest only applies to the
// file it names. Relative names are joined onto dir.
func ResolvePaths(dir, classifierFile, regressorFile string) (Paths, error) {
	m, err := ReadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Paths{}, err
	}
	if m == nil {
		m = &Manifest{}
	}
	cls, clsDigest := m.Classifier.resolve(dir, classifierFile, DefaultClassifierFile)
	reg, regDigest := m.Regressor.resolve(dir, regressorFile, DefaultRegressorFile)
	return Paths{
		Classifier:       cls,
		Regressor:        reg,
		ClassifierSHA256: clsDigest,
		RegressorSHA256:  regDigest,
	}, nil
}

// resolve picks the artifact path and the digest that belongs to it.
func (e ManifestEntry) resolve(dir, override, fallback string) (string, string) {
	pinned := joinDir(dir, firstNonEmpty(e.File, fallback))
	if override == "" {
		return pinned, e.SHA256
	}
	path := joinDir(dir, override)
	if filepath.Clean(path) == filepath.Clean(pinned) {
		return path, e.SHA256
	}
	return path, ""
}

// ReadManifest parses a manifest file. A missing file returns (nil, nil).
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, unavailable(path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, unavailable(path, eris.Wrap(err, "parse manifest"))
	}
	return &m, nil
}

// UnavailableError reports an artifact that could not be loaded. It matches
// ErrUnavailable under errors.Is.
type UnavailableError struct {
	Path string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("artifact: load %s: %v", e.Path, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// LoadClassifier reads and builds the classification pipeline at path.
// Every failure wraps ErrUnavailable.
func LoadClassifier(path, digest string) (*LinearClassifier, error) {
	doc, err := readDocument(path, digest)
	if err != nil {
		return nil, err
	}
	c, err := NewClassifier(*doc)
	if err != nil {
		return nil, unavailable(path, err)
	}
	return c, nil
}

// LoadRegressor reads and builds the regression pipeline at path.
// Every failure wraps ErrUnavailable.
func LoadRegressor(path, digest string) (*LinearRegressor, error) {
	doc, err := readDocument(path, digest)
	if err != nil {
		return nil, err
	}
	r, err := NewRegressor(*doc)
	if err != nil {
		return nil, unavailable(path, err)
	}
	return r, nil
}

func readDocument(path, digest string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, unavailable(path, err)
	}
	if digest != "" {
		sum := sha256.Sum256(data)
		if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, digest) {
			return nil, unavailable(path, eris.Errorf("checksum mismatch: manifest %s, file %s", digest, got))
		}
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, unavailable(path, err)
	}
	return doc, nil
}

func unavailable(path string, err error) error {
	return &UnavailableError{Path: path, Err: err}
}

func joinDir(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
