package repository

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-octopus/pkg/model"
)

// Format is the encoding of stored documents.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

var ErrUnknownFormat = errors.New("unknown document format")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	}

	return "", errors.Wrapf(ErrUnknownFormat, "%s", path)
}

// Encode writes doc in the given format.
func Encode(doc *model.Document, format Format) ([]byte, error) {
	switch format {
	case YAML:
		return yaml.Marshal(doc)
	case JSON:
		return json.MarshalIndent(doc, "", "  ")
	}

	return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
}

func Decode(data []byte, format Format) (*model.Document, error) {
	doc := &model.Document{}
	var err error
	switch format {
	case YAML:
		err = yaml.Unmarshal(data, doc)
	case JSON:
		err = json.Unmarshal(data, doc)
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode document")
	}

	return doc, nil
}

// ReadDocument loads a document file, guessing the format from its extension.
func ReadDocument(path string) (*model.Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	return Decode(data, format)
}

// FileRepository stores one document per model in a directory. The file name is the model name
// plus the extension of the format.
type FileRepository struct {
	mu      sync.Mutex
	dir     string
	format  Format
	catalog Catalog
}

func NewFileRepository(dir string, format Format, catalog Catalog) (*FileRepository, error) {
	if format != YAML && format != JSON {
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", dir)
	}

	return &FileRepository{dir: dir, format: format, catalog: catalog}, nil
}

func (r *FileRepository) Catalog() Catalog {
	return r.catalog
}

func (r *FileRepository) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.Errorf("%q cannot be used as a file name", name)
	}

	return filepath.Join(r.dir, name+"."+string(r.format)), nil
}

func (r *FileRepository) ModelNames() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", r.dir)
	}
	ext := "." + string(r.format)
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(names)

	return names, nil
}

func (r *FileRepository) Model(name string) (*model.ProcessingModel, error) {
	path, err := r.path(name)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	data, err := os.ReadFile(path)
	r.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(ErrModelNotFound, name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}
	doc, err := Decode(data, r.format)
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", name)
	}

	return model.Import(doc, r.catalog)
}

// SaveModel writes to a temporary file first so a failed save leaves the previous version intact.
func (r *FileRepository) SaveModel(m *model.ProcessingModel) error {
	path, err := r.path(m.Name())
	if err != nil {
		return err
	}
	data, err := Encode(m.Export(), r.format)
	if err != nil {
		return errors.Wrapf(err, "unable to encode %s", m.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	tmp, err := os.CreateTemp(r.dir, ".octopus-*")
	if err != nil {
		return errors.Wrap(err, "unable to create temporary file")
	}
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "unable to write %s", m.Name())
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrapf(err, "unable to save %s", m.Name())
	}

	return nil
}

func (r *FileRepository) DeleteModel(name string) error {
	path, err := r.path(name)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(ErrModelNotFound, name)
	}

	return errors.Wrapf(err, "unable to delete %s", name)
}

var _ Repository = (*FileRepository)(nil)
