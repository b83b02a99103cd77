// Package repository stores named processing models next to the template catalog they are
// built from.
package repository

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-octopus/pkg/model"
)

var ErrModelNotFound = errors.New("model not found")

// Catalog is a model.Catalog that can also list its templates.
type Catalog interface {
	model.Catalog
	Templates() []model.Node
}

type Repository interface {
	// Catalog resolves the templates models are instantiated from.
	Catalog() Catalog
	// ModelNames lists the stored models in name order.
	ModelNames() ([]string, error)
	// Model rebuilds the model stored under name.
	Model(name string) (*model.ProcessingModel, error)
	// SaveModel stores m under its name, replacing any previous version.
	SaveModel(m *model.ProcessingModel) error
	DeleteModel(name string) error
}

// MemoryRepository keeps model documents in memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	catalog Catalog
	docs    map[string]*model.Document
}

func NewMemoryRepository(catalog Catalog) *MemoryRepository {
	return &MemoryRepository{catalog: catalog, docs: map[string]*model.Document{}}
}

func (r *MemoryRepository) Catalog() Catalog {
	return r.catalog
}

func (r *MemoryRepository) ModelNames() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.docs))
	for name := range r.docs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

func (r *MemoryRepository) Model(name string) (*model.ProcessingModel, error) {
	r.mu.RLock()
	doc, ok := r.docs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrModelNotFound, name)
	}

	return model.Import(doc, r.catalog)
}

// SaveModel keeps the exported document, so later edits of m are not seen until it is saved
// again.
func (r *MemoryRepository) SaveModel(m *model.ProcessingModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[m.Name()] = m.Export()

	return nil
}

func (r *MemoryRepository) DeleteModel(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[name]; !ok {
		return errors.Wrap(ErrModelNotFound, name)
	}
	delete(r.docs, name)

	return nil
}

var _ Repository = (*MemoryRepository)(nil)
