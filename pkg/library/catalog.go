// Package library holds the node templates shipped with octopus.
package library

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/askiada/go-octopus/pkg/model"
)

// Template keys.
const (
	TestSourceKey     = "TestSource"
	SequenceSourceKey = "SequenceSource"
	SmaKey            = "Sma"
	AdditionKey       = "Addition"
	SubtractionKey    = "Subtraction"
	ThresholdKey      = "Threshold"
	ConsoleSinkKey    = "ConsoleSink"
	CollectorSinkKey  = "CollectorSink"
)

// Catalog holds one template per key. Instances are clones of the templates, so they share the
// template behaviour.
type Catalog struct {
	sources    map[string]*model.ExternalSource
	processors map[string]*model.Processor
	sinks      map[string]*model.ExternalSink
	records    *Records
}

// NewCatalog builds every template. Events delivered to CollectorSink instances are kept in
// Records.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{
		sources:    map[string]*model.ExternalSource{},
		processors: map[string]*model.Processor{},
		sinks:      map[string]*model.ExternalSink{},
		records:    NewRecords(),
	}

	for key, build := range map[string]func() (*model.ExternalSource, error){
		TestSourceKey:     newTestSource,
		SequenceSourceKey: newSequenceSource,
	} {
		src, err := build()
		if err != nil {
			return nil, errors.Wrapf(err, "unable to build template %s", key)
		}
		c.sources[key] = src
	}

	for key, build := range map[string]func() (*model.Processor, error){
		SmaKey:         newSma,
		AdditionKey:    newAddition,
		SubtractionKey: newSubtraction,
		ThresholdKey:   newThreshold,
	} {
		p, err := build()
		if err != nil {
			return nil, errors.Wrapf(err, "unable to build template %s", key)
		}
		c.processors[key] = p
	}

	console, err := newConsoleSink()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build template %s", ConsoleSinkKey)
	}
	c.sinks[ConsoleSinkKey] = console
	collector, err := newCollectorSink(c.records)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build template %s", CollectorSinkKey)
	}
	c.sinks[CollectorSinkKey] = collector

	return c, nil
}

// Records returns what CollectorSink instances of this catalog received.
func (c *Catalog) Records() *Records {
	return c.records
}

// ExternalSourceTemplate returns a copy of the source template key. Templates stay immutable:
// changing the copy never reaches the catalog or later instances.
func (c *Catalog) ExternalSourceTemplate(key string) (*model.ExternalSource, error) {
	tmpl, ok := c.sources[key]
	if !ok {
		return nil, errors.Wrapf(model.ErrUnknownTemplate, "external source %q", key)
	}

	return tmpl.Clone().(*model.ExternalSource), nil
}

func (c *Catalog) ProcessorTemplate(key string) (*model.Processor, error) {
	tmpl, ok := c.processors[key]
	if !ok {
		return nil, errors.Wrapf(model.ErrUnknownTemplate, "processor %q", key)
	}

	return tmpl.Clone().(*model.Processor), nil
}

func (c *Catalog) ExternalSinkTemplate(key string) (*model.ExternalSink, error) {
	tmpl, ok := c.sinks[key]
	if !ok {
		return nil, errors.Wrapf(model.ErrUnknownTemplate, "external sink %q", key)
	}

	return tmpl.Clone().(*model.ExternalSink), nil
}

// Templates lists copies of the sources, processors and sinks, each group sorted by key.
func (c *Catalog) Templates() []model.Node {
	out := make([]model.Node, 0, len(c.sources)+len(c.processors)+len(c.sinks))
	for _, key := range sortedKeys(c.sources) {
		out = append(out, c.sources[key].Clone())
	}
	for _, key := range sortedKeys(c.processors) {
		out = append(out, c.processors[key].Clone())
	}
	for _, key := range sortedKeys(c.sinks) {
		out = append(out, c.sinks[key].Clone())
	}

	return out
}

// NewExternalSource returns a fresh instance of the source template key named name.
func (c *Catalog) NewExternalSource(key, name string) (*model.ExternalSource, error) {
	src, err := c.ExternalSourceTemplate(key)
	if err != nil {
		return nil, err
	}
	err = src.SetName(name)
	if err != nil {
		return nil, err
	}

	return src, nil
}

func (c *Catalog) NewProcessor(key, name string) (*model.Processor, error) {
	p, err := c.ProcessorTemplate(key)
	if err != nil {
		return nil, err
	}
	err = p.SetName(name)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (c *Catalog) NewExternalSink(key, name string) (*model.ExternalSink, error) {
	sink, err := c.ExternalSinkTemplate(key)
	if err != nil {
		return nil, err
	}
	err = sink.SetName(name)
	if err != nil {
		return nil, err
	}

	return sink, nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

var _ model.Catalog = (*Catalog)(nil)
