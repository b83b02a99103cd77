package model_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-octopus/pkg/model"
)

type nopBehavior struct{}

func (nopBehavior) Function() string {
	return "nop"
}

func (nopBehavior) CompileSource(*model.ExternalSource) (model.CompiledExternalSource, error) {
	return nopCompiled{}, nil
}

func (nopBehavior) CompileProcessor(*model.Processor) (model.CompiledProcessor, error) {
	return nopCompiled{}, nil
}

func (nopBehavior) CompileSink(*model.ExternalSink) (model.CompiledExternalSink, error) {
	return nopSinkCompiled{}, nil
}

type nopCompiled struct{}

func (nopCompiled) Run(context.Context, model.RuntimeContext, func(model.Event) error) error {
	return nil
}

func (nopCompiled) ProcessEvent(context.Context, model.RuntimeContext, model.InputEvents) (interface{}, bool, error) {
	return nil, false, nil
}

type nopSinkCompiled struct{}

func (nopSinkCompiled) ProcessEvent(context.Context, model.RuntimeContext, model.InputEvents) error {
	return nil
}

var (
	_ model.CompiledExternalSource = nopCompiled{}
	_ model.CompiledProcessor      = nopCompiled{}
	_ model.CompiledExternalSink   = nopSinkCompiled{}
)

func attr(t *testing.T, name string, typ model.AttributeType) *model.Attribute {
	t.Helper()
	a, err := model.NewAttribute(name, typ)
	require.NoError(t, err)

	return a
}

func input(t *testing.T, id int, name string, typ model.AttributeType, opts ...model.InputOption) *model.Input {
	t.Helper()
	in, err := model.NewInput(id, name, typ, opts...)
	require.NoError(t, err)

	return in
}

// newPriceSource returns a source emitting {price FLOAT, qty INT}.
func newPriceSource(t *testing.T, name string) *model.ExternalSource {
	t.Helper()
	et, err := model.NewEventType(attr(t, "price", model.TypeFloat), attr(t, "qty", model.TypeInt))
	require.NoError(t, err)
	src, err := model.NewExternalSource("Source", name, "", et, nopBehavior{})
	require.NoError(t, err)

	return src
}

func newAverage(t *testing.T, name string) *model.Processor {
	t.Helper()
	window, err := model.NewParameter(1, "Window length", model.ParamInt, model.ParameterDefault(3), model.ParameterMin(1))
	require.NoError(t, err)
	p, err := model.NewProcessor("Average", name, "", []*model.Input{input(t, 1, "value", model.TypeFloat)}, nil,
		"avgPrice", model.TypeFloat, nopBehavior{}, window)
	require.NoError(t, err)

	return p
}

func newJoined(t *testing.T, name string, required bool) *model.Processor {
	t.Helper()
	p, err := model.NewProcessor("Join", name, "",
		[]*model.Input{input(t, 1, "left", model.TypeDouble), input(t, 2, "right", model.TypeDouble)},
		[]model.JoinSpec{{Name: "key", FirstInputID: 1, SecondInputID: 2, Required: required}},
		"sum", model.TypeDouble, nopBehavior{})
	require.NoError(t, err)

	return p
}

func newSink(t *testing.T, name string, typ model.AttributeType) *model.ExternalSink {
	t.Helper()
	sink, err := model.NewExternalSink("Sink", name, "", []*model.Input{input(t, 1, "value", typ)}, nopBehavior{})
	require.NoError(t, err)

	return sink
}

// newPricePipeline builds S -> P -> K where P averages S.price.
func newPricePipeline(t *testing.T) (*model.ProcessingModel, *model.ExternalSource, *model.Processor, *model.ExternalSink) {
	t.Helper()
	m, err := model.NewProcessingModel("prices")
	require.NoError(t, err)
	s := newPriceSource(t, "S")
	p := newAverage(t, "P")
	k := newSink(t, "K", model.TypeFloat)
	m.AddExternalSource(s)
	m.AddProcessor(p)
	m.AddExternalSink(k)
	require.NoError(t, m.Connect(s, p.InputByID(1)))
	require.NoError(t, m.Connect(p, k.InputByID(1)))

	return m, s, p, k
}

type testCatalog struct {
	sources    map[string]*model.ExternalSource
	processors map[string]*model.Processor
	sinks      map[string]*model.ExternalSink
}

func newTestCatalog(t *testing.T) *testCatalog {
	t.Helper()

	return &testCatalog{
		sources:    map[string]*model.ExternalSource{"Source": newPriceSource(t, "Source")},
		processors: map[string]*model.Processor{"Average": newAverage(t, "Average"), "Join": newJoined(t, "Join", true)},
		sinks:      map[string]*model.ExternalSink{"Sink": newSink(t, "Sink", model.TypeDouble)},
	}
}

func (c *testCatalog) ExternalSourceTemplate(key string) (*model.ExternalSource, error) {
	if tmpl, ok := c.sources[key]; ok {
		return tmpl, nil
	}

	return nil, errors.Wrap(model.ErrUnknownTemplate, key)
}

func (c *testCatalog) ProcessorTemplate(key string) (*model.Processor, error) {
	if tmpl, ok := c.processors[key]; ok {
		return tmpl, nil
	}

	return nil, errors.Wrap(model.ErrUnknownTemplate, key)
}

func (c *testCatalog) ExternalSinkTemplate(key string) (*model.ExternalSink, error) {
	if tmpl, ok := c.sinks[key]; ok {
		return tmpl, nil
	}

	return nil, errors.Wrap(model.ErrUnknownTemplate, key)
}
