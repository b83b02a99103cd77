package compiler_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-octopus/pkg/compiler"
	"github.com/askiada/go-octopus/pkg/engine"
	"github.com/askiada/go-octopus/pkg/library"
	"github.com/askiada/go-octopus/pkg/model"
	"github.com/askiada/go-octopus/pkg/runtime"
)

type averagePipeline struct {
	catalog *library.Catalog
	model   *model.ProcessingModel
	source  *model.ExternalSource
	average *model.Processor
	sink    *model.ExternalSink
}

// newAveragePipeline builds S -> P -> K where S counts from 1, P averages the last two values and
// K collects them.
func newAveragePipeline(t *testing.T, count int) *averagePipeline {
	t.Helper()
	c, err := library.NewCatalog()
	require.NoError(t, err)
	m, err := model.NewProcessingModel("averages")
	require.NoError(t, err)

	s, err := c.NewExternalSource(library.SequenceSourceKey, "S")
	require.NoError(t, err)
	require.NoError(t, s.Parameters().Set(library.ParamNumberOfEvents, count))
	require.NoError(t, s.Parameters().Set(library.ParamStart, 1))
	p, err := c.NewProcessor(library.SmaKey, "P")
	require.NoError(t, err)
	require.NoError(t, p.Parameters().Set(library.ParamWindowLength, 2))
	k, err := c.NewExternalSink(library.CollectorSinkKey, "K")
	require.NoError(t, err)

	m.AddExternalSource(s)
	m.AddProcessor(p)
	m.AddExternalSink(k)
	require.NoError(t, m.Connect(s, p.InputByID(1)))
	require.NoError(t, m.Connect(p, k.InputByID(1)))

	return &averagePipeline{catalog: c, model: m, source: s, average: p, sink: k}
}

func TestCompileOrdersStatements(t *testing.T) {
	t.Parallel()
	pl := newAveragePipeline(t, 3)

	rt, err := compiler.New().Compile(pl.model)
	require.NoError(t, err)
	assert.Equal(t, runtime.Compiled, rt.State())

	var kinds []engine.StatementKind
	for _, st := range rt.Statements() {
		kinds = append(kinds, st.Kind())
	}
	assert.Equal(t, []engine.StatementKind{engine.IngestKind, engine.DeriveKind, engine.SubscribeKind}, kinds)
	assert.Equal(t, "CREATE STREAM source_0 (value DOUBLE);\n"+
		"INSERT INTO processor_0 SELECT sma(i0.value) AS average FROM source_0 AS i0;\n"+
		"SUBSCRIBE sink_0 TO SELECT i0.average AS value FROM processor_0 AS i0;", rt.Text())

	for node, alias := range map[model.Node]string{pl.source: "source_0", pl.average: "processor_0", pl.sink: "sink_0"} {
		got, ok := rt.Alias(node.ID())
		assert.True(t, ok)
		assert.Equal(t, alias, got)
	}
}

func TestCompileRejectsInvalidModels(t *testing.T) {
	t.Parallel()
	pl := newAveragePipeline(t, 3)
	pl.model.Disconnect(pl.average.InputByID(1))

	rt, err := compiler.New().Compile(pl.model)
	assert.Nil(t, rt)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, model.KindRequired, verr.Kind)
	assert.Equal(t, "P.value", verr.Subject)

	_, err = compiler.New().Fragments(pl.model)
	assert.Equal(t, model.KindRequired, model.KindOf(err))
}

type failingBehavior struct{}

func (failingBehavior) Function() string {
	return "fail"
}

func (failingBehavior) CompileProcessor(*model.Processor) (model.CompiledProcessor, error) {
	return nil, errors.New("boom")
}

func TestCompileBehaviorFailureIsInternal(t *testing.T) {
	t.Parallel()
	pl := newAveragePipeline(t, 3)
	in, err := model.NewInput(1, "value", model.TypeDouble)
	require.NoError(t, err)
	broken, err := model.NewProcessor("Broken", "B", "", []*model.Input{in}, nil, "out", model.TypeDouble, failingBehavior{})
	require.NoError(t, err)
	pl.model.AddProcessor(broken)
	require.NoError(t, pl.model.Connect(pl.source, broken.InputByID(1)))

	rt, err := compiler.New().Compile(pl.model)
	assert.Nil(t, rt)
	assert.True(t, model.IsInternal(err))
	assert.False(t, model.IsValidation(err))
}

func TestCompileIsDeterministic(t *testing.T) {
	t.Parallel()
	pl := newAveragePipeline(t, 3)
	other, err := pl.catalog.NewExternalSource(library.TestSourceKey, "T")
	require.NoError(t, err)
	pl.model.AddExternalSource(other)
	sub, err := pl.catalog.NewProcessor(library.SubtractionKey, "D")
	require.NoError(t, err)
	pl.model.AddProcessor(sub)
	require.NoError(t, pl.model.Connect(pl.average, sub.InputByID(1)))
	require.NoError(t, pl.model.Connect(other, sub.InputByID(2)))

	c := compiler.New()
	first, err := c.Compile(pl.model)
	require.NoError(t, err)
	second, err := c.Compile(pl.model)
	require.NoError(t, err)
	assert.Equal(t, first.Text(), second.Text())

	doc := pl.model.Export()
	restored, err := model.Import(doc, pl.catalog)
	require.NoError(t, err)
	third, err := c.Compile(restored)
	require.NoError(t, err)
	assert.Equal(t, first.Text(), third.Text())
}

func TestCompileKeyedJoin(t *testing.T) {
	t.Parallel()
	c, err := library.NewCatalog()
	require.NoError(t, err)
	m, err := model.NewProcessingModel("join")
	require.NoError(t, err)

	keyed := func(name string) (*model.ExternalSource, *model.Attribute, *model.Attribute) {
		src, err := c.NewExternalSource(library.SequenceSourceKey, name)
		require.NoError(t, err)
		key, err := model.NewAttribute("k", model.TypeLong)
		require.NoError(t, err)
		value, err := model.NewAttribute("v", model.TypeDouble)
		require.NoError(t, err)
		require.NoError(t, src.Output().EventType().ReplaceAll([]*model.Attribute{key, value}))
		m.AddExternalSource(src)

		return src, key, value
	}
	a, ka, va := keyed("A")
	b, kb, vb := keyed("B")
	add, err := c.NewProcessor(library.AdditionKey, "Add")
	require.NoError(t, err)
	m.AddProcessor(add)
	require.NoError(t, m.ConnectAttribute(a, va, add.InputByID(1)))
	require.NoError(t, m.ConnectAttribute(b, vb, add.InputByID(2)))

	statements, err := compiler.New().Fragments(m)
	require.NoError(t, err)
	require.Len(t, statements, 3)
	derive := statements[2].(*engine.DeriveStatement)
	assert.Empty(t, derive.Joins)

	j := add.JoinByName("key")
	require.NoError(t, j.SetJoinAttributeForInput(add.InputByID(1), ka))
	require.NoError(t, j.SetJoinAttributeForInput(add.InputByID(2), kb))
	statements, err = compiler.New().Fragments(m)
	require.NoError(t, err)
	derive = statements[2].(*engine.DeriveStatement)
	require.Len(t, derive.Refs, 2)
	assert.Equal(t, "INSERT INTO processor_0 SELECT add(i0.v, i1.v) AS sum FROM "+
		derive.Refs[0].Stream+" AS i0, "+derive.Refs[1].Stream+" AS i1 WHERE i0.k = i1.k", derive.Text())
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()
	pl := newAveragePipeline(t, 5)
	var stderr bytes.Buffer
	c := compiler.New(compiler.WithBufferSize(4))
	c.SetStandardError(&stderr)

	rt, err := c.Compile(pl.model)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rt.Start(ctx))
	require.NoError(t, rt.Wait(ctx))
	rt.Shutdown()

	assert.Equal(t, []interface{}{1.0, 1.5, 2.5, 3.5, 4.5}, pl.catalog.Records().Values("K"))
	assert.Empty(t, stderr.String())
	assert.Equal(t, int64(5), rt.Measure().Metric("sink_0").Events())
}

func TestRunWritesToStandardOut(t *testing.T) {
	t.Parallel()
	c, err := library.NewCatalog()
	require.NoError(t, err)
	m, err := model.NewProcessingModel("console")
	require.NoError(t, err)
	s, err := c.NewExternalSource(library.SequenceSourceKey, "S")
	require.NoError(t, err)
	require.NoError(t, s.Parameters().Set(library.ParamNumberOfEvents, 2))
	require.NoError(t, s.Parameters().Set(library.ParamStart, 1))
	k, err := c.NewExternalSink(library.ConsoleSinkKey, "K")
	require.NoError(t, err)
	require.NoError(t, k.Parameters().Set(library.ParamPrefix, "> "))
	m.AddExternalSource(s)
	m.AddExternalSink(k)
	require.NoError(t, m.Connect(s, k.InputByID(1)))

	var stdout bytes.Buffer
	comp := compiler.New()
	comp.SetStandardOut(&stdout)
	rt, err := comp.Compile(m)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rt.Start(ctx))
	require.NoError(t, rt.Wait(ctx))
	rt.Shutdown()

	assert.Equal(t, "> value=1\n> value=2\n", stdout.String())
	assert.Equal(t, runtime.Stopped, rt.State())
	assert.True(t, model.IsInternal(rt.Start(ctx)))
}
