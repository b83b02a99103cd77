package model_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-octopus/pkg/model"
)

func newCatalogModel(t *testing.T, catalog *testCatalog) *model.ProcessingModel {
	t.Helper()
	m, err := model.NewProcessingModel("catalog")
	require.NoError(t, err)

	left, ok := catalog.sources["Source"].Clone().(*model.ExternalSource)
	require.True(t, ok)
	require.NoError(t, left.SetName("Left"))
	right, ok := catalog.sources["Source"].Clone().(*model.ExternalSource)
	require.True(t, ok)
	require.NoError(t, right.Output().EventType().AddAttribute(attr(t, "venue", model.TypeString)))
	avg, ok := catalog.processors["Average"].Clone().(*model.Processor)
	require.True(t, ok)
	require.NoError(t, avg.Parameters().Set(1, 12))
	joined, ok := catalog.processors["Join"].Clone().(*model.Processor)
	require.True(t, ok)
	require.NoError(t, joined.ProcessorOutput().SetAttributeName("total"))
	sink, ok := catalog.sinks["Sink"].Clone().(*model.ExternalSink)
	require.True(t, ok)
	sink.SetDescription("prints totals")

	m.AddExternalSource(left)
	m.AddExternalSource(right)
	m.AddProcessor(avg)
	m.AddProcessor(joined)
	m.AddExternalSink(sink)

	require.NoError(t, m.Connect(left, avg.InputByID(1)))
	require.NoError(t, m.Connect(avg, joined.InputByID(1)))
	require.NoError(t, m.ConnectAttribute(right, right.Output().EventType().AttributeByName("qty"), joined.InputByID(2)))
	require.NoError(t, m.Connect(joined, sink.InputByID(1)))
	j := joined.JoinByName("key")
	require.NoError(t, j.SetJoinAttributeForInput(joined.InputByID(1), avg.ProcessorOutput().Attribute()))
	require.NoError(t, j.SetJoinAttributeForInput(joined.InputByID(2), right.Output().EventType().AttributeByName("price")))
	require.NoError(t, m.Validate())

	return m
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)
	m := newCatalogModel(t, catalog)

	doc := m.Export()
	assert.Len(t, doc.ExternalSources, 2)
	assert.Len(t, doc.Processors, 2)
	assert.Len(t, doc.ExternalSinks, 1)
	assert.Len(t, doc.Connections, 4)
	assert.Equal(t, doc, m.Export())

	restored, err := model.Import(doc, catalog)
	require.NoError(t, err)
	assert.Equal(t, doc, restored.Export())
	require.NoError(t, restored.Validate())

	left, ok := restored.NodeByID(m.ExternalSources()[0].ID())
	require.True(t, ok)
	assert.Equal(t, "Left", left.Name())
	avg := restored.Processors()[0]
	assert.Equal(t, 12, avg.Parameters().ByID(1).IntValue())
	assert.Equal(t, "total", restored.Processors()[1].ProcessorOutput().AttributeName())
	assert.True(t, restored.Processors()[1].JoinByName("key").IsKeyed())
}

func TestExportInvalidModelRoundTrip(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)
	m := newCatalogModel(t, catalog)
	m.Disconnect(m.ExternalSinks()[0].InputByID(1))
	require.Error(t, m.Validate())

	doc := m.Export()
	restored, err := model.Import(doc, catalog)
	require.NoError(t, err)
	assert.Equal(t, doc, restored.Export())
	assert.Equal(t, model.KindRequired, model.KindOf(restored.Validate()))
}

func TestImportUnknownTemplate(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)
	doc := newCatalogModel(t, catalog).Export()
	doc.Processors[0].Template = "Median"

	_, err := model.Import(doc, catalog)
	assert.True(t, errors.Is(err, model.ErrUnknownTemplate))
}

func TestImportUnknownConnectionTarget(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)
	doc := newCatalogModel(t, catalog).Export()
	doc.Connections[0].Input = 9

	_, err := model.Import(doc, catalog)
	assert.True(t, errors.Is(err, model.ErrUnknownNode))
}

func TestImportMalformedID(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)
	doc := newCatalogModel(t, catalog).Export()
	doc.ExternalSinks[0].ID = "not-a-uuid"

	_, err := model.Import(doc, catalog)
	assert.Equal(t, model.KindMalformed, model.KindOf(err))
}

func TestImportDanglingInputBinding(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)
	m := newCatalogModel(t, catalog)
	right := m.ExternalSources()[1]
	qty := right.Output().EventType().AttributeByName("qty")
	require.True(t, right.Output().EventType().RemoveAttribute(qty.ID()))
	assert.Equal(t, model.KindIncompatible, model.KindOf(m.Validate()))

	doc := m.Export()
	restored, err := model.Import(doc, catalog)
	require.NoError(t, err)
	assert.Equal(t, doc, restored.Export())
	assert.Equal(t, model.KindIncompatible, model.KindOf(restored.Validate()))

	in := restored.Processors()[1].InputByID(2)
	require.NotNil(t, in.SourceAttribute())
	assert.Equal(t, qty.ID(), in.SourceAttribute().ID())
	assert.Equal(t, "qty", in.SourceAttribute().Name())
	assert.Equal(t, model.TypeInt, in.SourceAttribute().Type())
}

func TestImportDanglingJoinKey(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)
	m := newCatalogModel(t, catalog)
	schema := m.ExternalSources()[1].Output().EventType()
	price := schema.AttributeByName("price")
	require.True(t, schema.RemoveAttribute(price.ID()))

	doc := m.Export()
	restored, err := model.Import(doc, catalog)
	require.NoError(t, err)
	assert.Equal(t, doc, restored.Export())

	err = restored.Validate()
	assert.Equal(t, model.KindIncompatible, model.KindOf(err))
	assert.Contains(t, err.Error(), "no longer belongs")

	joined := restored.Processors()[1]
	key := joined.JoinByName("key").JoinAttributeForInput(joined.InputByID(2))
	require.NotNil(t, key)
	assert.Equal(t, price.ID(), key.ID())
}

func TestImportDanglingWithoutRecordedName(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)
	m := newCatalogModel(t, catalog)
	schema := m.ExternalSources()[1].Output().EventType()
	require.True(t, schema.RemoveAttribute(schema.AttributeByName("qty").ID()))

	doc := m.Export()
	for i := range doc.Connections {
		doc.Connections[i].AttributeName = ""
	}

	_, err := model.Import(doc, catalog)
	assert.Equal(t, model.KindIncompatible, model.KindOf(err))
}

func TestImportRepeatedNodeID(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)
	doc := newCatalogModel(t, catalog).Export()
	doc.ExternalSinks[0].ID = doc.Processors[0].ID

	_, err := model.Import(doc, catalog)
	require.Error(t, err)
	assert.Equal(t, model.KindDuplicateName, model.KindOf(err))
	assert.False(t, model.IsInternal(err))
}
