package drawer_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-octopus/pkg/compiler"
	"github.com/askiada/go-octopus/pkg/drawer"
	"github.com/askiada/go-octopus/pkg/library"
	"github.com/askiada/go-octopus/pkg/model"
)

func newModel(t *testing.T) (*model.ProcessingModel, *model.ExternalSource, *model.Processor, *model.ExternalSink) {
	t.Helper()
	c, err := library.NewCatalog()
	require.NoError(t, err)
	m, err := model.NewProcessingModel("diff")
	require.NoError(t, err)
	s, err := c.NewExternalSource(library.SequenceSourceKey, "numbers")
	require.NoError(t, err)
	require.NoError(t, s.Parameters().Set(library.ParamNumberOfEvents, 10))
	p, err := c.NewProcessor(library.SubtractionKey, `"diff"`)
	require.NoError(t, err)
	k, err := c.NewExternalSink(library.CollectorSinkKey, "out")
	require.NoError(t, err)
	m.AddExternalSource(s)
	m.AddProcessor(p)
	m.AddExternalSink(k)
	require.NoError(t, m.Connect(s, p.InputByID(1)))
	require.NoError(t, m.Connect(s, p.InputByID(2)))
	require.NoError(t, m.Connect(p, k.InputByID(1)))

	return m, s, p, k
}

func TestDrawModel(t *testing.T) {
	t.Parallel()
	m, s, p, k := newModel(t)

	d, err := drawer.FromModel(m)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, d.Draw(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `strict digraph "diff" {`))
	assert.Contains(t, out, `label="numbers"`)
	assert.Contains(t, out, `label="\"diff\""`)
	assert.Contains(t, out, `shape="house"`)
	assert.Contains(t, out, `"`+s.ID().String()+`" -> "`+p.ID().String()+`" [label="first, second", weight=0];`)
	assert.Contains(t, out, `"`+p.ID().String()+`" -> "`+k.ID().String()+`" [label="value", weight=0];`)
	assert.Equal(t, 2, strings.Count(out, "->"))

	var again bytes.Buffer
	require.NoError(t, d.Draw(&again))
	assert.Equal(t, out, again.String())
}

func TestDrawMeasure(t *testing.T) {
	t.Parallel()
	m, _, _, _ := newModel(t)
	rt, err := compiler.New().Compile(m)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rt.Start(ctx))
	require.NoError(t, rt.Wait(ctx))
	rt.Shutdown()

	d, err := drawer.FromModel(m)
	require.NoError(t, err)
	require.NoError(t, d.AddMeasure(rt))
	var buf bytes.Buffer
	require.NoError(t, d.Draw(&buf))
	out := buf.String()

	assert.Contains(t, out, "label=<numbers <BR />")
	assert.Contains(t, out, "10 events")
	assert.Contains(t, out, `fontcolor="blue"`)
}
