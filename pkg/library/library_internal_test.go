package library

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-octopus/pkg/model"
)

type testRuntime struct {
	out *bytes.Buffer
}

func (rc testRuntime) StandardOut() io.Writer {
	return rc.out
}

func (rc testRuntime) StandardError() io.Writer {
	return io.Discard
}

func (rc testRuntime) Logger() hclog.Logger {
	return hclog.NewNullLogger()
}

func single(v interface{}) model.InputEvents {
	return model.InputEvents{
		Events: map[int]model.Event{1: {"x": v}},
		Fields: map[int]string{1: "x"},
	}
}

func TestMovingAverage(t *testing.T) {
	t.Parallel()
	ma := &movingAverage{size: 3}
	ctx := context.Background()

	var got []interface{}
	for _, v := range []float64{3, 6, 9, 12, 0} {
		out, ok, err := ma.ProcessEvent(ctx, nil, single(v))
		require.NoError(t, err)
		require.True(t, ok)
		got = append(got, out)
	}
	assert.Equal(t, []interface{}{3.0, 4.5, 6.0, 9.0, 7.0}, got)

	_, _, err := ma.ProcessEvent(ctx, nil, single("abc"))
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestBinaryWaitsForBothInputs(t *testing.T) {
	t.Parallel()
	sub := binary(func(a, b float64) float64 { return a - b })

	_, ok, err := sub.ProcessEvent(context.Background(), nil, single(5))
	require.NoError(t, err)
	assert.False(t, ok)

	inputs := model.InputEvents{
		Events: map[int]model.Event{1: {"a": 5}, 2: {"b": int32(2)}},
		Fields: map[int]string{1: "a", 2: "b"},
	}
	out, ok, err := sub.ProcessEvent(context.Background(), nil, inputs)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3.0, out)
}

func TestThreshold(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		th   threshold
		in   float64
		pass bool
	}{
		"above passes": {th: threshold{limit: 10, above: true}, in: 11, pass: true},
		"above blocks": {th: threshold{limit: 10, above: true}, in: 10},
		"below passes": {th: threshold{limit: 10}, in: 9, pass: true},
		"below blocks": {th: threshold{limit: 10}, in: 12},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, ok, err := tc.th.ProcessEvent(context.Background(), nil, single(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.pass, ok)
		})
	}
}

func TestSequenceAndRandomSources(t *testing.T) {
	t.Parallel()
	price, err := model.NewAttribute("price", model.TypeDouble)
	require.NoError(t, err)
	label, err := model.NewAttribute("label", model.TypeString)
	require.NoError(t, err)
	schema := []*model.Attribute{price, label}
	rc := testRuntime{out: &bytes.Buffer{}}

	var seq []model.Event
	err = (&sequence{count: 3, start: 1, step: 0.5, schema: schema}).Run(context.Background(), rc, func(ev model.Event) error {
		seq = append(seq, ev)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []model.Event{
		{"price": 1.0, "label": "1"},
		{"price": 1.5, "label": "1.5"},
		{"price": 2.0, "label": "2"},
	}, seq)

	collect := func() []model.Event {
		var out []model.Event
		err := (&randomEvents{count: 4, seed: 7, schema: schema}).Run(context.Background(), rc, func(ev model.Event) error {
			out = append(out, ev)
			return nil
		})
		require.NoError(t, err)

		return out
	}
	first := collect()
	assert.Len(t, first, 4)
	assert.Equal(t, first, collect())
}

func TestSourceStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (&sequence{count: 3}).Run(ctx, testRuntime{}, func(model.Event) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsoleAndCollector(t *testing.T) {
	t.Parallel()
	rc := testRuntime{out: &bytes.Buffer{}}
	c := &console{prefix: "> ", names: map[int]string{1: "value"}}
	require.NoError(t, c.ProcessEvent(context.Background(), rc, single(4.5)))
	assert.Equal(t, "> value=4.5\n", rc.out.String())

	records := NewRecords()
	col := &collector{name: "k", records: records}
	require.NoError(t, col.ProcessEvent(context.Background(), rc, single(1)))
	require.NoError(t, col.ProcessEvent(context.Background(), rc, single(2)))
	assert.Equal(t, []interface{}{1, 2}, records.Values("k"))
	records.Reset()
	assert.Empty(t, records.Values("k"))
}
