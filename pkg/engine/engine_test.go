package engine_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-octopus/pkg/engine"
	"github.com/askiada/go-octopus/pkg/engine/measure"
	"github.com/askiada/go-octopus/pkg/model"
)

func priceEvents(prices ...float64) []model.Event {
	out := make([]model.Event, len(prices))
	for i, p := range prices {
		out[i] = model.Event{"price": p, "qty": i}
	}

	return out
}

func ingest(name string, src model.CompiledExternalSource) *engine.IngestStatement {
	return &engine.IngestStatement{
		Stream: name,
		Fields: []engine.Field{{Name: "price", Type: model.TypeDouble}, {Name: "qty", Type: model.TypeInt}},
		Source: src,
	}
}

func doubler() *engine.DeriveStatement {
	return &engine.DeriveStatement{
		Stream:   "processor_0",
		Output:   engine.Field{Name: "twice", Type: model.TypeDouble},
		Function: "twice",
		Refs:     []engine.InputRef{{ID: 1, Name: "value", Alias: "i0", Stream: "source_0", Field: "price"}},
		Processor: funcProcessor(func(inputs model.InputEvents) (interface{}, bool, error) {
			v, _ := inputs.Value(1)
			return v.(float64) * 2, true, nil
		}),
	}
}

func subscribe(stream, field string, sink model.CompiledExternalSink) *engine.SubscribeStatement {
	return &engine.SubscribeStatement{
		Sink:     "sink_0",
		Refs:     []engine.InputRef{{ID: 1, Name: "value", Alias: "i0", Stream: stream, Field: field}},
		Listener: sink,
	}
}

func TestEngineRunsToCompletion(t *testing.T) {
	t.Parallel()

	sink := &collector{}
	msr := measure.NewDefaultMeasure()
	eng, err := engine.New([]engine.Statement{
		ingest("source_0", sliceSource{events: priceEvents(1, 2, 3)}),
		doubler(),
		subscribe("processor_0", "twice", sink),
	}, engine.WithMeasure(msr), engine.WithBufferSize(4))
	require.NoError(t, err)
	assert.Len(t, eng.Statements(), 3)

	require.NoError(t, eng.Start(context.Background()))
	require.NoError(t, eng.Wait(context.Background()))

	assert.Equal(t, []interface{}{2.0, 4.0, 6.0}, sink.values(1))
	assert.Equal(t, int64(3), msr.Metric("source_0").Events())
	assert.Equal(t, int64(3), msr.Metric("processor_0").Events())
	assert.Equal(t, int64(3), msr.Metric("sink_0").Events())
	assert.Contains(t, msr.Metric("sink_0").AllTransports(), "processor_0")

	eng.Shutdown()
	eng.Shutdown()
}

func TestEngineJoin(t *testing.T) {
	t.Parallel()

	left := sliceSource{events: []model.Event{{"price": 10, "qty": 1}}}
	right := sliceSource{events: []model.Event{{"price": 5, "qty": 2}, {"price": 7, "qty": 1}}}
	sum := &engine.DeriveStatement{
		Stream:   "processor_0",
		Output:   engine.Field{Name: "sum", Type: model.TypeDouble},
		Function: "add",
		Refs: []engine.InputRef{
			{ID: 1, Name: "left", Alias: "i0", Stream: "source_0", Field: "price"},
			{ID: 2, Name: "right", Alias: "i1", Stream: "source_1", Field: "price"},
		},
		Joins: []engine.JoinPredicate{{LeftAlias: "i0", LeftField: "qty", RightAlias: "i1", RightField: "qty"}},
		Processor: funcProcessor(func(inputs model.InputEvents) (interface{}, bool, error) {
			a, _ := inputs.Value(1)
			b, _ := inputs.Value(2)
			return a.(float64) + b.(float64), true, nil
		}),
	}
	sink := &collector{}
	eng, err := engine.New([]engine.Statement{
		ingest("source_0", left),
		ingest("source_1", right),
		sum,
		subscribe("processor_0", "sum", sink),
	})
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background()))
	require.NoError(t, eng.Wait(context.Background()))

	// only events with matching qty are combined, whatever the arrival order
	require.NotEmpty(t, sink.values(1))
	for _, v := range sink.values(1) {
		assert.Equal(t, 17.0, v)
	}
}

func TestEngineShutdownStopsDeliveries(t *testing.T) {
	t.Parallel()

	sink := &collector{}
	eng, err := engine.New([]engine.Statement{
		&engine.IngestStatement{
			Stream: "source_0",
			Fields: []engine.Field{{Name: "n", Type: model.TypeLong}},
			Source: endlessSource{},
		},
		subscribe("source_0", "n", sink),
	})
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background()))

	require.Eventually(t, func() bool { return sink.count() > 10 }, time.Second, time.Millisecond)
	eng.Shutdown()
	delivered := sink.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, delivered, sink.count())
	require.NoError(t, eng.Wait(context.Background()))
}

func TestEngineReportsRuntimeErrors(t *testing.T) {
	t.Parallel()

	stderr := &bytes.Buffer{}
	failing := doubler()
	failing.Processor = funcProcessor(func(inputs model.InputEvents) (interface{}, bool, error) {
		v, _ := inputs.Value(1)
		if v.(float64) == 2 {
			return nil, false, errors.New("cannot handle 2")
		}

		return v, true, nil
	})
	sink := &collector{}
	msr := measure.NewDefaultMeasure()
	eng, err := engine.New([]engine.Statement{
		ingest("source_0", sliceSource{events: append(priceEvents(1, 2, 3), model.Event{"qty": 1})}),
		failing,
		subscribe("processor_0", "twice", sink),
	}, engine.WithStandardError(stderr), engine.WithMeasure(msr))
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background()))
	require.NoError(t, eng.Wait(context.Background()))

	assert.Equal(t, []interface{}{1.0, 3.0}, sink.values(1))
	assert.Contains(t, stderr.String(), "processor_0: cannot handle 2")
	assert.Contains(t, stderr.String(), "source_0: price")
	assert.Equal(t, int64(1), msr.Metric("processor_0").Dropped())
	assert.Equal(t, int64(1), msr.Metric("source_0").Dropped())
}

func TestEngineStartTwice(t *testing.T) {
	t.Parallel()

	eng, err := engine.New([]engine.Statement{ingest("source_0", sliceSource{})})
	require.NoError(t, err)
	assert.ErrorIs(t, eng.Wait(context.Background()), engine.ErrNotStarted)
	eng.Shutdown()

	require.NoError(t, eng.Start(context.Background()))
	assert.ErrorIs(t, eng.Start(context.Background()), engine.ErrAlreadyStarted)
	eng.Shutdown()
}

func TestEngineWaitHonoursContext(t *testing.T) {
	t.Parallel()

	eng, err := engine.New([]engine.Statement{
		&engine.IngestStatement{
			Stream: "source_0",
			Fields: []engine.Field{{Name: "n", Type: model.TypeLong}},
			Source: endlessSource{},
		},
	})
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background()))
	defer eng.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, eng.Wait(ctx), context.DeadlineExceeded)
}

func TestEngineShutdownUnconsumedSource(t *testing.T) {
	t.Parallel()

	eng, err := engine.New([]engine.Statement{
		&engine.IngestStatement{
			Stream: "source_0",
			Fields: []engine.Field{{Name: "n", Type: model.TypeLong}},
			Source: endlessSource{},
		},
	})
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background()))
	time.Sleep(5 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		eng.Shutdown()
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
	require.NoError(t, eng.Wait(context.Background()))
	assert.Positive(t, eng.Measure().Metric("source_0").Events())
}

func TestNewRejectsBadWiring(t *testing.T) {
	t.Parallel()

	_, err := engine.New([]engine.Statement{subscribe("nowhere", "x", &collector{})})
	assert.ErrorIs(t, err, engine.ErrUnknownStream)

	_, err = engine.New([]engine.Statement{
		ingest("source_0", sliceSource{}),
		ingest("source_0", sliceSource{}),
	})
	assert.ErrorIs(t, err, engine.ErrDuplicateStream)

	_, err = engine.New([]engine.Statement{ingest("source_0", nil)})
	assert.ErrorIs(t, err, engine.ErrMissingBehavior)
}
