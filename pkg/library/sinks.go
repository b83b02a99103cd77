package library

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/askiada/go-octopus/pkg/model"
)

const ParamPrefix = 1

func newConsoleSink() (*model.ExternalSink, error) {
	in, err := numberInput(1, "value")
	if err != nil {
		return nil, err
	}
	prefix, err := model.NewParameter(ParamPrefix, "Prefix", model.ParamString,
		model.ParameterDescription("Printed in front of every line."))
	if err != nil {
		return nil, err
	}

	return model.NewExternalSink(ConsoleSinkKey, "Console", "Prints every delivered value to standard out.",
		[]*model.Input{in}, consoleBehavior{}, prefix)
}

type consoleBehavior struct{}

func (consoleBehavior) CompileSink(sink *model.ExternalSink) (model.CompiledExternalSink, error) {
	names := map[int]string{}
	for _, in := range sink.Inputs() {
		names[in.ID()] = in.Name()
	}

	return &console{prefix: sink.Parameters().ByID(ParamPrefix).StringValue(), names: names}, nil
}

type console struct {
	prefix string
	names  map[int]string
}

func (c *console) ProcessEvent(_ context.Context, rc model.RuntimeContext, inputs model.InputEvents) error {
	ids := make([]int, 0, len(inputs.Events))
	for id := range inputs.Events {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		v, _ := inputs.Value(id)
		parts = append(parts, fmt.Sprintf("%s=%v", c.names[id], v))
	}
	_, err := fmt.Fprintf(rc.StandardOut(), "%s%s\n", c.prefix, strings.Join(parts, " "))

	return err
}

// Records keeps the values delivered to collector sinks, per sink name.
type Records struct {
	mu     sync.Mutex
	values map[string][]interface{}
}

func NewRecords() *Records {
	return &Records{values: map[string][]interface{}{}}
}

func (r *Records) add(sink string, v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[sink] = append(r.values[sink], v)
}

// Values returns a copy of what sink received, in delivery order.
func (r *Records) Values(sink string) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]interface{}(nil), r.values[sink]...)
}

func (r *Records) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = map[string][]interface{}{}
}

func newCollectorSink(records *Records) (*model.ExternalSink, error) {
	in, err := numberInput(1, "value")
	if err != nil {
		return nil, err
	}

	return model.NewExternalSink(CollectorSinkKey, "Collector", "Keeps every delivered value in memory.",
		[]*model.Input{in}, collectorBehavior{records: records})
}

type collectorBehavior struct {
	records *Records
}

func (b collectorBehavior) CompileSink(sink *model.ExternalSink) (model.CompiledExternalSink, error) {
	return &collector{name: sink.Name(), records: b.records}, nil
}

type collector struct {
	name    string
	records *Records
}

func (c *collector) ProcessEvent(_ context.Context, _ model.RuntimeContext, inputs model.InputEvents) error {
	v, ok := inputs.Value(1)
	if ok {
		c.records.add(c.name, v)
	}

	return nil
}

var (
	_ model.SinkBehavior = consoleBehavior{}
	_ model.SinkBehavior = collectorBehavior{}
)
