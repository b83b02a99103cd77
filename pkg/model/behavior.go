package model

import (
	"context"
	"io"

	"github.com/hashicorp/go-hclog"
)

// Event is one occurrence on a stream, keyed by attribute name.
type Event map[string]interface{}

// RuntimeContext is handed to compiled nodes while a runtime is running.
type RuntimeContext interface {
	StandardOut() io.Writer
	StandardError() io.Writer
	Logger() hclog.Logger
}

// InputEvents carries, per input id, the latest event of the bound stream and the name of the
// field bound to that input.
type InputEvents struct {
	Events map[int]Event
	Fields map[int]string
}

// Value returns the bound field of the latest event seen on input id.
func (ie InputEvents) Value(inputID int) (interface{}, bool) {
	event, ok := ie.Events[inputID]
	if !ok {
		return nil, false
	}
	v, ok := event[ie.Fields[inputID]]

	return v, ok
}

// Event returns the latest event seen on input id, nil when none arrived yet.
func (ie InputEvents) Event(inputID int) Event {
	return ie.Events[inputID]
}

// CompiledExternalSource pushes events into a running pipeline until it is exhausted or ctx is done.
type CompiledExternalSource interface {
	Run(ctx context.Context, rc RuntimeContext, emit func(Event) error) error
}

// CompiledProcessor computes the value of the processor output from the latest input events.
// Returning false as second value emits nothing for this evaluation.
type CompiledProcessor interface {
	ProcessEvent(ctx context.Context, rc RuntimeContext, inputs InputEvents) (interface{}, bool, error)
}

// CompiledExternalSink delivers results to the outside world.
type CompiledExternalSink interface {
	ProcessEvent(ctx context.Context, rc RuntimeContext, inputs InputEvents) error
}

// SourceBehavior turns a configured external source into its runtime form.
// Behaviours are immutable and shared between a template and its instances.
type SourceBehavior interface {
	CompileSource(source *ExternalSource) (CompiledExternalSource, error)
}

// ProcessorBehavior turns a configured processor into its runtime form.
type ProcessorBehavior interface {
	// Function is the name of the function used in generated query text.
	Function() string
	CompileProcessor(processor *Processor) (CompiledProcessor, error)
}

// SinkBehavior turns a configured external sink into its runtime form.
type SinkBehavior interface {
	CompileSink(sink *ExternalSink) (CompiledExternalSink, error)
}
