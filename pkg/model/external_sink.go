package model

import (
	"github.com/google/uuid"
)

// ExternalSink is the egress of a model: it consumes one or more inputs and hands the results to
// an external side effect supplied by its behaviour.
type ExternalSink struct {
	nodeInfo
	inputs   []*Input
	behavior SinkBehavior
}

// NewExternalSink creates a sink template or instance. Input ids must be unique.
func NewExternalSink(
	template, name, description string,
	inputs []*Input,
	behavior SinkBehavior,
	params ...*Parameter,
) (*ExternalSink, error) {
	info, err := newNodeInfo(uuid.New(), template, name, description, params)
	if err != nil {
		return nil, err
	}
	if behavior == nil {
		return nil, Internalf("external sink %s has no behaviour", name)
	}
	if len(inputs) == 0 {
		return nil, Internalf("external sink %s needs at least one input", name)
	}
	sink := &ExternalSink{nodeInfo: info, behavior: behavior}
	err = adoptInputs(sink, inputs)
	if err != nil {
		return nil, err
	}
	sink.inputs = inputs

	return sink, nil
}

func (s *ExternalSink) Kind() NodeKind {
	return NodeExternalSink
}

func (s *ExternalSink) Inputs() []*Input {
	out := make([]*Input, len(s.inputs))
	copy(out, s.inputs)

	return out
}

func (s *ExternalSink) InputByID(id int) *Input {
	return inputByID(s.inputs, id)
}

func (s *ExternalSink) Behavior() SinkBehavior {
	return s.behavior
}

// Compile builds the runtime form of the sink.
func (s *ExternalSink) Compile() (CompiledExternalSink, error) {
	return s.behavior.CompileSink(s)
}

func (s *ExternalSink) Clone() Node {
	return s.cloneWithID(uuid.New())
}

func (s *ExternalSink) cloneWithID(id uuid.UUID) *ExternalSink {
	out := &ExternalSink{
		nodeInfo: s.nodeInfo.copyWithID(id),
		behavior: s.behavior,
		inputs:   make([]*Input, len(s.inputs)),
	}
	for i, in := range s.inputs {
		out.inputs[i] = in.copy()
		out.inputs[i].owner = out
	}

	return out
}

func adoptInputs(owner Sink, inputs []*Input) error {
	seen := make(map[int]struct{}, len(inputs))
	for _, in := range inputs {
		if _, ok := seen[in.id]; ok {
			return Internalf("duplicate input id %d on %s", in.id, owner.Name())
		}
		if in.owner != nil {
			return Internalf("input %s already belongs to %s", in.name, in.owner.Name())
		}
		seen[in.id] = struct{}{}
		in.owner = owner
	}

	return nil
}

func inputByID(inputs []*Input, id int) *Input {
	for _, in := range inputs {
		if in.id == id {
			return in
		}
	}

	return nil
}

var _ Sink = (*ExternalSink)(nil)
