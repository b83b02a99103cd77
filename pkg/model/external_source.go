package model

import (
	"github.com/google/uuid"
)

// ExternalSource is the ingress of a model: a source with a user-defined output schema.
type ExternalSource struct {
	nodeInfo
	output   *Output
	behavior SourceBehavior
}

// NewExternalSource creates a source template or instance with the given schema.
func NewExternalSource(
	template, name, description string,
	eventType *EventType,
	behavior SourceBehavior,
	params ...*Parameter,
) (*ExternalSource, error) {
	return newExternalSource(uuid.New(), template, name, description, eventType, behavior, params...)
}

func newExternalSource(
	id uuid.UUID,
	template, name, description string,
	eventType *EventType,
	behavior SourceBehavior,
	params ...*Parameter,
) (*ExternalSource, error) {
	info, err := newNodeInfo(id, template, name, description, params)
	if err != nil {
		return nil, err
	}
	if behavior == nil {
		return nil, Internalf("external source %s has no behaviour", name)
	}
	if eventType == nil {
		eventType = &EventType{}
	}
	src := &ExternalSource{nodeInfo: info, behavior: behavior}
	src.output = &Output{owner: src, eventType: eventType}

	return src, nil
}

func (s *ExternalSource) Kind() NodeKind {
	return NodeExternalSource
}

func (s *ExternalSource) Output() *Output {
	return s.output
}

func (s *ExternalSource) Behavior() SourceBehavior {
	return s.behavior
}

// Compile builds the runtime form of the source.
func (s *ExternalSource) Compile() (CompiledExternalSource, error) {
	return s.behavior.CompileSource(s)
}

func (s *ExternalSource) Clone() Node {
	return s.cloneWithID(uuid.New())
}

func (s *ExternalSource) cloneWithID(id uuid.UUID) *ExternalSource {
	out := &ExternalSource{
		nodeInfo: s.nodeInfo.copyWithID(id),
		behavior: s.behavior,
	}
	out.output = &Output{owner: out, eventType: s.output.eventType.Copy()}

	return out
}

var _ Source = (*ExternalSource)(nil)
