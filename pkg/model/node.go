package model

import (
	"github.com/google/uuid"
)

// NodeKind tags the closed set of node variants.
type NodeKind int

const (
	NodeExternalSource NodeKind = iota
	NodeProcessor
	NodeExternalSink
)

func (k NodeKind) String() string {
	switch k {
	case NodeExternalSource:
		return "external source"
	case NodeProcessor:
		return "processor"
	case NodeExternalSink:
		return "external sink"
	}

	return "unknown"
}

// Node is any graph participant. The set of implementations is closed: *ExternalSource,
// *Processor and *ExternalSink.
type Node interface {
	ID() uuid.UUID
	Name() string
	SetName(name string) error
	Description() string
	SetDescription(description string)
	Kind() NodeKind
	// Template is the catalog key of the template the node was created from.
	Template() string
	Parameters() *Parameters
	// Clone returns an independent copy with a new identity and the same configuration.
	Clone() Node

	isNode()
}

// Source is a node producing one typed output stream.
type Source interface {
	Node
	Output() *Output
}

// Sink is a node consuming one or more typed inputs.
type Sink interface {
	Node
	Inputs() []*Input
	InputByID(id int) *Input
}

type nodeInfo struct {
	id          uuid.UUID
	template    string
	name        string
	description string
	params      *Parameters
}

func newNodeInfo(id uuid.UUID, template, name, description string, params []*Parameter) (nodeInfo, error) {
	if name == "" {
		return nodeInfo{}, newValidationError(KindRequired, template, "node name cannot be empty")
	}
	ps, err := NewParameters(params...)
	if err != nil {
		return nodeInfo{}, err
	}

	return nodeInfo{
		id:          id,
		template:    template,
		name:        name,
		description: description,
		params:      ps,
	}, nil
}

func (n *nodeInfo) ID() uuid.UUID {
	return n.id
}

func (n *nodeInfo) Name() string {
	return n.name
}

func (n *nodeInfo) SetName(name string) error {
	if name == "" {
		return newValidationError(KindRequired, n.name, "node name cannot be empty")
	}
	n.name = name

	return nil
}

func (n *nodeInfo) Description() string {
	return n.description
}

func (n *nodeInfo) SetDescription(description string) {
	n.description = description
}

func (n *nodeInfo) Template() string {
	return n.template
}

func (n *nodeInfo) Parameters() *Parameters {
	return n.params
}

func (n *nodeInfo) copyWithID(id uuid.UUID) nodeInfo {
	return nodeInfo{
		id:          id,
		template:    n.template,
		name:        n.name,
		description: n.description,
		params:      n.params.copy(),
	}
}

func (n *nodeInfo) isNode() {}

// Output is the stream produced by a source, described by an event type.
type Output struct {
	owner     Source
	eventType *EventType
}

func (o *Output) Source() Source {
	return o.owner
}

func (o *Output) EventType() *EventType {
	return o.eventType
}
