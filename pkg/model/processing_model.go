package model

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Connection is an edge from a source attribute to an input. It only exists as a consequence of
// the input binding.
type Connection struct {
	Source    Source
	Attribute *Attribute
	Input     *Input
}

// ProcessingModel owns the external sources, processors and external sinks of a graph.
// It is not safe for concurrent mutation; callers serialise access.
type ProcessingModel struct {
	name       string
	sources    []*ExternalSource
	processors []*Processor
	sinks      []*ExternalSink
}

// NewProcessingModel creates an empty model.
func NewProcessingModel(name string) (*ProcessingModel, error) {
	if name == "" {
		return nil, newValidationError(KindRequired, "model name", "cannot be empty")
	}

	return &ProcessingModel{name: name}, nil
}

func (m *ProcessingModel) Name() string {
	return m.name
}

func (m *ProcessingModel) SetName(name string) error {
	if name == "" {
		return newValidationError(KindRequired, "model name", "cannot be empty")
	}
	m.name = name

	return nil
}

func (m *ProcessingModel) ExternalSources() []*ExternalSource {
	return append([]*ExternalSource(nil), m.sources...)
}

func (m *ProcessingModel) Processors() []*Processor {
	return append([]*Processor(nil), m.processors...)
}

func (m *ProcessingModel) ExternalSinks() []*ExternalSink {
	return append([]*ExternalSink(nil), m.sinks...)
}

// Nodes returns external sources, processors and external sinks, each group in insertion order.
func (m *ProcessingModel) Nodes() []Node {
	nodes := make([]Node, 0, len(m.sources)+len(m.processors)+len(m.sinks))
	for _, s := range m.sources {
		nodes = append(nodes, s)
	}
	for _, p := range m.processors {
		nodes = append(nodes, p)
	}
	for _, s := range m.sinks {
		nodes = append(nodes, s)
	}

	return nodes
}

func (m *ProcessingModel) NodeByID(id uuid.UUID) (Node, bool) {
	for _, n := range m.Nodes() {
		if n.ID() == id {
			return n, true
		}
	}

	return nil, false
}

// Contains reports whether n, by identity, is part of the model.
func (m *ProcessingModel) Contains(n Node) bool {
	if n == nil {
		return false
	}
	found, ok := m.NodeByID(n.ID())

	return ok && found == n
}

// AddExternalSource adds src. Adding a node that is already present does nothing.
func (m *ProcessingModel) AddExternalSource(src *ExternalSource) {
	if m.Contains(src) {
		return
	}
	m.sources = append(m.sources, src)
}

func (m *ProcessingModel) AddProcessor(p *Processor) {
	if m.Contains(p) {
		return
	}
	m.processors = append(m.processors, p)
}

func (m *ProcessingModel) AddExternalSink(sink *ExternalSink) {
	if m.Contains(sink) {
		return
	}
	m.sinks = append(m.sinks, sink)
}

// RemoveExternalSource removes src and unbinds every input fed by it.
func (m *ProcessingModel) RemoveExternalSource(src *ExternalSource) {
	m.sources = removeNode(m.sources, src)
	m.severSource(src)
}

// RemoveProcessor removes p and severs its connections in both directions.
func (m *ProcessingModel) RemoveProcessor(p *Processor) {
	m.processors = removeNode(m.processors, p)
	m.severSource(p)
	for _, in := range p.inputs {
		in.ClearSource()
	}
}

// RemoveExternalSink removes sink and unbinds its inputs.
func (m *ProcessingModel) RemoveExternalSink(sink *ExternalSink) {
	m.sinks = removeNode(m.sinks, sink)
	for _, in := range sink.inputs {
		in.ClearSource()
	}
}

func removeNode[N Node](nodes []N, target N) []N {
	out := nodes[:0]
	for _, n := range nodes {
		if Node(n) != Node(target) {
			out = append(out, n)
		}
	}

	return out
}

func (m *ProcessingModel) severSource(src Source) {
	for _, in := range m.allInputs() {
		if in.source == src {
			in.ClearSource()
		}
	}
}

func (m *ProcessingModel) sinkNodes() []Sink {
	out := make([]Sink, 0, len(m.processors)+len(m.sinks))
	for _, p := range m.processors {
		out = append(out, p)
	}
	for _, s := range m.sinks {
		out = append(out, s)
	}

	return out
}

func (m *ProcessingModel) allInputs() []*Input {
	var out []*Input
	for _, sink := range m.sinkNodes() {
		out = append(out, sink.Inputs()...)
	}

	return out
}

// Connect binds in to src. Both ends must be part of the model.
func (m *ProcessingModel) Connect(src Source, in *Input) error {
	err := m.checkEnds(src, in)
	if err != nil {
		return err
	}

	return in.ConnectSource(src)
}

// ConnectAttribute binds in to a specific attribute of src. Both ends must be part of the model.
func (m *ProcessingModel) ConnectAttribute(src Source, attr *Attribute, in *Input) error {
	err := m.checkEnds(src, in)
	if err != nil {
		return err
	}

	return in.ConnectSourceAttribute(src, attr)
}

// Disconnect clears the binding of in.
func (m *ProcessingModel) Disconnect(in *Input) {
	in.ClearSource()
}

func (m *ProcessingModel) checkEnds(src Source, in *Input) error {
	if src == nil || !m.Contains(src) {
		return errors.Wrap(ErrNodeNotInModel, "connection source")
	}
	if in == nil || in.owner == nil || !m.Contains(in.owner) {
		return errors.Wrap(ErrNodeNotInModel, "connection target")
	}

	return nil
}

// Connections lists every bound input, processors first, then external sinks, inputs in order.
func (m *ProcessingModel) Connections() []Connection {
	var out []Connection
	for _, in := range m.allInputs() {
		if in.source == nil {
			continue
		}
		out = append(out, Connection{Source: in.source, Attribute: in.attr, Input: in})
	}

	return out
}

// IsExternalSourceAttributeInUse reports whether any input or join in the model refers to attr
// of src. It is a query used to warn before destructive schema edits, not a constraint.
func (m *ProcessingModel) IsExternalSourceAttributeInUse(src *ExternalSource, attr *Attribute) bool {
	return m.IsSourceAttributeInUse(src, attr)
}

// IsSourceAttributeInUse is IsExternalSourceAttributeInUse for any source, processors included.
// Attributes are compared by id.
func (m *ProcessingModel) IsSourceAttributeInUse(src Source, attr *Attribute) bool {
	if src == nil || attr == nil {
		return false
	}
	for _, in := range m.allInputs() {
		if in.source != src {
			continue
		}
		if in.attr != nil && in.attr.ID() == attr.ID() {
			return true
		}
	}
	for _, p := range m.processors {
		for _, j := range p.joins {
			for _, in := range []*Input{j.first, j.second} {
				key := j.JoinAttributeForInput(in)
				if in.source == src && key != nil && key.ID() == attr.ID() {
					return true
				}
			}
		}
	}

	return false
}
