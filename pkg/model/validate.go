package model

import (
	"fmt"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-octopus/internal/store"
)

// Validate checks the whole model and returns the first violation found as a *ValidationError.
// Schema edits are allowed to leave the model inconsistent in between; this is where they are
// reconciled.
func (m *ProcessingModel) Validate() error {
	for _, src := range m.sources {
		err := m.validateExternalSource(src)
		if err != nil {
			return err
		}
	}
	for _, p := range m.processors {
		err := m.validateProcessor(p)
		if err != nil {
			return err
		}
	}
	for _, sink := range m.sinks {
		err := m.validateSink(sink)
		if err != nil {
			return err
		}
	}

	_, err := m.Graph()

	return err
}

func (m *ProcessingModel) validateExternalSource(src *ExternalSource) error {
	if src.output.eventType.Len() == 0 {
		return newValidationError(KindRequired, src.name, "external source must declare at least one attribute")
	}

	return validateParameters(src)
}

func (m *ProcessingModel) validateProcessor(p *Processor) error {
	err := validateParameters(p)
	if err != nil {
		return err
	}
	err = CheckName(p.result.AttributeName(), fmt.Sprintf("%s output", p.name))
	if err != nil {
		return err
	}
	for _, in := range p.inputs {
		err := m.validateInput(p, in)
		if err != nil {
			return err
		}
	}
	for _, j := range p.joins {
		err := j.validate()
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *ProcessingModel) validateSink(sink *ExternalSink) error {
	err := validateParameters(sink)
	if err != nil {
		return err
	}
	for _, in := range sink.inputs {
		err := m.validateInput(sink, in)
		if err != nil {
			return err
		}
	}

	return nil
}

func validateParameters(n Node) error {
	err := n.Parameters().Validate()
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{
				Kind:    verr.Kind,
				Subject: fmt.Sprintf("%s.%s", n.Name(), verr.Subject),
				Message: verr.Message,
			}
		}

		return err
	}

	return nil
}

func (m *ProcessingModel) validateInput(owner Sink, in *Input) error {
	subject := fmt.Sprintf("%s.%s", owner.Name(), in.name)
	if in.source == nil {
		if in.required {
			return newValidationError(KindRequired, subject, "input %s of %s is not connected", in.name, owner.Name())
		}

		return nil
	}
	if !m.Contains(in.source) {
		return newValidationError(KindIncompatible, subject,
			"input is connected to %s which is not part of model %s", in.source.Name(), m.name)
	}
	if in.attr == nil || !in.source.Output().EventType().Contains(in.attr) {
		return newValidationError(KindIncompatible, subject,
			"the attribute bound from %s no longer exists", in.source.Name())
	}
	if !in.attr.IsCompatibleWith(in.typ) {
		return newValidationError(KindIncompatible, subject,
			"attribute %s of type %s is not compatible with %s", in.attr.Name(), in.attr.Type(), in.typ)
	}

	return nil
}

func nodeHash(n Node) string {
	return n.ID().String()
}

// Graph builds the node graph of the model: one vertex per node keyed by id, one edge per source
// feeding a sink. A cycle is reported as a *ValidationError of kind KindCycle. Bindings to nodes
// outside the model are skipped.
func (m *ProcessingModel) Graph() (graph.Graph[string, Node], error) {
	g := graph.NewWithStore(nodeHash, store.NewMemoryStore[string, Node](), graph.Directed(), graph.PreventCycles())
	for _, n := range m.Nodes() {
		err := g.AddVertex(n, graph.VertexAttribute("label", n.Name()))
		if err != nil {
			return nil, NewInternalError(errors.Wrapf(err, "unable to add vertex %s", n.Name()))
		}
	}

	for _, conn := range m.Connections() {
		if !m.Contains(conn.Source) {
			continue
		}
		from, to := nodeHash(conn.Source), nodeHash(conn.Input.owner)
		err := g.AddEdge(from, to, graph.EdgeAttribute("label", conn.Input.name))
		switch {
		case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
		case errors.Is(err, graph.ErrEdgeCreatesCycle):
			return nil, newValidationError(KindCycle, conn.Input.owner.Name(),
				"connecting %s to input %s creates a cycle", conn.Source.Name(), conn.Input.name)
		default:
			return nil, NewInternalError(errors.Wrapf(err, "unable to add edge from %s to %s",
				conn.Source.Name(), conn.Input.owner.Name()))
		}
	}

	return g, nil
}
