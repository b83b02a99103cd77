package compiler

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/askiada/go-octopus/pkg/engine"
	"github.com/askiada/go-octopus/pkg/model"
)

// emit builds one statement per node. The model is already validated, so every failure here is a
// defect.
func (c *Compiler) emit(p *plan) ([]engine.Statement, error) {
	statements := make([]engine.Statement, 0, len(p.order))
	for _, n := range p.order {
		st, err := p.emitNode(n)
		if err != nil {
			return nil, model.NewInternalError(errors.Wrapf(err, "unable to emit %s %s", n.Kind(), n.Name()))
		}
		statements = append(statements, st)
	}

	return statements, nil
}

func (p *plan) emitNode(n model.Node) (engine.Statement, error) {
	switch node := n.(type) {
	case *model.ExternalSource:
		return p.emitSource(node)
	case *model.Processor:
		return p.emitProcessor(node)
	case *model.ExternalSink:
		return p.emitSink(node)
	}

	return nil, errors.Errorf("unknown node type %T", n)
}

func (p *plan) emitSource(src *model.ExternalSource) (engine.Statement, error) {
	attrs := src.Output().EventType().Attributes()
	fields := make([]engine.Field, len(attrs))
	for i, attr := range attrs {
		fields[i] = engine.Field{Name: attr.Name(), Type: attr.Type()}
	}
	compiled, err := src.Compile()
	if err != nil {
		return nil, err
	}

	return &engine.IngestStatement{
		Stream: p.aliases[src.ID()],
		Fields: fields,
		Source: compiled,
	}, nil
}

func (p *plan) emitProcessor(proc *model.Processor) (engine.Statement, error) {
	refs, aliasOf, err := p.refs(proc.Inputs())
	if err != nil {
		return nil, err
	}

	var joins []engine.JoinPredicate
	for _, j := range proc.Joins() {
		if !j.IsKeyed() {
			continue
		}
		left, lok := aliasOf[j.FirstInput()]
		right, rok := aliasOf[j.SecondInput()]
		if !lok || !rok {
			return nil, errors.Errorf("join %s is keyed on an unbound input", j.Name())
		}
		joins = append(joins, engine.JoinPredicate{
			LeftAlias:  left,
			LeftField:  j.JoinAttributeForInput(j.FirstInput()).Name(),
			RightAlias: right,
			RightField: j.JoinAttributeForInput(j.SecondInput()).Name(),
		})
	}

	compiled, err := proc.Compile()
	if err != nil {
		return nil, err
	}
	out := proc.ProcessorOutput()

	return &engine.DeriveStatement{
		Stream:    p.aliases[proc.ID()],
		Output:    engine.Field{Name: out.AttributeName(), Type: out.Type()},
		Function:  proc.Behavior().Function(),
		Refs:      refs,
		Joins:     joins,
		Processor: compiled,
	}, nil
}

func (p *plan) emitSink(sink *model.ExternalSink) (engine.Statement, error) {
	refs, _, err := p.refs(sink.Inputs())
	if err != nil {
		return nil, err
	}
	compiled, err := sink.Compile()
	if err != nil {
		return nil, err
	}

	return &engine.SubscribeStatement{
		Sink:     p.aliases[sink.ID()],
		Refs:     refs,
		Listener: compiled,
	}, nil
}

// refs references every bound input under a positional alias. Unbound optional inputs are
// left out.
func (p *plan) refs(inputs []*model.Input) ([]engine.InputRef, map[*model.Input]string, error) {
	refs := make([]engine.InputRef, 0, len(inputs))
	aliasOf := make(map[*model.Input]string, len(inputs))
	for _, in := range inputs {
		if !in.IsConnected() {
			continue
		}
		stream, ok := p.aliases[in.Source().ID()]
		if !ok {
			return nil, nil, errors.Errorf("input %s reads %s which was not emitted", in.Name(), in.Source().Name())
		}
		attr := in.SourceAttribute()
		if attr == nil {
			return nil, nil, errors.Errorf("input %s has no bound attribute", in.Name())
		}
		alias := fmt.Sprintf("i%d", len(refs))
		aliasOf[in] = alias
		refs = append(refs, engine.InputRef{
			ID:     in.ID(),
			Name:   in.Name(),
			Alias:  alias,
			Stream: stream,
			Field:  attr.Name(),
		})
	}

	return refs, aliasOf, nil
}
