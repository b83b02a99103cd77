package model

import (
	"github.com/google/uuid"
)

// ProcessorOutput maps the processor result to a single named, typed attribute of its output.
type ProcessorOutput struct {
	attr *Attribute
	et   *EventType
}

// AttributeName is the name given to the result field in the derived stream.
func (po *ProcessorOutput) AttributeName() string {
	return po.attr.Name()
}

func (po *ProcessorOutput) Type() AttributeType {
	return po.attr.Type()
}

func (po *ProcessorOutput) Attribute() *Attribute {
	return po.attr
}

// SetAttributeName renames the result field. The attribute keeps its identity, so inputs bound to
// it stay bound.
func (po *ProcessorOutput) SetAttributeName(name string) error {
	return po.et.RenameAttribute(po.attr.ID(), name)
}

// JoinSpec declares a join between two inputs of a processor template.
type JoinSpec struct {
	Name          string
	FirstInputID  int
	SecondInputID int
	Required      bool
}

// Processor consumes typed inputs, optionally joins pairs of them, and produces one output.
type Processor struct {
	nodeInfo
	inputs   []*Input
	joins    []*ProcessorJoin
	result   *ProcessorOutput
	output   *Output
	behavior ProcessorBehavior
}

// NewProcessor creates a processor template or instance whose output is a single attribute named
// outputName of type outputType.
func NewProcessor(
	template, name, description string,
	inputs []*Input,
	joins []JoinSpec,
	outputName string,
	outputType AttributeType,
	behavior ProcessorBehavior,
	params ...*Parameter,
) (*Processor, error) {
	info, err := newNodeInfo(uuid.New(), template, name, description, params)
	if err != nil {
		return nil, err
	}
	if behavior == nil {
		return nil, Internalf("processor %s has no behaviour", name)
	}
	if len(inputs) == 0 {
		return nil, Internalf("processor %s needs at least one input", name)
	}
	attr, err := NewAttribute(outputName, outputType)
	if err != nil {
		return nil, err
	}
	et, err := NewEventType(attr)
	if err != nil {
		return nil, err
	}

	p := &Processor{nodeInfo: info, behavior: behavior}
	err = adoptInputs(p, inputs)
	if err != nil {
		return nil, err
	}
	p.inputs = inputs
	p.result = &ProcessorOutput{attr: attr, et: et}
	p.output = &Output{owner: p, eventType: et}

	for _, spec := range joins {
		first, second := p.InputByID(spec.FirstInputID), p.InputByID(spec.SecondInputID)
		if first == nil || second == nil || first == second {
			return nil, Internalf("join %s on %s references invalid inputs", spec.Name, name)
		}
		p.joins = append(p.joins, &ProcessorJoin{
			name:     spec.Name,
			first:    first,
			second:   second,
			required: spec.Required,
		})
	}

	return p, nil
}

func (p *Processor) Kind() NodeKind {
	return NodeProcessor
}

func (p *Processor) Inputs() []*Input {
	out := make([]*Input, len(p.inputs))
	copy(out, p.inputs)

	return out
}

func (p *Processor) InputByID(id int) *Input {
	return inputByID(p.inputs, id)
}

func (p *Processor) Joins() []*ProcessorJoin {
	out := make([]*ProcessorJoin, len(p.joins))
	copy(out, p.joins)

	return out
}

func (p *Processor) JoinByName(name string) *ProcessorJoin {
	for _, j := range p.joins {
		if j.name == name {
			return j
		}
	}

	return nil
}

func (p *Processor) joinsFor(in *Input) []*ProcessorJoin {
	var out []*ProcessorJoin
	for _, j := range p.joins {
		if j.first == in || j.second == in {
			out = append(out, j)
		}
	}

	return out
}

// ProcessorOutput is the attribute-name mapping of the result field.
func (p *Processor) ProcessorOutput() *ProcessorOutput {
	return p.result
}

// Output is the derived stream, whose event type holds exactly the result attribute.
func (p *Processor) Output() *Output {
	return p.output
}

func (p *Processor) Behavior() ProcessorBehavior {
	return p.behavior
}

// Compile builds the runtime form of the processor.
func (p *Processor) Compile() (CompiledProcessor, error) {
	return p.behavior.CompileProcessor(p)
}

func (p *Processor) Clone() Node {
	return p.cloneWithID(uuid.New())
}

func (p *Processor) cloneWithID(id uuid.UUID) *Processor {
	out := &Processor{
		nodeInfo: p.nodeInfo.copyWithID(id),
		behavior: p.behavior,
		inputs:   make([]*Input, len(p.inputs)),
	}
	for i, in := range p.inputs {
		out.inputs[i] = in.copy()
		out.inputs[i].owner = out
	}
	for _, j := range p.joins {
		out.joins = append(out.joins, &ProcessorJoin{
			name:     j.name,
			first:    out.InputByID(j.first.id),
			second:   out.InputByID(j.second.id),
			required: j.required,
		})
	}
	et := p.output.eventType.Copy()
	out.result = &ProcessorOutput{attr: et.Attributes()[0], et: et}
	out.output = &Output{owner: out, eventType: et}

	return out
}

var (
	_ Source = (*Processor)(nil)
	_ Sink   = (*Processor)(nil)
)
