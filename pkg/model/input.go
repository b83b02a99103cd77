package model

// Input is a typed slot on a sink, optionally bound to one attribute of a source output.
// Binding and unbinding only ever mutate the input, never the source.
type Input struct {
	id          int
	name        string
	description string
	typ         AttributeType
	required    bool

	owner  Sink
	source Source
	attr   *Attribute
}

// InputOption configures an input at construction.
type InputOption func(in *Input)

func InputDescription(description string) InputOption {
	return func(in *Input) {
		in.description = description
	}
}

// InputOptional lets validation pass while the input is unbound.
func InputOptional() InputOption {
	return func(in *Input) {
		in.required = false
	}
}

// NewInput creates a required input. It belongs to the sink it is handed to.
func NewInput(id int, name string, typ AttributeType, opts ...InputOption) (*Input, error) {
	if name == "" {
		return nil, newValidationError(KindRequired, "input", "input name cannot be empty")
	}
	if !typ.Valid() {
		return nil, newValidationError(KindMalformed, name, "unknown input type %q", typ)
	}
	in := &Input{
		id:       id,
		name:     name,
		typ:      typ,
		required: true,
	}
	for _, opt := range opts {
		opt(in)
	}

	return in, nil
}

func (in *Input) ID() int {
	return in.id
}

func (in *Input) Name() string {
	return in.name
}

func (in *Input) Description() string {
	return in.description
}

func (in *Input) Type() AttributeType {
	return in.typ
}

func (in *Input) IsRequired() bool {
	return in.required
}

func (in *Input) Owner() Sink {
	return in.owner
}

func (in *Input) Source() Source {
	return in.source
}

// SourceAttribute is the bound attribute, nil when unbound.
func (in *Input) SourceAttribute() *Attribute {
	return in.attr
}

func (in *Input) IsConnected() bool {
	return in.source != nil
}

// ConnectSource binds the input to source using the first compatible attribute of its output.
func (in *Input) ConnectSource(source Source) error {
	if source == nil {
		in.ClearSource()
		return nil
	}
	candidates := source.Output().EventType().CompatibleAttributes(in.typ)
	if len(candidates) == 0 {
		return newValidationError(KindIncompatible, in.name,
			"%s has no attribute compatible with %s", source.Name(), in.typ)
	}

	if !in.sourceSatisfiesJoins(source) {
		return newValidationError(KindIncompatible, in.name,
			"%s has no attribute usable as join key for %s", source.Name(), in.name)
	}
	in.bind(source, candidates[0])

	return nil
}

// ConnectSourceAttribute binds the input to a specific attribute of source.
func (in *Input) ConnectSourceAttribute(source Source, attr *Attribute) error {
	if source == nil {
		in.ClearSource()
		return nil
	}
	err := in.checkAttribute(source, attr)
	if err != nil {
		return err
	}
	if !in.sourceSatisfiesJoins(source) {
		return newValidationError(KindIncompatible, in.name,
			"%s has no attribute usable as join key for %s", source.Name(), in.name)
	}
	in.bind(source, attr)

	return nil
}

// SetSourceAttribute rebinds the input to another attribute of its current source.
func (in *Input) SetSourceAttribute(attr *Attribute) error {
	if in.source == nil {
		return newValidationError(KindRequired, in.name, "connect a source before choosing an attribute")
	}
	err := in.checkAttribute(in.source, attr)
	if err != nil {
		return err
	}
	in.attr = attr

	return nil
}

// ClearSource unbinds the input and every join key chosen through it. It always succeeds.
func (in *Input) ClearSource() {
	in.source = nil
	in.attr = nil
	in.clearJoinKeys()
}

func (in *Input) checkAttribute(source Source, attr *Attribute) error {
	if attr == nil || !source.Output().EventType().Contains(attr) {
		return newValidationError(KindIncompatible, in.name, "attribute does not belong to %s", source.Name())
	}
	if !attr.IsCompatibleWith(in.typ) {
		return newValidationError(KindIncompatible, in.name,
			"attribute %s of type %s is not compatible with %s", attr.Name(), attr.Type(), in.typ)
	}

	return nil
}

func (in *Input) bind(source Source, attr *Attribute) {
	if in.source != source {
		in.clearJoinKeys()
	}
	in.source = source
	in.attr = attr
}

func (in *Input) joins() []*ProcessorJoin {
	p, ok := in.owner.(*Processor)
	if !ok {
		return nil
	}

	return p.joinsFor(in)
}

func (in *Input) clearJoinKeys() {
	for _, j := range in.joins() {
		j.ClearJoinAttributeForInput(in)
	}
}

// sourceSatisfiesJoins reports whether source offers a key for every required join whose other
// side is already keyed.
func (in *Input) sourceSatisfiesJoins(source Source) bool {
	for _, j := range in.joins() {
		other := j.JoinAttributeForInput(j.OtherInput(in))
		if !j.IsRequired() || other == nil {
			continue
		}
		found := false
		for _, attr := range source.Output().EventType().Attributes() {
			if joinCompatible(attr.Type(), other.Type()) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func (in *Input) copy() *Input {
	return &Input{
		id:          in.id,
		name:        in.name,
		description: in.description,
		typ:         in.typ,
		required:    in.required,
	}
}
