package model

// ProcessorJoin pairs two inputs of the same processor and records, per input, which attribute
// of that input's bound source is part of the join key.
type ProcessorJoin struct {
	name       string
	first      *Input
	second     *Input
	firstAttr  *Attribute
	secondAttr *Attribute
	required   bool
}

func (j *ProcessorJoin) Name() string {
	return j.name
}

func (j *ProcessorJoin) FirstInput() *Input {
	return j.first
}

func (j *ProcessorJoin) SecondInput() *Input {
	return j.second
}

// IsRequired reports whether both join keys must be set before the model is valid.
func (j *ProcessorJoin) IsRequired() bool {
	return j.required
}

// OtherInput returns the input paired with in, nil when in is not part of the join.
func (j *ProcessorJoin) OtherInput(in *Input) *Input {
	switch in {
	case j.first:
		return j.second
	case j.second:
		return j.first
	}

	return nil
}

// JoinAttributeForInput returns the key attribute chosen for in, nil when none is set.
func (j *ProcessorJoin) JoinAttributeForInput(in *Input) *Attribute {
	switch in {
	case j.first:
		return j.firstAttr
	case j.second:
		return j.secondAttr
	}

	return nil
}

// SetJoinAttributeForInput chooses the key attribute for in. The attribute must belong to the
// source bound to in and be comparable with the key already chosen on the other side.
func (j *ProcessorJoin) SetJoinAttributeForInput(in *Input, attr *Attribute) error {
	if in != j.first && in != j.second {
		return Internalf("input %s is not part of join %s", in.Name(), j.name)
	}
	if attr == nil {
		j.ClearJoinAttributeForInput(in)
		return nil
	}
	if in.source == nil {
		return newValidationError(KindRequired, j.name, "input %s must be connected before choosing a join attribute", in.name)
	}
	if !in.source.Output().EventType().Contains(attr) {
		return newValidationError(KindIncompatible, j.name,
			"attribute %s does not belong to %s", attr.Name(), in.source.Name())
	}
	other := j.JoinAttributeForInput(j.OtherInput(in))
	if other != nil && !joinCompatible(attr.Type(), other.Type()) {
		return newValidationError(KindIncompatible, j.name,
			"attribute %s of type %s cannot be compared with %s of type %s",
			attr.Name(), attr.Type(), other.Name(), other.Type())
	}

	if in == j.first {
		j.firstAttr = attr
	} else {
		j.secondAttr = attr
	}

	return nil
}

// ClearJoinAttributeForInput unsets the key for in. It always succeeds.
func (j *ProcessorJoin) ClearJoinAttributeForInput(in *Input) {
	switch in {
	case j.first:
		j.firstAttr = nil
	case j.second:
		j.secondAttr = nil
	}
}

// validate checks the join against the current state of both inputs.
func (j *ProcessorJoin) validate() error {
	for _, in := range []*Input{j.first, j.second} {
		attr := j.JoinAttributeForInput(in)
		if attr == nil {
			if j.required {
				return newValidationError(KindRequired, j.name, "join attribute for input %s is not set", in.name)
			}

			continue
		}
		if in.source == nil || !in.source.Output().EventType().Contains(attr) {
			return newValidationError(KindIncompatible, j.name,
				"join attribute %s for input %s no longer belongs to its source", attr.Name(), in.name)
		}
	}
	if j.firstAttr != nil && j.secondAttr != nil && !joinCompatible(j.firstAttr.Type(), j.secondAttr.Type()) {
		return newValidationError(KindIncompatible, j.name,
			"join attributes %s and %s have incomparable types", j.firstAttr.Name(), j.secondAttr.Name())
	}

	return nil
}

// IsKeyed reports whether both sides have a key.
func (j *ProcessorJoin) IsKeyed() bool {
	return j.firstAttr != nil && j.secondAttr != nil
}

func joinCompatible(a, b AttributeType) bool {
	return a.AssignableTo(b) || b.AssignableTo(a)
}
