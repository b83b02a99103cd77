package model

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"
)

// ParameterType is the value type of a parameter.
type ParameterType string

const (
	ParamString ParameterType = "string"
	ParamInt    ParameterType = "int"
	ParamFloat  ParameterType = "float"
	ParamBool   ParameterType = "bool"
)

// ContextValidator checks a candidate value against the other parameters of the same node.
type ContextValidator func(value interface{}, siblings *Parameters) error

// Parameter is a typed, validated configuration value attached to a node.
type Parameter struct {
	id           int
	name         string
	description  string
	typ          ParameterType
	value        interface{}
	defaultValue interface{}
	required     bool
	legal        []interface{}
	min, max     *float64
	validator    ContextValidator
}

// ParameterOption configures a parameter at construction.
type ParameterOption func(p *Parameter)

func ParameterDescription(description string) ParameterOption {
	return func(p *Parameter) {
		p.description = description
	}
}

func ParameterRequired() ParameterOption {
	return func(p *Parameter) {
		p.required = true
	}
}

// ParameterDefault sets the initial value. It must be valid for the parameter.
func ParameterDefault(v interface{}) ParameterOption {
	return func(p *Parameter) {
		p.defaultValue = v
	}
}

// ParameterConstraint restricts values to a finite legal set.
func ParameterConstraint(legal ...interface{}) ParameterOption {
	return func(p *Parameter) {
		p.legal = legal
	}
}

// ParameterRange bounds numeric values, inclusive on both ends.
func ParameterRange(minimum, maximum float64) ParameterOption {
	return func(p *Parameter) {
		p.min = &minimum
		p.max = &maximum
	}
}

// ParameterMin bounds numeric values from below, inclusive.
func ParameterMin(minimum float64) ParameterOption {
	return func(p *Parameter) {
		p.min = &minimum
	}
}

// ParameterValidator attaches a check that may depend on the other parameters of the node.
func ParameterValidator(fn ContextValidator) ParameterOption {
	return func(p *Parameter) {
		p.validator = fn
	}
}

// NewParameter creates a parameter. A default given through ParameterDefault that fails validation
// is a programmer defect.
func NewParameter(id int, name string, typ ParameterType, opts ...ParameterOption) (*Parameter, error) {
	p := &Parameter{
		id:   id,
		name: name,
		typ:  typ,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.defaultValue != nil {
		v, err := p.validateValue(p.defaultValue, nil)
		if err != nil {
			return nil, NewInternalError(err)
		}
		p.value = v
		p.defaultValue = v
	}

	return p, nil
}

func (p *Parameter) ID() int {
	return p.id
}

func (p *Parameter) Name() string {
	return p.name
}

func (p *Parameter) Description() string {
	return p.description
}

func (p *Parameter) Type() ParameterType {
	return p.typ
}

func (p *Parameter) Value() interface{} {
	return p.value
}

func (p *Parameter) IsRequired() bool {
	return p.required
}

func (p *Parameter) IsConstrained() bool {
	return len(p.legal) > 0
}

// LegalValues returns the constraint set, empty when unconstrained.
func (p *Parameter) LegalValues() []interface{} {
	out := make([]interface{}, len(p.legal))
	copy(out, p.legal)

	return out
}

func (p *Parameter) IsSet() bool {
	return !isEmpty(p.value)
}

func (p *Parameter) StringValue() string {
	return cast.ToString(p.value)
}

func (p *Parameter) IntValue() int {
	return cast.ToInt(p.value)
}

func (p *Parameter) FloatValue() float64 {
	return cast.ToFloat64(p.value)
}

func (p *Parameter) BoolValue() bool {
	return cast.ToBool(p.value)
}

// SetValue validates v without sibling context and stores it. The old value is kept on failure.
func (p *Parameter) SetValue(v interface{}) error {
	return p.setValue(v, nil)
}

func (p *Parameter) setValue(v interface{}, siblings *Parameters) error {
	coerced, err := p.validateValue(v, siblings)
	if err != nil {
		return err
	}
	p.value = coerced

	return nil
}

// ValidateValue checks v the way SetValue would, without changing the parameter.
func (p *Parameter) ValidateValue(v interface{}, siblings *Parameters) error {
	_, err := p.validateValue(v, siblings)
	return err
}

func (p *Parameter) validateValue(v interface{}, siblings *Parameters) (interface{}, error) {
	if isEmpty(v) {
		if p.required {
			return nil, newValidationError(KindRequired, p.name, "a value is required")
		}

		return nil, nil
	}

	coerced, err := p.coerce(v)
	if len(p.legal) > 0 && (err != nil || !p.isLegal(coerced)) {
		return nil, newValidationError(KindNotInSet, p.name, "%v is not one of %v", v, p.legal)
	}
	if err != nil {
		return nil, newValidationError(KindMalformed, p.name, "%v is not a valid %s", v, p.typ)
	}

	if p.typ == ParamInt || p.typ == ParamFloat {
		f := cast.ToFloat64(coerced)
		if p.min != nil && f < *p.min {
			return nil, newValidationError(KindOutOfRange, p.name, "%v is less than %v", v, *p.min)
		}
		if p.max != nil && f > *p.max {
			return nil, newValidationError(KindOutOfRange, p.name, "%v is greater than %v", v, *p.max)
		}
	}

	if p.validator != nil {
		err := p.validator(coerced, siblings)
		if err != nil {
			return nil, err
		}
	}

	return coerced, nil
}

func (p *Parameter) coerce(v interface{}) (interface{}, error) {
	switch p.typ {
	case ParamString:
		return cast.ToStringE(v)
	case ParamInt:
		return cast.ToIntE(v)
	case ParamFloat:
		return cast.ToFloat64E(v)
	case ParamBool:
		return cast.ToBoolE(v)
	}

	return nil, fmt.Errorf("unknown parameter type %q", p.typ)
}

func (p *Parameter) isLegal(v interface{}) bool {
	for _, legal := range p.legal {
		coerced, err := p.coerce(legal)
		if err == nil && coerced == v {
			return true
		}
	}

	return false
}

func (p *Parameter) copy() *Parameter {
	out := *p
	out.legal = p.LegalValues()

	return &out
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)

	return ok && s == ""
}

// Parameters is the ordered parameter set of a node.
type Parameters struct {
	list []*Parameter
}

// NewParameters builds a set, failing on duplicate ids.
func NewParameters(params ...*Parameter) (*Parameters, error) {
	ps := &Parameters{}
	for _, p := range params {
		if ps.ByID(p.id) != nil {
			return nil, Internalf("duplicate parameter id %d", p.id)
		}
		ps.list = append(ps.list, p)
	}
	sort.SliceStable(ps.list, func(i, j int) bool { return ps.list[i].id < ps.list[j].id })

	return ps, nil
}

// List returns the parameters ordered by id.
func (ps *Parameters) List() []*Parameter {
	out := make([]*Parameter, len(ps.list))
	copy(out, ps.list)

	return out
}

func (ps *Parameters) ByID(id int) *Parameter {
	for _, p := range ps.list {
		if p.id == id {
			return p
		}
	}

	return nil
}

func (ps *Parameters) ByName(name string) *Parameter {
	for _, p := range ps.list {
		if p.name == name {
			return p
		}
	}

	return nil
}

// Set validates v against parameter id with the rest of the set as context.
func (ps *Parameters) Set(id int, v interface{}) error {
	p := ps.ByID(id)
	if p == nil {
		return Internalf("unknown parameter id %d", id)
	}

	return p.setValue(v, ps)
}

// Validate re-checks every current value, so a value that became invalid after a sibling changed
// is reported.
func (ps *Parameters) Validate() error {
	for _, p := range ps.list {
		err := p.ValidateValue(p.value, ps)
		if err != nil {
			return err
		}
	}

	return nil
}

func (ps *Parameters) copy() *Parameters {
	out := &Parameters{list: make([]*Parameter, len(ps.list))}
	for i, p := range ps.list {
		out.list[i] = p.copy()
	}

	return out
}
