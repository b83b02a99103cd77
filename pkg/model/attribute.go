package model

import (
	"strings"

	"github.com/google/uuid"
)

// AttributeType is the value type of an attribute or an input slot.
type AttributeType string

const (
	TypeBoolean AttributeType = "BOOLEAN"
	TypeShort   AttributeType = "SHORT"
	TypeInt     AttributeType = "INT"
	TypeLong    AttributeType = "LONG"
	TypeFloat   AttributeType = "FLOAT"
	TypeDouble  AttributeType = "DOUBLE"
	TypeString  AttributeType = "STRING"
)

// numericRank orders numeric types by width. A value can be assigned to any type of equal or
// greater rank.
var numericRank = map[AttributeType]int{
	TypeShort:  1,
	TypeInt:    2,
	TypeLong:   3,
	TypeFloat:  4,
	TypeDouble: 5,
}

// AttributeTypes lists every supported type in display order.
func AttributeTypes() []AttributeType {
	return []AttributeType{TypeBoolean, TypeShort, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeString}
}

// ParseAttributeType parses a type name, ignoring case.
func ParseAttributeType(s string) (AttributeType, error) {
	t := AttributeType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", newValidationError(KindMalformed, "attribute type", "unknown type %q", s)
	}

	return t, nil
}

// Valid reports whether t is one of the supported types.
func (t AttributeType) Valid() bool {
	switch t {
	case TypeBoolean, TypeShort, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeString:
		return true
	}

	return false
}

// IsNumeric reports whether t is a numeric type.
func (t AttributeType) IsNumeric() bool {
	_, ok := numericRank[t]
	return ok
}

// AssignableTo reports whether a value of type t can be assigned to target.
// Numeric types widen: SHORT -> INT -> LONG -> FLOAT -> DOUBLE.
func (t AttributeType) AssignableTo(target AttributeType) bool {
	if t == target {
		return true
	}
	from, ok := numericRank[t]
	if !ok {
		return false
	}
	to, ok := numericRank[target]

	return ok && from <= to
}

func (t AttributeType) String() string {
	return string(t)
}

// Attribute is a named, typed field of an EventType. Bindings hold on to the attribute id, so the
// name and type can be edited without losing the reference.
type Attribute struct {
	id   uuid.UUID
	name string
	typ  AttributeType
}

// NewAttribute creates an attribute with a fresh id.
func NewAttribute(name string, typ AttributeType) (*Attribute, error) {
	return NewAttributeWithID(uuid.New(), name, typ)
}

// NewAttributeWithID creates an attribute with a known id, used when restoring documents.
func NewAttributeWithID(id uuid.UUID, name string, typ AttributeType) (*Attribute, error) {
	err := CheckName(name, "attribute name")
	if err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, newValidationError(KindMalformed, name, "unknown attribute type %q", typ)
	}

	return &Attribute{id: id, name: name, typ: typ}, nil
}

func (a *Attribute) ID() uuid.UUID {
	return a.id
}

func (a *Attribute) Name() string {
	return a.name
}

func (a *Attribute) Type() AttributeType {
	return a.typ
}

// IsCompatibleWith reports whether this attribute's values can feed a slot of type target.
func (a *Attribute) IsCompatibleWith(target AttributeType) bool {
	return a.typ.AssignableTo(target)
}

func (a *Attribute) String() string {
	return a.name + " " + a.typ.String()
}
