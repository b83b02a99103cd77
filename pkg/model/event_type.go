package model

import (
	"github.com/google/uuid"
)

// EventType is an ordered schema of attributes with unique names.
type EventType struct {
	attributes []*Attribute
}

// NewEventType builds an event type from attributes, failing on the first duplicate name.
func NewEventType(attributes ...*Attribute) (*EventType, error) {
	et := &EventType{}
	for _, attr := range attributes {
		err := et.AddAttribute(attr)
		if err != nil {
			return nil, err
		}
	}

	return et, nil
}

// Attributes returns a copy of the attribute list in order.
func (et *EventType) Attributes() []*Attribute {
	out := make([]*Attribute, len(et.attributes))
	copy(out, et.attributes)

	return out
}

func (et *EventType) Len() int {
	return len(et.attributes)
}

// AddAttribute appends attr. Names are compared case-sensitively.
func (et *EventType) AddAttribute(attr *Attribute) error {
	if attr == nil {
		return Internalf("nil attribute")
	}
	if et.AttributeByName(attr.name) != nil {
		return newValidationError(KindDuplicateName, attr.name, "attribute already exists in event type")
	}
	if et.AttributeByID(attr.id) != nil {
		return Internalf("attribute %s added twice", attr.id)
	}
	et.attributes = append(et.attributes, attr)

	return nil
}

// RemoveAttributeAt removes the attribute at index i. Bindings to it elsewhere in the graph are
// left dangling and reported by ProcessingModel.Validate.
func (et *EventType) RemoveAttributeAt(i int) error {
	if i < 0 || i >= len(et.attributes) {
		return Internalf("attribute index %d out of range [0,%d)", i, len(et.attributes))
	}
	et.attributes = append(et.attributes[:i], et.attributes[i+1:]...)

	return nil
}

// RemoveAttribute removes the attribute with the given id, if present.
func (et *EventType) RemoveAttribute(id uuid.UUID) bool {
	for i, attr := range et.attributes {
		if attr.id == id {
			et.attributes = append(et.attributes[:i], et.attributes[i+1:]...)
			return true
		}
	}

	return false
}

// ReplaceAll swaps the whole schema. Nothing changes when the new list has duplicate names.
func (et *EventType) ReplaceAll(attributes []*Attribute) error {
	next, err := NewEventType(attributes...)
	if err != nil {
		return err
	}
	et.attributes = next.attributes

	return nil
}

// RenameAttribute renames the attribute with the given id, keeping its identity.
func (et *EventType) RenameAttribute(id uuid.UUID, name string) error {
	attr := et.AttributeByID(id)
	if attr == nil {
		return Internalf("attribute %s not found", id)
	}
	err := CheckName(name, "attribute name")
	if err != nil {
		return err
	}
	if other := et.AttributeByName(name); other != nil && other != attr {
		return newValidationError(KindDuplicateName, name, "attribute already exists in event type")
	}
	attr.name = name

	return nil
}

// RetypeAttribute changes the type of the attribute with the given id, keeping its identity.
// Inputs bound to it are re-checked by ProcessingModel.Validate.
func (et *EventType) RetypeAttribute(id uuid.UUID, typ AttributeType) error {
	attr := et.AttributeByID(id)
	if attr == nil {
		return Internalf("attribute %s not found", id)
	}
	if !typ.Valid() {
		return newValidationError(KindMalformed, attr.name, "unknown attribute type %q", typ)
	}
	attr.typ = typ

	return nil
}

func (et *EventType) AttributeByName(name string) *Attribute {
	for _, attr := range et.attributes {
		if attr.name == name {
			return attr
		}
	}

	return nil
}

func (et *EventType) AttributeByID(id uuid.UUID) *Attribute {
	for _, attr := range et.attributes {
		if attr.id == id {
			return attr
		}
	}

	return nil
}

// Contains reports whether attr, by identity, belongs to this event type.
func (et *EventType) Contains(attr *Attribute) bool {
	return attr != nil && et.AttributeByID(attr.id) == attr
}

// CompatibleAttributes returns the attributes that can feed a slot of type target, in order.
func (et *EventType) CompatibleAttributes(target AttributeType) []*Attribute {
	var out []*Attribute
	for _, attr := range et.attributes {
		if attr.IsCompatibleWith(target) {
			out = append(out, attr)
		}
	}

	return out
}

// Copy duplicates the schema with fresh attribute ids.
func (et *EventType) Copy() *EventType {
	out := &EventType{attributes: make([]*Attribute, len(et.attributes))}
	for i, attr := range et.attributes {
		out.attributes[i] = &Attribute{id: uuid.New(), name: attr.name, typ: attr.typ}
	}

	return out
}
