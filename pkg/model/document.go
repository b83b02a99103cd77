package model

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Document is the serialisable form of a ProcessingModel. Identities of nodes and attributes are
// kept so connections and join keys can be restored.
type Document struct {
	Name            string               `json:"name" yaml:"name"`
	ExternalSources []NodeDocument       `json:"externalSources,omitempty" yaml:"externalSources,omitempty"`
	Processors      []NodeDocument       `json:"processors,omitempty" yaml:"processors,omitempty"`
	ExternalSinks   []NodeDocument       `json:"externalSinks,omitempty" yaml:"externalSinks,omitempty"`
	Connections     []ConnectionDocument `json:"connections,omitempty" yaml:"connections,omitempty"`
}

type NodeDocument struct {
	ID          string              `json:"id" yaml:"id"`
	Template    string              `json:"template" yaml:"template"`
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  []ParameterDocument `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	// Schema is only set on external sources.
	Schema []AttributeDocument `json:"schema,omitempty" yaml:"schema,omitempty"`
	// Output and Joins are only set on processors.
	Output *AttributeDocument `json:"output,omitempty" yaml:"output,omitempty"`
	Joins  []JoinDocument     `json:"joins,omitempty" yaml:"joins,omitempty"`
}

type ParameterDocument struct {
	ID    int         `json:"id" yaml:"id"`
	Value interface{} `json:"value" yaml:"value"`
}

type AttributeDocument struct {
	ID   string        `json:"id" yaml:"id"`
	Name string        `json:"name" yaml:"name"`
	Type AttributeType `json:"type" yaml:"type"`
}

type JoinDocument struct {
	Name string `json:"name" yaml:"name"`
	// An empty attribute id means no key is chosen on that side.
	FirstInput          int           `json:"firstInput" yaml:"firstInput"`
	FirstAttribute      string        `json:"firstAttribute,omitempty" yaml:"firstAttribute,omitempty"`
	FirstAttributeName  string        `json:"firstAttributeName,omitempty" yaml:"firstAttributeName,omitempty"`
	FirstAttributeType  AttributeType `json:"firstAttributeType,omitempty" yaml:"firstAttributeType,omitempty"`
	SecondInput         int           `json:"secondInput" yaml:"secondInput"`
	SecondAttribute     string        `json:"secondAttribute,omitempty" yaml:"secondAttribute,omitempty"`
	SecondAttributeName string        `json:"secondAttributeName,omitempty" yaml:"secondAttributeName,omitempty"`
	SecondAttributeType AttributeType `json:"secondAttributeType,omitempty" yaml:"secondAttributeType,omitempty"`
}

// ConnectionDocument records the bound attribute by id, name and type. Name and type let a
// binding to an attribute since removed from the source schema be restored as it was.
type ConnectionDocument struct {
	Source        string        `json:"source" yaml:"source"`
	Attribute     string        `json:"attribute" yaml:"attribute"`
	AttributeName string        `json:"attributeName,omitempty" yaml:"attributeName,omitempty"`
	AttributeType AttributeType `json:"attributeType,omitempty" yaml:"attributeType,omitempty"`
	Target        string        `json:"target" yaml:"target"`
	Input         int           `json:"input" yaml:"input"`
}

// Catalog resolves template keys recorded in documents.
type Catalog interface {
	ExternalSourceTemplate(key string) (*ExternalSource, error)
	ProcessorTemplate(key string) (*Processor, error)
	ExternalSinkTemplate(key string) (*ExternalSink, error)
}

// Export returns the document of the model. The result only depends on the model content.
func (m *ProcessingModel) Export() *Document {
	doc := &Document{Name: m.name}
	for _, src := range m.sources {
		nd := exportNode(src)
		for _, attr := range src.output.eventType.attributes {
			nd.Schema = append(nd.Schema, exportAttribute(attr))
		}
		doc.ExternalSources = append(doc.ExternalSources, nd)
	}
	for _, p := range m.processors {
		nd := exportNode(p)
		out := exportAttribute(p.result.attr)
		nd.Output = &out
		for _, j := range p.joins {
			jd := JoinDocument{Name: j.name, FirstInput: j.first.id, SecondInput: j.second.id}
			if j.firstAttr != nil {
				jd.FirstAttribute = j.firstAttr.id.String()
				jd.FirstAttributeName, jd.FirstAttributeType = j.firstAttr.name, j.firstAttr.typ
			}
			if j.secondAttr != nil {
				jd.SecondAttribute = j.secondAttr.id.String()
				jd.SecondAttributeName, jd.SecondAttributeType = j.secondAttr.name, j.secondAttr.typ
			}
			nd.Joins = append(nd.Joins, jd)
		}
		doc.Processors = append(doc.Processors, nd)
	}
	for _, sink := range m.sinks {
		doc.ExternalSinks = append(doc.ExternalSinks, exportNode(sink))
	}
	for _, conn := range m.Connections() {
		cd := ConnectionDocument{
			Source: conn.Source.ID().String(),
			Target: conn.Input.owner.ID().String(),
			Input:  conn.Input.id,
		}
		if conn.Attribute != nil {
			cd.Attribute = conn.Attribute.id.String()
			cd.AttributeName, cd.AttributeType = conn.Attribute.name, conn.Attribute.typ
		}
		doc.Connections = append(doc.Connections, cd)
	}

	return doc
}

func exportNode(n Node) NodeDocument {
	nd := NodeDocument{
		ID:          n.ID().String(),
		Template:    n.Template(),
		Name:        n.Name(),
		Description: n.Description(),
	}
	for _, p := range n.Parameters().list {
		nd.Parameters = append(nd.Parameters, ParameterDocument{ID: p.id, Value: p.value})
	}

	return nd
}

func exportAttribute(attr *Attribute) AttributeDocument {
	return AttributeDocument{ID: attr.id.String(), Name: attr.name, Type: attr.typ}
}

// Import rebuilds a model from doc, instantiating every node from the catalog template it was
// created from. The restored model is not validated.
func Import(doc *Document, catalog Catalog) (*ProcessingModel, error) {
	m, err := NewProcessingModel(doc.Name)
	if err != nil {
		return nil, err
	}
	err = checkUniqueIDs(doc)
	if err != nil {
		return nil, err
	}

	for _, nd := range doc.ExternalSources {
		tmpl, err := catalog.ExternalSourceTemplate(nd.Template)
		if err != nil {
			return nil, errors.Wrapf(err, "external source %s", nd.Name)
		}
		id, err := parseID(nd.ID, nd.Name)
		if err != nil {
			return nil, err
		}
		src := tmpl.cloneWithID(id)
		err = restoreNode(&src.nodeInfo, nd)
		if err != nil {
			return nil, err
		}
		attrs := make([]*Attribute, 0, len(nd.Schema))
		for _, ad := range nd.Schema {
			attr, err := importAttribute(ad)
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, attr)
		}
		err = src.output.eventType.ReplaceAll(attrs)
		if err != nil {
			return nil, err
		}
		m.AddExternalSource(src)
	}

	for _, nd := range doc.Processors {
		tmpl, err := catalog.ProcessorTemplate(nd.Template)
		if err != nil {
			return nil, errors.Wrapf(err, "processor %s", nd.Name)
		}
		id, err := parseID(nd.ID, nd.Name)
		if err != nil {
			return nil, err
		}
		p := tmpl.cloneWithID(id)
		err = restoreNode(&p.nodeInfo, nd)
		if err != nil {
			return nil, err
		}
		if nd.Output != nil {
			attrID, err := parseID(nd.Output.ID, nd.Name)
			if err != nil {
				return nil, err
			}
			err = CheckName(nd.Output.Name, "output attribute name")
			if err != nil {
				return nil, err
			}
			p.result.attr.id = attrID
			p.result.attr.name = nd.Output.Name
		}
		m.AddProcessor(p)
	}

	for _, nd := range doc.ExternalSinks {
		tmpl, err := catalog.ExternalSinkTemplate(nd.Template)
		if err != nil {
			return nil, errors.Wrapf(err, "external sink %s", nd.Name)
		}
		id, err := parseID(nd.ID, nd.Name)
		if err != nil {
			return nil, err
		}
		sink := tmpl.cloneWithID(id)
		err = restoreNode(&sink.nodeInfo, nd)
		if err != nil {
			return nil, err
		}
		m.AddExternalSink(sink)
	}

	imp := &importer{m: m, detached: make(map[uuid.UUID]*Attribute)}
	for _, cd := range doc.Connections {
		err := imp.connection(cd)
		if err != nil {
			return nil, err
		}
	}

	for _, nd := range doc.Processors {
		err := imp.joins(nd)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// checkUniqueIDs rejects documents where two nodes share an id.
func checkUniqueIDs(doc *Document) error {
	seen := make(map[string]string)
	for _, nodes := range [][]NodeDocument{doc.ExternalSources, doc.Processors, doc.ExternalSinks} {
		for _, nd := range nodes {
			if other, ok := seen[nd.ID]; ok {
				return newValidationError(KindDuplicateName, nd.Name, "node id %s is already used by %s", nd.ID, other)
			}
			seen[nd.ID] = nd.Name
		}
	}

	return nil
}

func parseID(s, subject string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, newValidationError(KindMalformed, subject, "invalid id %q", s)
	}

	return id, nil
}

func importAttribute(ad AttributeDocument) (*Attribute, error) {
	id, err := parseID(ad.ID, ad.Name)
	if err != nil {
		return nil, err
	}

	return NewAttributeWithID(id, ad.Name, ad.Type)
}

// restoreNode copies the recorded name, description and parameter values onto a fresh instance.
// Values are coerced but not validated so an invalid saved model stays as it was.
func restoreNode(info *nodeInfo, nd NodeDocument) error {
	if nd.Name == "" {
		return newValidationError(KindRequired, nd.Template, "node name cannot be empty")
	}
	info.name = nd.Name
	info.description = nd.Description
	for _, pd := range nd.Parameters {
		p := info.params.ByID(pd.ID)
		if p == nil {
			return errors.Wrapf(ErrUnknownNode, "parameter %d of %s", pd.ID, nd.Name)
		}
		p.restore(pd.Value)
	}

	return nil
}

// importer restores bindings. Attributes removed from a schema after they were bound are rebuilt
// once per id, detached from any event type, so Validate reports them like the exported model.
type importer struct {
	m        *ProcessingModel
	detached map[uuid.UUID]*Attribute
}

type attributeRef struct {
	id   string
	name string
	typ  AttributeType
}

func (imp *importer) connection(cd ConnectionDocument) error {
	src, err := imp.m.sourceByID(cd.Source)
	if err != nil {
		return err
	}
	sinkID, err := parseID(cd.Target, "connection target")
	if err != nil {
		return err
	}
	n, ok := imp.m.NodeByID(sinkID)
	if !ok {
		return errors.Wrapf(ErrUnknownNode, "connection target %s", cd.Target)
	}
	sink, ok := n.(Sink)
	if !ok {
		return errors.Wrapf(ErrUnknownNode, "connection target %s has no inputs", n.Name())
	}
	in := sink.InputByID(cd.Input)
	if in == nil {
		return errors.Wrapf(ErrUnknownNode, "input %d of %s", cd.Input, n.Name())
	}
	attr, err := imp.attributeOf(src, attributeRef{id: cd.Attribute, name: cd.AttributeName, typ: cd.AttributeType})
	if err != nil {
		return err
	}
	in.bind(src, attr)

	return nil
}

func (imp *importer) joins(nd NodeDocument) error {
	if len(nd.Joins) == 0 {
		return nil
	}
	id, err := parseID(nd.ID, nd.Name)
	if err != nil {
		return err
	}
	n, _ := imp.m.NodeByID(id)
	p, ok := n.(*Processor)
	if !ok {
		return errors.Wrapf(ErrUnknownNode, "processor %s", nd.Name)
	}
	for _, jd := range nd.Joins {
		j := p.JoinByName(jd.Name)
		if j == nil || j.first.id != jd.FirstInput || j.second.id != jd.SecondInput {
			return errors.Wrapf(ErrUnknownNode, "join %s of %s", jd.Name, nd.Name)
		}
		j.firstAttr, err = imp.joinKeyOf(j.first,
			attributeRef{id: jd.FirstAttribute, name: jd.FirstAttributeName, typ: jd.FirstAttributeType})
		if err != nil {
			return err
		}
		j.secondAttr, err = imp.joinKeyOf(j.second,
			attributeRef{id: jd.SecondAttribute, name: jd.SecondAttributeName, typ: jd.SecondAttributeType})
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *ProcessingModel) sourceByID(s string) (Source, error) {
	id, err := parseID(s, "connection source")
	if err != nil {
		return nil, err
	}
	n, ok := m.NodeByID(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNode, "connection source %s", s)
	}
	src, ok := n.(Source)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNode, "connection source %s has no output", n.Name())
	}

	return src, nil
}

func (imp *importer) attributeOf(src Source, ref attributeRef) (*Attribute, error) {
	id, err := parseID(ref.id, src.Name())
	if err != nil {
		return nil, err
	}
	if attr := src.Output().EventType().AttributeByID(id); attr != nil {
		return attr, nil
	}
	if attr, ok := imp.detached[id]; ok {
		return attr, nil
	}
	if ref.name == "" {
		return nil, newValidationError(KindIncompatible, src.Name(), "attribute %s does not exist", ref.id)
	}
	attr, err := NewAttributeWithID(id, ref.name, ref.typ)
	if err != nil {
		return nil, err
	}
	imp.detached[id] = attr

	return attr, nil
}

func (imp *importer) joinKeyOf(in *Input, ref attributeRef) (*Attribute, error) {
	if ref.id == "" {
		return nil, nil
	}
	if in.source == nil {
		return nil, newValidationError(KindRequired, in.name, "join key recorded on an unbound input")
	}

	return imp.attributeOf(in.source, ref)
}

func (p *Parameter) restore(v interface{}) {
	if isEmpty(v) {
		p.value = nil
		return
	}
	coerced, err := p.coerce(v)
	if err != nil {
		p.value = v
		return
	}
	p.value = coerced
}
