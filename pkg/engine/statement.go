package engine

import (
	"fmt"
	"strings"

	"github.com/askiada/go-octopus/pkg/model"
)

type StatementKind string

const (
	IngestKind    StatementKind = "ingest"
	DeriveKind    StatementKind = "derive"
	SubscribeKind StatementKind = "subscribe"
)

// Statement is one fragment of a continuous query. Its Text is stable: the same statement always
// renders to the same bytes.
type Statement interface {
	Kind() StatementKind
	// Name is the alias of the stream or subscription the statement declares.
	Name() string
	// Inputs lists the streams read by the statement, empty for ingestion.
	Inputs() []InputRef
	Text() string
}

// Field is a named, typed column of a stream.
type Field struct {
	Name string
	Type model.AttributeType
}

// InputRef reads Field of Stream under Alias. ID and Name identify the node input it feeds.
type InputRef struct {
	ID     int
	Name   string
	Alias  string
	Stream string
	Field  string
}

func (r InputRef) column() string {
	return r.Alias + "." + r.Field
}

// JoinPredicate requires LeftAlias.LeftField = RightAlias.RightField on the latest events.
type JoinPredicate struct {
	LeftAlias  string
	LeftField  string
	RightAlias string
	RightField string
}

func (j JoinPredicate) text() string {
	return fmt.Sprintf("%s.%s = %s.%s", j.LeftAlias, j.LeftField, j.RightAlias, j.RightField)
}

// IngestStatement declares a stream fed by an external source.
type IngestStatement struct {
	Stream string
	Fields []Field
	Source model.CompiledExternalSource
}

func (s *IngestStatement) Kind() StatementKind {
	return IngestKind
}

func (s *IngestStatement) Name() string {
	return s.Stream
}

func (s *IngestStatement) Inputs() []InputRef {
	return nil
}

func (s *IngestStatement) Text() string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name + " " + f.Type.String()
	}

	return fmt.Sprintf("CREATE STREAM %s (%s)", s.Stream, strings.Join(cols, ", "))
}

// DeriveStatement declares a stream computed by a processor from its inputs.
type DeriveStatement struct {
	Stream    string
	Output    Field
	Function  string
	Refs      []InputRef
	Joins     []JoinPredicate
	Processor model.CompiledProcessor
}

func (s *DeriveStatement) Kind() StatementKind {
	return DeriveKind
}

func (s *DeriveStatement) Name() string {
	return s.Stream
}

func (s *DeriveStatement) Inputs() []InputRef {
	return s.Refs
}

func (s *DeriveStatement) Text() string {
	args := make([]string, len(s.Refs))
	for i, ref := range s.Refs {
		args[i] = ref.column()
	}

	return fmt.Sprintf("INSERT INTO %s SELECT %s(%s) AS %s%s",
		s.Stream, s.Function, strings.Join(args, ", "), s.Output.Name, fromClause(s.Refs, s.Joins))
}

// SubscribeStatement delivers the latest events of its inputs to an external sink.
type SubscribeStatement struct {
	Sink     string
	Refs     []InputRef
	Listener model.CompiledExternalSink
}

func (s *SubscribeStatement) Kind() StatementKind {
	return SubscribeKind
}

func (s *SubscribeStatement) Name() string {
	return s.Sink
}

func (s *SubscribeStatement) Inputs() []InputRef {
	return s.Refs
}

func (s *SubscribeStatement) Text() string {
	cols := make([]string, len(s.Refs))
	for i, ref := range s.Refs {
		cols[i] = ref.column() + " AS " + ref.Name
	}

	return fmt.Sprintf("SUBSCRIBE %s TO SELECT %s%s", s.Sink, strings.Join(cols, ", "), fromClause(s.Refs, nil))
}

func fromClause(refs []InputRef, joins []JoinPredicate) string {
	if len(refs) == 0 {
		return ""
	}
	from := make([]string, len(refs))
	for i, ref := range refs {
		from[i] = ref.Stream + " AS " + ref.Alias
	}
	out := " FROM " + strings.Join(from, ", ")
	if len(joins) > 0 {
		preds := make([]string, len(joins))
		for i, j := range joins {
			preds[i] = j.text()
		}
		out += " WHERE " + strings.Join(preds, " AND ")
	}

	return out
}

var (
	_ Statement = (*IngestStatement)(nil)
	_ Statement = (*DeriveStatement)(nil)
	_ Statement = (*SubscribeStatement)(nil)
)
