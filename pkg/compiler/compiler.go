// Package compiler turns a validated ProcessingModel into a linked ProcessingRuntime.
//
// Compilation goes through four stages. The model is validated, its nodes are ordered
// topologically with the node id breaking ties, one statement is emitted per node in that order,
// and the statements are linked into an engine. Compiling an unchanged model always yields the
// same statements.
package compiler

import (
	"fmt"
	"io"
	"os"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/askiada/go-octopus/pkg/engine"
	"github.com/askiada/go-octopus/pkg/engine/measure"
	"github.com/askiada/go-octopus/pkg/model"
	"github.com/askiada/go-octopus/pkg/runtime"
)

type Compiler struct {
	logger     hclog.Logger
	stdout     io.Writer
	stderr     io.Writer
	bufferSize int
}

type Option func(c *Compiler)

func WithLogger(logger hclog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithBufferSize sets the capacity of the channels between statements of compiled runtimes.
func WithBufferSize(size int) Option {
	return func(c *Compiler) {
		c.bufferSize = size
	}
}

func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:     hclog.NewNullLogger(),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		bufferSize: 1,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetStandardOut sets the writer handed to compiled nodes for their output. It applies to
// runtimes compiled afterwards.
func (c *Compiler) SetStandardOut(w io.Writer) {
	c.stdout = w
}

// SetStandardError sets the writer runtime errors are reported to. It applies to runtimes
// compiled afterwards.
func (c *Compiler) SetStandardError(w io.Writer) {
	c.stderr = w
}

// plan is the result of the ordering stage.
type plan struct {
	order   []model.Node
	aliases map[uuid.UUID]string
}

// Fragments validates m and emits its statements without linking them.
func (c *Compiler) Fragments(m *model.ProcessingModel) ([]engine.Statement, error) {
	p, err := c.prepare(m)
	if err != nil {
		return nil, err
	}

	return c.emit(p)
}

// Compile validates m and returns a runtime ready to be started. A *model.ValidationError is
// returned for anything the user can fix; any other failure is a *model.InternalError. No
// runtime is returned on failure.
func (c *Compiler) Compile(m *model.ProcessingModel) (*runtime.ProcessingRuntime, error) {
	p, err := c.prepare(m)
	if err != nil {
		return nil, err
	}
	statements, err := c.emit(p)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(statements,
		engine.WithLogger(c.logger.Named("engine")),
		engine.WithStandardOut(c.stdout),
		engine.WithStandardError(c.stderr),
		engine.WithBufferSize(c.bufferSize),
		engine.WithMeasure(measure.NewDefaultMeasure()),
	)
	if err != nil {
		return nil, model.NewInternalError(errors.Wrap(err, "unable to link statements"))
	}
	c.logger.Debug("model compiled", "model", m.Name(), "statements", len(statements))

	return runtime.New(m.Name(), eng,
		runtime.WithLogger(c.logger.Named("runtime")),
		runtime.WithAliases(p.aliases),
	), nil
}

func (c *Compiler) prepare(m *model.ProcessingModel) (*plan, error) {
	err := m.Validate()
	if err != nil {
		return nil, err
	}

	return order(m)
}

// order sorts the nodes topologically. Independent nodes are ordered by id.
func order(m *model.ProcessingModel) (*plan, error) {
	g, err := m.Graph()
	if err != nil {
		return nil, err
	}
	hashes, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, model.NewInternalError(errors.Wrap(err, "unable to order nodes"))
	}

	p := &plan{aliases: make(map[uuid.UUID]string, len(hashes))}
	counters := map[model.NodeKind]int{}
	for _, hash := range hashes {
		n, err := g.Vertex(hash)
		if err != nil {
			return nil, model.NewInternalError(errors.Wrapf(err, "unable to get node %s", hash))
		}
		p.order = append(p.order, n)
		p.aliases[n.ID()] = fmt.Sprintf("%s_%d", aliasPrefix(n.Kind()), counters[n.Kind()])
		counters[n.Kind()]++
	}

	return p, nil
}

func aliasPrefix(kind model.NodeKind) string {
	switch kind {
	case model.NodeExternalSource:
		return "source"
	case model.NodeProcessor:
		return "processor"
	case model.NodeExternalSink:
		return "sink"
	}

	return "node"
}
