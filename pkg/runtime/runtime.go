// Package runtime holds the lifecycle of a compiled model.
package runtime

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/askiada/go-octopus/pkg/engine"
	"github.com/askiada/go-octopus/pkg/engine/measure"
	"github.com/askiada/go-octopus/pkg/model"
)

type State int

const (
	Compiled State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Compiled:
		return "compiled"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}

	return "unknown"
}

// Engine is what a ProcessingRuntime drives. *engine.Engine implements it.
type Engine interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context) error
	Shutdown()
	Statements() []engine.Statement
	Measure() measure.Measure
}

// ProcessingRuntime moves from Compiled to Running to Stopped, never back.
// Start and Shutdown are meant to be called from a single control goroutine.
type ProcessingRuntime struct {
	mu      sync.Mutex
	state   State
	name    string
	engine  Engine
	aliases map[uuid.UUID]string
	logger  hclog.Logger
}

type Option func(r *ProcessingRuntime)

func WithLogger(logger hclog.Logger) Option {
	return func(r *ProcessingRuntime) {
		r.logger = logger
	}
}

// WithAliases records the statement name generated for every node id.
func WithAliases(aliases map[uuid.UUID]string) Option {
	return func(r *ProcessingRuntime) {
		r.aliases = aliases
	}
}

// New wraps a linked engine. The runtime starts in the Compiled state.
func New(name string, eng Engine, opts ...Option) *ProcessingRuntime {
	r := &ProcessingRuntime{
		name:    name,
		engine:  eng,
		aliases: map[uuid.UUID]string{},
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *ProcessingRuntime) Name() string {
	return r.name
}

func (r *ProcessingRuntime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// Start activates every source and begins continuous evaluation. It does not block. Starting a
// runtime that is not Compiled is a defect.
func (r *ProcessingRuntime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Compiled {
		return model.Internalf("cannot start runtime %s: it is %s", r.name, r.state)
	}
	err := r.engine.Start(ctx)
	if err != nil {
		return model.NewInternalError(err)
	}
	r.state = Running
	r.logger.Info("runtime started", "model", r.name)

	return nil
}

// Wait blocks until every source is exhausted and all sinks received their last event, or ctx is
// done. It does not change the state; call Shutdown afterwards.
func (r *ProcessingRuntime) Wait(ctx context.Context) error {
	r.mu.Lock()
	state := r.state
	r.mu.Unlock()
	if state == Compiled {
		return model.Internalf("cannot wait on runtime %s: it was never started", r.name)
	}
	if state == Stopped {
		return nil
	}

	return r.engine.Wait(ctx)
}

// Shutdown stops the runtime. When it returns no sink receives events anymore. It is a no-op on a
// stopped runtime.
func (r *ProcessingRuntime) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case Stopped:
		return
	case Running:
		r.engine.Shutdown()
		r.logger.Info("runtime stopped", "model", r.name)
	case Compiled:
	}
	r.state = Stopped
}

func (r *ProcessingRuntime) Statements() []engine.Statement {
	return r.engine.Statements()
}

// Text renders every statement, one per line, in execution order.
func (r *ProcessingRuntime) Text() string {
	stmts := r.engine.Statements()
	lines := make([]string, len(stmts))
	for i, st := range stmts {
		lines[i] = st.Text() + ";"
	}

	return strings.Join(lines, "\n")
}

func (r *ProcessingRuntime) Measure() measure.Measure {
	return r.engine.Measure()
}

// Alias returns the statement name generated for the node with the given id.
func (r *ProcessingRuntime) Alias(id uuid.UUID) (string, bool) {
	alias, ok := r.aliases[id]
	return alias, ok
}
