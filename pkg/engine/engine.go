package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-octopus/pkg/engine/measure"
	"github.com/askiada/go-octopus/pkg/model"
)

// Engine runs a list of statements as a continuous query. Every statement runs in its own
// goroutine; streams connect them through buffered subscriptions.
type Engine struct {
	statements    []Statement
	streams       map[string]*stream
	subscriptions map[string][]*subscription

	logger     hclog.Logger
	stdout     io.Writer
	stderr     io.Writer
	bufferSize int
	measure    measure.Measure

	mu        sync.Mutex
	started   bool
	cancel    context.CancelFunc
	done      chan struct{}
	err       error
	errcList  *errorChans
	startTime time.Time
}

// New wires statements together. A statement may only read streams declared by statements
// before it.
func New(statements []Statement, opts ...Option) (*Engine, error) {
	e := &Engine{
		statements:    statements,
		streams:       make(map[string]*stream),
		subscriptions: make(map[string][]*subscription),
		logger:        hclog.NewNullLogger(),
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		bufferSize:    1,
		errcList:      &errorChans{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.measure == nil {
		e.measure = measure.NewDefaultMeasure()
	}
	if e.bufferSize < 0 {
		e.bufferSize = 0
	}
	if e.stdout == nil {
		e.stdout = io.Discard
	}
	if e.stderr == nil {
		e.stderr = io.Discard
	}
	e.stdout = &lockedWriter{w: e.stdout}
	e.stderr = &lockedWriter{w: e.stderr}

	for _, st := range statements {
		err := e.declare(st)
		if err != nil {
			return nil, errors.Wrapf(err, "statement %s", st.Name())
		}
	}

	return e, nil
}

func (e *Engine) declare(st Statement) error {
	if _, ok := e.subscriptions[st.Name()]; ok {
		return ErrDuplicateStream
	}
	if _, ok := e.streams[st.Name()]; ok {
		return ErrDuplicateStream
	}

	switch s := st.(type) {
	case *IngestStatement:
		if s.Source == nil {
			return ErrMissingBehavior
		}
	case *DeriveStatement:
		if s.Processor == nil {
			return ErrMissingBehavior
		}
	case *SubscribeStatement:
		if s.Listener == nil {
			return ErrMissingBehavior
		}
	default:
		return errors.Wrapf(ErrUnknownStatement, "%T", st)
	}

	subs := make([]*subscription, 0, len(st.Inputs()))
	for _, ref := range st.Inputs() {
		upstream, ok := e.streams[ref.Stream]
		if !ok {
			return errors.Wrapf(ErrUnknownStream, "%s", ref.Stream)
		}
		subs = append(subs, upstream.subscribe(ref, e.bufferSize))
	}
	e.subscriptions[st.Name()] = subs
	if st.Kind() != SubscribeKind {
		e.streams[st.Name()] = &stream{name: st.Name()}
	}
	e.measure.AddMetric(st.Name())

	return nil
}

func (e *Engine) Statements() []Statement {
	return append([]Statement(nil), e.statements...)
}

func (e *Engine) Measure() measure.Measure {
	return e.measure
}

// Start launches every statement and returns immediately. Runtime errors are written to the
// standard error writer and the logger; they do not stop the engine.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true
	e.startTime = time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	grp := errgroup.Group{}
	for _, st := range e.statements {
		st := st
		errC := make(chan error, 1)
		e.errcList.add(newErrorChan(st.Name(), errC))
		grp.Go(func() error {
			defer close(errC)
			return e.run(runCtx, st, errC)
		})
	}

	reported := make(chan struct{})
	go func() {
		defer close(reported)
		e.report(mergeErrors(e.errcList.all()...))
	}()

	go func() {
		err := grp.Wait()
		<-reported
		e.err = err
		e.logger.Debug("engine stopped", "elapsed", time.Since(e.startTime))
		close(e.done)
	}()
	e.logger.Debug("engine started", "statements", len(e.statements))

	return nil
}

// Wait blocks until every source is exhausted and all statements drained, or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return ErrNotStarted
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return e.err
	}
}

// Shutdown cancels every statement and waits for them to return. Once it returns no sink receives
// events anymore. Calling it more than once, or before Start, is a no-op.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (e *Engine) report(errs <-chan error) {
	for err := range errs {
		fmt.Fprintf(e.stderr, "%v\n", err)
		e.logger.Error("statement error", "error", err)
	}
}

func (e *Engine) run(ctx context.Context, st Statement, errC chan<- error) error {
	defer func() {
		e.measure.Metric(st.Name()).SetTotalDuration(time.Since(e.startTime))
	}()
	switch s := st.(type) {
	case *IngestStatement:
		return e.runIngest(ctx, s, errC)
	case *DeriveStatement:
		return e.runDerive(ctx, s, errC)
	case *SubscribeStatement:
		return e.runSubscribe(ctx, s, errC)
	}

	return errors.Wrapf(ErrUnknownStatement, "%T", st)
}

func (e *Engine) runIngest(ctx context.Context, st *IngestStatement, errC chan<- error) error {
	out := e.streams[st.Stream]
	defer out.close()
	mt := e.measure.Metric(st.Stream)

	emit := func(ev model.Event) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		coerced, err := coerceEvent(ev, st.Fields)
		if err != nil {
			mt.AddDropped()
			errC <- err

			return nil
		}
		err = out.publish(ctx, coerced)
		if err != nil {
			return err
		}
		mt.AddDuration(time.Since(start))

		return nil
	}

	err := st.Source.Run(ctx, e, emit)
	if err != nil && ctx.Err() == nil {
		errC <- errors.Wrap(err, "source stopped")
	}

	return nil
}

func (e *Engine) runDerive(ctx context.Context, st *DeriveStatement, errC chan<- error) error {
	out := e.streams[st.Stream]
	defer out.close()
	byAlias := make(map[string]int, len(st.Refs))
	for _, ref := range st.Refs {
		byAlias[ref.Alias] = ref.ID
	}

	return e.consume(ctx, st.Stream, st.Refs, errC, func(inputs model.InputEvents) error {
		if len(inputs.Events) < len(st.Refs) {
			return nil
		}
		for _, j := range st.Joins {
			left := inputs.Events[byAlias[j.LeftAlias]][j.LeftField]
			right := inputs.Events[byAlias[j.RightAlias]][j.RightField]
			if !sameKey(left, right) {
				return nil
			}
		}
		v, ok, err := st.Processor.ProcessEvent(ctx, e, inputs)
		if err != nil || !ok {
			return err
		}
		cv, err := coerceValue(v, st.Output.Type)
		if err != nil {
			return errors.Wrapf(err, "field %s", st.Output.Name)
		}

		return out.publish(ctx, model.Event{st.Output.Name: cv})
	})
}

func (e *Engine) runSubscribe(ctx context.Context, st *SubscribeStatement, errC chan<- error) error {
	return e.consume(ctx, st.Sink, st.Refs, errC, func(inputs model.InputEvents) error {
		return st.Listener.ProcessEvent(ctx, e, inputs)
	})
}

// consume keeps the latest event of every input and calls fn each time one of them changes.
func (e *Engine) consume(
	ctx context.Context,
	name string,
	refs []InputRef,
	errC chan<- error,
	fn func(inputs model.InputEvents) error,
) error {
	mt := e.measure.Metric(name)
	latest := make(map[int]model.Event, len(refs))
	fields := make(map[int]string, len(refs))
	for _, ref := range refs {
		fields[ref.ID] = ref.Field
	}

	for d := range mergeSubscriptions(ctx, e.subscriptions[name]) {
		if ctx.Err() != nil {
			break
		}
		ref := refs[d.index]
		mt.AddTransportDuration(ref.Stream, time.Since(d.sent))
		latest[ref.ID] = d.event

		snapshot := model.InputEvents{Events: make(map[int]model.Event, len(latest)), Fields: fields}
		for id, ev := range latest {
			snapshot.Events[id] = ev
		}
		start := time.Now()
		err := fn(snapshot)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			mt.AddDropped()
			errC <- err

			continue
		}
		mt.AddDuration(time.Since(start))
	}

	return nil
}

func (e *Engine) StandardOut() io.Writer {
	return e.stdout
}

func (e *Engine) StandardError() io.Writer {
	return e.stderr
}

func (e *Engine) Logger() hclog.Logger {
	return e.logger
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	return lw.w.Write(p)
}

var _ model.RuntimeContext = (*Engine)(nil)
