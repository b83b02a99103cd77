package engine_test

import (
	"context"
	"sync"

	"github.com/askiada/go-octopus/pkg/model"
)

type sliceSource struct {
	events []model.Event
}

func (s sliceSource) Run(ctx context.Context, _ model.RuntimeContext, emit func(model.Event) error) error {
	for _, ev := range s.events {
		err := emit(ev)
		if err != nil {
			return err
		}
	}

	return nil
}

type endlessSource struct{}

func (endlessSource) Run(ctx context.Context, _ model.RuntimeContext, emit func(model.Event) error) error {
	for i := 0; ; i++ {
		err := emit(model.Event{"n": i})
		if err != nil {
			return err
		}
	}
}

type funcProcessor func(inputs model.InputEvents) (interface{}, bool, error)

func (f funcProcessor) ProcessEvent(_ context.Context, _ model.RuntimeContext, inputs model.InputEvents) (interface{}, bool, error) {
	return f(inputs)
}

type collector struct {
	mu       sync.Mutex
	received []model.InputEvents
}

func (c *collector) ProcessEvent(_ context.Context, _ model.RuntimeContext, inputs model.InputEvents) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, inputs)

	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.received)
}

// values returns the bound value of input id for every delivery.
func (c *collector) values(id int) []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, 0, len(c.received))
	for _, in := range c.received {
		v, _ := in.Value(id)
		out = append(out, v)
	}

	return out
}
