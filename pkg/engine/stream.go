package engine

import (
	"context"
	"sync"
	"time"

	"github.com/askiada/go-octopus/pkg/model"
)

type envelope struct {
	event model.Event
	sent  time.Time
}

// subscription is the private channel of one statement input on a stream.
type subscription struct {
	ref InputRef
	c   chan envelope
}

// stream fans every published event out to all of its subscriptions.
type stream struct {
	name          string
	subscriptions []*subscription
}

func (s *stream) subscribe(ref InputRef, bufferSize int) *subscription {
	sub := &subscription{ref: ref, c: make(chan envelope, bufferSize)}
	s.subscriptions = append(s.subscriptions, sub)

	return sub
}

// publish hands a copy of ev to every subscriber. It only fails when ctx is done, even when the
// stream has no subscribers.
func (s *stream) publish(ctx context.Context, ev model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, sub := range s.subscriptions {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub.c <- envelope{event: copyEvent(ev), sent: time.Now()}:
		}
	}

	return nil
}

func (s *stream) close() {
	for _, sub := range s.subscriptions {
		close(sub.c)
	}
}

type delivery struct {
	index int
	envelope
}

// mergeSubscriptions reads every subscription of a statement into one channel, tagging each event
// with the position of its input. The output is closed when all inputs are closed or ctx is done.
func mergeSubscriptions(ctx context.Context, subs []*subscription) <-chan delivery {
	out := make(chan delivery)
	wg := sync.WaitGroup{}
	wg.Add(len(subs))

	for i, sub := range subs {
		go func(index int, sub *subscription) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case env, ok := <-sub.c:
					if !ok {
						return
					}
					select {
					case <-ctx.Done():
						return
					case out <- delivery{index: index, envelope: env}:
					}
				}
			}
		}(i, sub)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
