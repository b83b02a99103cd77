package engine

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrAlreadyStarted   = errors.New("engine already started")
	ErrNotStarted       = errors.New("engine not started")
	ErrUnknownStream    = errors.New("unknown stream")
	ErrDuplicateStream  = errors.New("stream declared twice")
	ErrMissingBehavior  = errors.New("statement has no runtime behaviour")
	ErrMissingField     = errors.New("event is missing a field")
	ErrUnsupportedType  = errors.New("unsupported field type")
	ErrUnknownStatement = errors.New("unknown statement kind")
)

type errorChans struct {
	mu   sync.Mutex
	list []*errorChan
}

func (ec *errorChans) add(errChan *errorChan) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.list = append(ec.list, errChan)
}

func (ec *errorChans) all() []*errorChan {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	return append([]*errorChan(nil), ec.list...)
}

// errorChan carries the runtime errors of one statement.
type errorChan struct {
	c    <-chan error
	name string
}

func newErrorChan(name string, c <-chan error) *errorChan {
	return &errorChan{
		c:    c,
		name: name,
	}
}

// mergeErrors fans in every statement error channel. Each error is wrapped with the name of the
// statement that raised it. The returned channel is closed once all inputs are closed.
func mergeErrors(cs ...*errorChan) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))

	output := func(c *errorChan) {
		defer wg.Done()
		if c.c == nil {
			return
		}
		for err := range c.c {
			out <- errors.Wrap(err, c.name)
		}
	}
	wg.Add(len(cs))
	for _, c := range cs {
		go output(c)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
