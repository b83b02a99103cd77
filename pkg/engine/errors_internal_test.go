package engine

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errSource = errors.New("source failed")
	errSink   = errors.New("sink failed")
)

func TestErrorChans(t *testing.T) {
	t.Parallel()

	ecs := errorChans{}
	ec1 := newErrorChan("source_0", nil)
	ec2 := newErrorChan("sink_0", nil)
	done := make(chan struct{}, 2)

	go func() {
		ecs.add(ec1)
		done <- struct{}{}
	}()
	go func() {
		ecs.add(ec2)
		done <- struct{}{}
	}()

	<-done
	<-done
	assert.ElementsMatch(t, []*errorChan{ec1, ec2}, ecs.all())
}

func TestMergeErrorsAllNil(t *testing.T) {
	t.Parallel()

	out := mergeErrors(newErrorChan("source_0", nil), newErrorChan("sink_0", nil))
	err, open := <-out
	assert.False(t, open)
	assert.NoError(t, err)
}

func TestMergeErrorsNamesStatements(t *testing.T) {
	t.Parallel()

	c1 := make(chan error)
	c2 := make(chan error)
	go func() {
		defer close(c1)
		defer close(c2)
		c1 <- errSource
		c2 <- errSink
	}()

	var got []error
	for err := range mergeErrors(newErrorChan("source_0", c1), newErrorChan("sink_0", c2)) {
		got = append(got, err)
	}
	require.Len(t, got, 2)
	sort.Slice(got, func(i, j int) bool { return got[i].Error() < got[j].Error() })

	assert.ErrorIs(t, got[0], errSink)
	assert.Equal(t, "sink_0: sink failed", got[0].Error())
	assert.ErrorIs(t, got[1], errSource)
	assert.Equal(t, "source_0: source failed", got[1].Error())
}
