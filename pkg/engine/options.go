package engine

import (
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/askiada/go-octopus/pkg/engine/measure"
)

type Option func(e *Engine)

func WithLogger(logger hclog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStandardOut sets where compiled nodes write their diagnostic and console output.
func WithStandardOut(w io.Writer) Option {
	return func(e *Engine) {
		e.stdout = w
	}
}

// WithStandardError sets where runtime errors are reported.
func WithStandardError(w io.Writer) Option {
	return func(e *Engine) {
		e.stderr = w
	}
}

// WithBufferSize sets the capacity of every subscription channel.
func WithBufferSize(size int) Option {
	return func(e *Engine) {
		e.bufferSize = size
	}
}

func WithMeasure(msr measure.Measure) Option {
	return func(e *Engine) {
		e.measure = msr
	}
}
