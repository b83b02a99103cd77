package library

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/askiada/go-octopus/pkg/model"
)

const (
	ParamWindowLength = 1
	ParamLimit        = 1
	ParamDirection    = 2
)

// Threshold directions.
const (
	Above = "above"
	Below = "below"
)

// ErrNotNumeric is returned when an input value cannot be read as a number.
var ErrNotNumeric = errors.New("value is not numeric")

func numberInput(id int, name string, opts ...model.InputOption) (*model.Input, error) {
	return model.NewInput(id, name, model.TypeDouble, opts...)
}

func readNumber(inputs model.InputEvents, id int) (float64, bool, error) {
	v, ok := inputs.Value(id)
	if !ok {
		return 0, false, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false, errors.Wrapf(ErrNotNumeric, "%v", v)
	}

	return f, true, nil
}

func newSma() (*model.Processor, error) {
	in, err := numberInput(1, "value", model.InputDescription("Numbers to average."))
	if err != nil {
		return nil, err
	}
	window, err := model.NewParameter(ParamWindowLength, "Window length", model.ParamInt,
		model.ParameterDescription("Number of most recent values averaged."),
		model.ParameterRequired(),
		model.ParameterDefault(3),
		model.ParameterMin(1),
	)
	if err != nil {
		return nil, err
	}

	return model.NewProcessor(SmaKey, "Sma", "Simple moving average of its input.",
		[]*model.Input{in}, nil, "average", model.TypeDouble, smaBehavior{}, window)
}

type smaBehavior struct{}

func (smaBehavior) Function() string {
	return "sma"
}

func (smaBehavior) CompileProcessor(p *model.Processor) (model.CompiledProcessor, error) {
	size := p.Parameters().ByID(ParamWindowLength).IntValue()
	if size < 1 {
		return nil, errors.Errorf("window length of %s must be positive, got %d", p.Name(), size)
	}

	return &movingAverage{window: make([]float64, 0, size), size: size}, nil
}

// movingAverage keeps the last size values in a ring.
type movingAverage struct {
	window []float64
	next   int
	size   int
	sum    float64
}

func (ma *movingAverage) ProcessEvent(_ context.Context, _ model.RuntimeContext, inputs model.InputEvents) (interface{}, bool, error) {
	v, ok, err := readNumber(inputs, 1)
	if err != nil || !ok {
		return nil, false, err
	}
	if len(ma.window) < ma.size {
		ma.window = append(ma.window, v)
	} else {
		ma.sum -= ma.window[ma.next]
		ma.window[ma.next] = v
		ma.next = (ma.next + 1) % ma.size
	}
	ma.sum += v

	return ma.sum / float64(len(ma.window)), true, nil
}

func newBinary(key, name, description, output string, behavior model.ProcessorBehavior) (*model.Processor, error) {
	first, err := numberInput(1, "first")
	if err != nil {
		return nil, err
	}
	second, err := numberInput(2, "second")
	if err != nil {
		return nil, err
	}

	return model.NewProcessor(key, name, description,
		[]*model.Input{first, second},
		[]model.JoinSpec{{Name: "key", FirstInputID: 1, SecondInputID: 2}},
		output, model.TypeDouble, behavior)
}

func newAddition() (*model.Processor, error) {
	return newBinary(AdditionKey, "Addition", "Adds the latest values of both inputs.", "sum",
		binaryBehavior{function: "add", op: func(a, b float64) float64 { return a + b }})
}

func newSubtraction() (*model.Processor, error) {
	return newBinary(SubtractionKey, "Subtraction", "Subtracts the second input from the first.", "difference",
		binaryBehavior{function: "subtract", op: func(a, b float64) float64 { return a - b }})
}

type binaryBehavior struct {
	function string
	op       func(a, b float64) float64
}

func (b binaryBehavior) Function() string {
	return b.function
}

func (b binaryBehavior) CompileProcessor(*model.Processor) (model.CompiledProcessor, error) {
	return binary(b.op), nil
}

type binary func(a, b float64) float64

func (op binary) ProcessEvent(_ context.Context, _ model.RuntimeContext, inputs model.InputEvents) (interface{}, bool, error) {
	a, ok, err := readNumber(inputs, 1)
	if err != nil || !ok {
		return nil, false, err
	}
	b, ok, err := readNumber(inputs, 2)
	if err != nil || !ok {
		return nil, false, err
	}

	return op(a, b), true, nil
}

func newThreshold() (*model.Processor, error) {
	in, err := numberInput(1, "value")
	if err != nil {
		return nil, err
	}
	limit, err := model.NewParameter(ParamLimit, "Limit", model.ParamFloat,
		model.ParameterRequired(),
		model.ParameterDefault(0),
	)
	if err != nil {
		return nil, err
	}
	direction, err := model.NewParameter(ParamDirection, "Direction", model.ParamString,
		model.ParameterDescription("Pass values above or below the limit."),
		model.ParameterRequired(),
		model.ParameterConstraint(Above, Below),
		model.ParameterDefault(Above),
	)
	if err != nil {
		return nil, err
	}

	return model.NewProcessor(ThresholdKey, "Threshold", "Passes the values beyond a limit.",
		[]*model.Input{in}, nil, "value", model.TypeDouble, thresholdBehavior{}, limit, direction)
}

type thresholdBehavior struct{}

func (thresholdBehavior) Function() string {
	return "threshold"
}

func (thresholdBehavior) CompileProcessor(p *model.Processor) (model.CompiledProcessor, error) {
	params := p.Parameters()

	return &threshold{
		limit: params.ByID(ParamLimit).FloatValue(),
		above: params.ByID(ParamDirection).StringValue() != Below,
	}, nil
}

type threshold struct {
	limit float64
	above bool
}

func (t *threshold) ProcessEvent(_ context.Context, _ model.RuntimeContext, inputs model.InputEvents) (interface{}, bool, error) {
	v, ok, err := readNumber(inputs, 1)
	if err != nil || !ok {
		return nil, false, err
	}
	if t.above && v > t.limit || !t.above && v < t.limit {
		return v, true, nil
	}

	return nil, false, nil
}

var (
	_ model.ProcessorBehavior = smaBehavior{}
	_ model.ProcessorBehavior = binaryBehavior{}
	_ model.ProcessorBehavior = thresholdBehavior{}
)
