package library

import (
	"context"
	"math/rand"

	"github.com/spf13/cast"

	"github.com/askiada/go-octopus/pkg/model"
)

// Parameter ids shared by the sources.
const (
	ParamNumberOfEvents = 1
	ParamSeed           = 2
	ParamStart          = 2
	ParamStep           = 3
)

func defaultSchema() (*model.EventType, error) {
	value, err := model.NewAttribute("value", model.TypeDouble)
	if err != nil {
		return nil, err
	}

	return model.NewEventType(value)
}

func numberOfEvents() (*model.Parameter, error) {
	return model.NewParameter(ParamNumberOfEvents, "Number of events", model.ParamInt,
		model.ParameterDescription("How many events the source emits before stopping."),
		model.ParameterRequired(),
		model.ParameterDefault(100),
		model.ParameterMin(0),
	)
}

func newTestSource() (*model.ExternalSource, error) {
	schema, err := defaultSchema()
	if err != nil {
		return nil, err
	}
	count, err := numberOfEvents()
	if err != nil {
		return nil, err
	}
	seed, err := model.NewParameter(ParamSeed, "Seed", model.ParamInt,
		model.ParameterDescription("Seed of the pseudo random generator."),
		model.ParameterDefault(1),
	)
	if err != nil {
		return nil, err
	}

	return model.NewExternalSource(TestSourceKey, "Test source",
		"Emits pseudo random values for every attribute of its schema.", schema, testSourceBehavior{}, count, seed)
}

type testSourceBehavior struct{}

func (testSourceBehavior) CompileSource(src *model.ExternalSource) (model.CompiledExternalSource, error) {
	params := src.Parameters()

	return &randomEvents{
		count:  params.ByID(ParamNumberOfEvents).IntValue(),
		seed:   int64(params.ByID(ParamSeed).IntValue()),
		schema: src.Output().EventType().Attributes(),
	}, nil
}

type randomEvents struct {
	count  int
	seed   int64
	schema []*model.Attribute
}

func (r *randomEvents) Run(ctx context.Context, rc model.RuntimeContext, emit func(model.Event) error) error {
	//nolint:gosec // reproducible test data
	rnd := rand.New(rand.NewSource(r.seed))
	for i := 0; i < r.count; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ev := make(model.Event, len(r.schema))
		for _, attr := range r.schema {
			ev[attr.Name()] = randomValue(rnd, attr.Type())
		}
		err := emit(ev)
		if err != nil {
			return err
		}
	}
	rc.Logger().Debug("test source exhausted", "events", r.count)

	return nil
}

func randomValue(rnd *rand.Rand, typ model.AttributeType) interface{} {
	switch typ {
	case model.TypeBoolean:
		return rnd.Intn(2) == 1
	case model.TypeShort:
		return int16(rnd.Intn(1 << 15))
	case model.TypeInt:
		return rnd.Int31()
	case model.TypeLong:
		return rnd.Int63()
	case model.TypeFloat:
		return rnd.Float32() * 100
	case model.TypeDouble:
		return rnd.Float64() * 100
	}

	return cast.ToString(rnd.Int())
}

func newSequenceSource() (*model.ExternalSource, error) {
	schema, err := defaultSchema()
	if err != nil {
		return nil, err
	}
	count, err := numberOfEvents()
	if err != nil {
		return nil, err
	}
	start, err := model.NewParameter(ParamStart, "Start", model.ParamFloat, model.ParameterDefault(0))
	if err != nil {
		return nil, err
	}
	step, err := model.NewParameter(ParamStep, "Step", model.ParamFloat, model.ParameterDefault(1))
	if err != nil {
		return nil, err
	}

	return model.NewExternalSource(SequenceSourceKey, "Sequence source",
		"Emits start, start+step, start+2*step and so on for every attribute.", schema, sequenceBehavior{},
		count, start, step)
}

type sequenceBehavior struct{}

func (sequenceBehavior) CompileSource(src *model.ExternalSource) (model.CompiledExternalSource, error) {
	params := src.Parameters()

	return &sequence{
		count:  params.ByID(ParamNumberOfEvents).IntValue(),
		start:  params.ByID(ParamStart).FloatValue(),
		step:   params.ByID(ParamStep).FloatValue(),
		schema: src.Output().EventType().Attributes(),
	}, nil
}

type sequence struct {
	count       int
	start, step float64
	schema      []*model.Attribute
}

func (s *sequence) Run(ctx context.Context, _ model.RuntimeContext, emit func(model.Event) error) error {
	for i := 0; i < s.count; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		v := s.start + float64(i)*s.step
		ev := make(model.Event, len(s.schema))
		for _, attr := range s.schema {
			switch attr.Type() {
			case model.TypeBoolean:
				ev[attr.Name()] = v != 0
			case model.TypeString:
				ev[attr.Name()] = cast.ToString(v)
			default:
				ev[attr.Name()] = v
			}
		}
		err := emit(ev)
		if err != nil {
			return err
		}
	}

	return nil
}

var (
	_ model.SourceBehavior = testSourceBehavior{}
	_ model.SourceBehavior = sequenceBehavior{}
)
