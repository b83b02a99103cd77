package engine

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/askiada/go-octopus/pkg/model"
)

// coerceValue converts v to the Go representation of typ.
func coerceValue(v interface{}, typ model.AttributeType) (interface{}, error) {
	if v == nil {
		return nil, errors.Wrapf(ErrMissingField, "nil value for %s", typ)
	}
	var (
		out interface{}
		err error
	)
	switch typ {
	case model.TypeBoolean:
		out, err = cast.ToBoolE(v)
	case model.TypeShort:
		out, err = cast.ToInt16E(v)
	case model.TypeInt:
		out, err = cast.ToInt32E(v)
	case model.TypeLong:
		out, err = cast.ToInt64E(v)
	case model.TypeFloat:
		out, err = cast.ToFloat32E(v)
	case model.TypeDouble:
		out, err = cast.ToFloat64E(v)
	case model.TypeString:
		out, err = cast.ToStringE(v)
	default:
		return nil, errors.Wrapf(ErrUnsupportedType, "%q", typ)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to convert %v to %s", v, typ)
	}

	return out, nil
}

// coerceEvent keeps the declared fields of ev, converted to their declared types.
func coerceEvent(ev model.Event, fields []Field) (model.Event, error) {
	out := make(model.Event, len(fields))
	for _, f := range fields {
		v, ok := ev[f.Name]
		if !ok {
			return nil, errors.Wrap(ErrMissingField, f.Name)
		}
		cv, err := coerceValue(v, f.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		out[f.Name] = cv
	}

	return out, nil
}

// sameKey compares join key values. Numbers of different widths compare by value.
func sameKey(a, b interface{}) bool {
	if a == nil || b == nil {
		return false
	}
	if isNumber(a) && isNumber(b) {
		return cast.ToFloat64(a) == cast.ToFloat64(b)
	}

	return fmt.Sprint(a) == fmt.Sprint(b)
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}

	return false
}

func copyEvent(ev model.Event) model.Event {
	out := make(model.Event, len(ev))
	for k, v := range ev {
		out[k] = v
	}

	return out
}
