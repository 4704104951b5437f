package pipeline

import (
	"context"
	"fmt"
	"reflect"

	"github.com/julianshen/componentdoc/internal/errors"
)

// NewStage adapts a function over typed records into a Stage. In and Out
// must be structs whose exported fields carry a `field:"name"` tag; the
// tags become the stage's Reads and Writes. Values are type-checked at the
// stage boundary and a mismatch fails the stage with ErrContract.
//
// NewStage panics when In or Out is not a tagged struct, since that is a
// programming error in the stage list.
func NewStage[In, Out any](name string, fn func(ctx context.Context, rc *RunContext, in In) (Out, error)) Stage {
	inType := reflect.TypeOf((*In)(nil)).Elem()
	outType := reflect.TypeOf((*Out)(nil)).Elem()

	return Stage{
		Name:   name,
		Reads:  mustFields(name, inType),
		Writes: mustFields(name, outType),
		Run: func(ctx context.Context, rc *RunContext, rec Record) (Record, error) {
			var in In
			if err := decode(rec, reflect.ValueOf(&in).Elem()); err != nil {
				return nil, err
			}
			out, err := fn(ctx, rc, in)
			if err != nil {
				return nil, err
			}
			return encode(reflect.ValueOf(out)), nil
		},
	}
}

type taggedField struct {
	index int
	name  Field
}

func tagged(t reflect.Type) ([]taggedField, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}
	var out []taggedField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("field")
		if tag == "" {
			continue
		}
		if !sf.IsExported() {
			return nil, fmt.Errorf("%s.%s is tagged but unexported", t, sf.Name)
		}
		out = append(out, taggedField{index: i, name: Field(tag)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s has no field-tagged members", t)
	}
	return out, nil
}

func mustFields(stage string, t reflect.Type) []Field {
	tf, err := tagged(t)
	if err != nil {
		panic(fmt.Sprintf("pipeline: stage %q: %v", stage, err))
	}
	fields := make([]Field, len(tf))
	for i, f := range tf {
		fields[i] = f.name
	}
	return fields
}

func decode(rec Record, dst reflect.Value) error {
	tf, err := tagged(dst.Type())
	if err != nil {
		return errors.Contract("%v", err)
	}
	if err := checkFields(rec, fieldNames(tf)); err != nil {
		return err
	}
	for _, f := range tf {
		target := dst.Field(f.index)
		v := rec[f.name]
		if v == nil {
			return errors.Contract("field %q is nil", f.name)
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(target.Type()) {
			return errors.Contract("field %q holds %s, want %s", f.name, rv.Type(), target.Type())
		}
		target.Set(rv)
	}
	return nil
}

func encode(src reflect.Value) Record {
	tf, _ := tagged(src.Type())
	rec := make(Record, len(tf))
	for _, f := range tf {
		rec[f.name] = src.Field(f.index).Interface()
	}
	return rec
}

func fieldNames(tf []taggedField) []Field {
	out := make([]Field, len(tf))
	for i, f := range tf {
		out[i] = f.name
	}
	return out
}
