package recordcsv

import (
	"fmt"
	"reflect"
	"strings"
)

// structField describes an exported struct field usable as a column.
//
// Struct tags tune the mapping:
//
//	Name   string `csv:"Full name"`      // header override
//	Secret string `csv:"-"`              // never mapped
//	ID     int    `csv:",readonly"`      // written to CSV, never populated
//	Token  string `csv:"tok,writeonly"`  // populated from CSV, never written
type structField struct {
	name   string
	header string
	index  []int
	typ    reflect.Type
	canGet bool
	canSet bool
}

func structFields(t reflect.Type) []structField {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []structField
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() || behindUnexportedPointer(t, f.Index) {
			continue
		}
		tag := f.Tag.Get("csv")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		sf := structField{
			name:   f.Name,
			header: f.Name,
			index:  f.Index,
			typ:    f.Type,
			canGet: true,
			canSet: true,
		}
		if name != "" {
			sf.header = name
		}
		for _, opt := range strings.Split(opts, ",") {
			switch opt {
			case "readonly":
				sf.canSet = false
			case "writeonly":
				sf.canGet = false
			}
		}
		if !sf.canGet && !sf.canSet {
			continue
		}
		out = append(out, sf)
	}
	return out
}

// behindUnexportedPointer reports whether the promoted field at index is
// reached through an embedded pointer to an unexported struct. Such a
// pointer cannot be allocated through reflection.
func behindUnexportedPointer(t reflect.Type, index []int) bool {
	for i := 1; i < len(index); i++ {
		f := t.FieldByIndex(index[:i])
		if f.Anonymous && !f.IsExported() && f.Type.Kind() == reflect.Pointer {
			return true
		}
	}
	return false
}

func lookupField(t reflect.Type, name string) (structField, error) {
	for _, f := range structFields(t) {
		if f.name == name {
			return f, nil
		}
	}
	return structField{}, fmt.Errorf("%w: no exported field %s in %v", ErrInvalidArgument, name, t)
}

// FieldHeader returns a column bound to the exported field name of T, which
// must be a struct or a pointer to a struct. The header defaults to the field
// name or its csv tag.
func FieldHeader[T any](name string, header string) (Column[T], error) {
	f, err := lookupField(reflect.TypeFor[T](), name)
	if err != nil {
		return Column[T]{}, err
	}
	if header == "" {
		header = f.header
	}
	return fieldColumn[T](f, -1, header), nil
}

// FieldIndex returns a column at index bound to the exported field name of T.
func FieldIndex[T any](name string, index int) (Column[T], error) {
	if index < 0 {
		return Column[T]{}, fmt.Errorf("%w: negative column index %d", ErrInvalidArgument, index)
	}
	f, err := lookupField(reflect.TypeFor[T](), name)
	if err != nil {
		return Column[T]{}, err
	}
	return fieldColumn[T](f, index, ""), nil
}

// fieldColumns synthesizes one header column per exported field of T.
func fieldColumns[T any]() []Column[T] {
	fields := structFields(reflect.TypeFor[T]())
	cols := make([]Column[T], 0, len(fields))
	for _, f := range fields {
		cols = append(cols, fieldColumn[T](f, -1, f.header))
	}
	return cols
}

func fieldColumn[T any](f structField, index int, header string) Column[T] {
	var produce WriteFunc[T]
	if f.canGet {
		produce = func(rec T, cv *Converter) string {
			fv, ok := getField(reflect.ValueOf(&rec).Elem(), f.index)
			if !ok {
				return ""
			}
			return cv.Format(fv.Interface())
		}
	}
	var populate ReadFunc[T]
	if f.canSet {
		populate = func(rec *T, cv *Converter, text string) error {
			parsed, ok := cv.TryParse(text, f.typ)
			if !ok {
				if text == "" {
					return nil
				}
				return fmt.Errorf("%w: %q to %v", ErrConversion, text, f.typ)
			}
			setField(reflect.ValueOf(rec).Elem(), f.index, parsed)
			return nil
		}
	}
	return newColumn(index, header, produce, populate)
}

func getField(v reflect.Value, index []int) (reflect.Value, bool) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	fv, err := v.FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, false
	}
	return fv, true
}

func setField(v reflect.Value, index []int, x reflect.Value) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	for i, n := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(n)
	}
	v.Set(x)
}
