package recordcsv

import (
	"fmt"
	"reflect"
)

type converterFuncs struct {
	parse  func(string, Locale) (reflect.Value, error)
	format func(reflect.Value, Locale) string
}

// Registry holds custom converters keyed by type. It is owned by the caller
// and consulted before the built-in conversions. A Registry must not be
// mutated while an operation using it is running.
type Registry struct {
	funcs map[reflect.Type]converterFuncs
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[reflect.Type]converterFuncs)}
}

// Register installs parse and format functions for V. Either may be nil to
// keep the built-in behavior for that direction.
func Register[V any](r *Registry, parse func(string, Locale) (V, error), format func(V, Locale) string) {
	if r == nil {
		panic("recordcsv: Register on nil registry")
	}
	var fns converterFuncs
	if parse != nil {
		fns.parse = func(s string, loc Locale) (reflect.Value, error) {
			v, err := parse(s, loc)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&v).Elem(), nil
		}
	}
	if format != nil {
		fns.format = func(v reflect.Value, loc Locale) string {
			return format(v.Interface().(V), loc)
		}
	}
	r.funcs[reflect.TypeFor[V]()] = fns
}

// RegisterEnum installs a converter mapping the values of V to names and back.
// Parsing is case-sensitive.
func RegisterEnum[V comparable](r *Registry, names map[V]string) {
	byName := make(map[string]V, len(names))
	for v, name := range names {
		byName[name] = v
	}
	Register(r,
		func(s string, _ Locale) (V, error) {
			v, ok := byName[s]
			if !ok {
				var zero V
				return zero, fmt.Errorf("%w: unknown value %q", ErrConversion, s)
			}
			return v, nil
		},
		func(v V, _ Locale) string {
			if name, ok := names[v]; ok {
				return name
			}
			return fmt.Sprint(v)
		})
}

// Unregister removes the converter for t.
func (r *Registry) Unregister(t reflect.Type) {
	if r == nil {
		return
	}
	delete(r.funcs, t)
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.funcs)
}

func (r *Registry) lookup(t reflect.Type) (converterFuncs, bool) {
	if r == nil {
		return converterFuncs{}, false
	}
	fns, ok := r.funcs[t]
	return fns, ok
}
