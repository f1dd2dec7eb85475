package lazy

import (
	"fmt"
	"reflect"
)

// Member forwarding is reflection based: a member name maps to an exported
// method (preferred) or an exported struct field of the real instance.
// Reading a name that matches neither yields (nil, nil) — the `undefined`
// analogue — so forwarding mirrors property access rather than failing hard.

// memberGet reads a member off the real instance. Methods come back bound,
// as func(args ...any) (any, error).
func memberGet(instance any, name string) (any, error) {
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return nil, nil
	}
	if m := v.MethodByName(name); m.IsValid() {
		return bindValue(m), nil
	}

	elem := reflect.Indirect(v)
	if elem.Kind() == reflect.Struct {
		if f, ok := elem.Type().FieldByName(name); ok && f.IsExported() {
			return elem.FieldByIndex(f.Index).Interface(), nil
		}
	}
	return nil, nil
}

// memberSet writes an exported, settable struct field of the real instance.
func memberSet(instance any, name string, value any) error {
	elem := reflect.Indirect(reflect.ValueOf(instance))
	if elem.Kind() != reflect.Struct {
		return UnsupportedOperationError{Op: "set", Member: name}
	}
	f, ok := elem.Type().FieldByName(name)
	if !ok || !f.IsExported() {
		return UnsupportedOperationError{Op: "set", Member: name}
	}
	field := elem.FieldByIndex(f.Index)
	if !field.CanSet() {
		return UnsupportedOperationError{Op: "set", Member: name}
	}

	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(field.Type()):
		field.Set(rv)
	case rv.Type().ConvertibleTo(field.Type()):
		field.Set(rv.Convert(field.Type()))
	default:
		return fmt.Errorf("lazy: cannot assign %T to member %q", value, name)
	}
	return nil
}

// memberHas reports whether the real instance exposes the member.
func memberHas(instance any, name string) bool {
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return false
	}
	if m := v.MethodByName(name); m.IsValid() {
		return true
	}
	elem := reflect.Indirect(v)
	if elem.Kind() == reflect.Struct {
		if f, ok := elem.Type().FieldByName(name); ok && f.IsExported() {
			return true
		}
	}
	return false
}

// bindMethod binds a named method of the real instance.
func bindMethod(instance any, name string) (func(args ...any) (any, error), error) {
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return nil, fmt.Errorf("lazy: no method %q on nil instance", name)
	}
	m := v.MethodByName(name)
	if !m.IsValid() {
		return nil, fmt.Errorf("lazy: no method %q on %T", name, instance)
	}
	return bindValue(m), nil
}

// bindValue wraps a reflect func value into a variadic any-typed caller.
// Return conventions: no results → nil; a trailing error is split off; a
// single remaining result is returned as-is, several as []any.
func bindValue(m reflect.Value) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		mt := m.Type()
		fixed := mt.NumIn()
		if mt.IsVariadic() {
			fixed--
			if len(args) < fixed {
				return nil, fmt.Errorf("lazy: call needs at least %d args, got %d", fixed, len(args))
			}
		} else if len(args) != fixed {
			return nil, fmt.Errorf("lazy: call needs %d args, got %d", fixed, len(args))
		}

		in := make([]reflect.Value, len(args))
		for i, arg := range args {
			var want reflect.Type
			if i < fixed {
				want = mt.In(i)
			} else {
				want = mt.In(mt.NumIn() - 1).Elem()
			}
			av, err := coerce(arg, want)
			if err != nil {
				return nil, fmt.Errorf("lazy: arg %d: %w", i, err)
			}
			in[i] = av
		}

		out := m.Call(in)

		var callErr error
		if n := len(out); n > 0 && mt.Out(n-1) == errorType {
			if e, _ := out[n-1].Interface().(error); e != nil {
				callErr = e
			}
			out = out[:n-1]
		}
		switch len(out) {
		case 0:
			return nil, callErr
		case 1:
			return out[0].Interface(), callErr
		default:
			values := make([]any, len(out))
			for i, o := range out {
				values[i] = o.Interface()
			}
			return values, callErr
		}
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func coerce(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}
	av := reflect.ValueOf(arg)
	switch {
	case av.Type().AssignableTo(want):
		return av, nil
	case av.Type().ConvertibleTo(want):
		return av.Convert(want), nil
	default:
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", arg, want)
	}
}
