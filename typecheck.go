package bond

import (
	"math"
	"reflect"
)

type family int

const (
	familyNone family = iota
	familyInteger
	familyFloat
	familyBool
)

func familyOf(k reflect.Kind) family {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return familyInteger
	case reflect.Float32, reflect.Float64:
		return familyFloat
	case reflect.Bool:
		return familyBool
	default:
		return familyNone
	}
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// convert checks that v fits T and returns it as a T.
func convert[T any](point string, v any) (T, error) {
	var zero T
	target := reflect.TypeFor[T]()

	if v == nil {
		if nilable(target.Kind()) {
			return zero, nil
		}
		return zero, newTypeMismatch(point, "agent returned nil, want %s", target)
	}
	if t, ok := v.(T); ok {
		return t, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(target) {
		out := reflect.New(target).Elem()
		out.Set(rv)
		return out.Interface().(T), nil
	}

	fam := familyOf(target.Kind())
	if fam == familyNone || fam != familyOf(rv.Kind()) {
		return zero, newTypeMismatch(point, "agent returned %T (%v), want %s", v, v, target)
	}
	if overflows(rv, target) {
		return zero, newTypeMismatch(point, "agent returned %T (%v), which overflows %s", v, v, target)
	}
	return rv.Convert(target).Interface().(T), nil
}

// overflows reports whether converting rv to target loses its value.
// rv and target belong to the same family.
func overflows(rv reflect.Value, target reflect.Type) bool {
	limit := reflect.Zero(target)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x := rv.Int()
		if isUnsigned(target.Kind()) {
			return x < 0 || limit.OverflowUint(uint64(x))
		}
		return limit.OverflowInt(x)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		x := rv.Uint()
		if isUnsigned(target.Kind()) {
			return limit.OverflowUint(x)
		}
		return x > math.MaxInt64 || limit.OverflowInt(int64(x))
	case reflect.Float32, reflect.Float64:
		return limit.OverflowFloat(rv.Float())
	default:
		return false
	}
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}
