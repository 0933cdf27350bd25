package canonical

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// From converts an arbitrary Go value into a Value.
//
// Conversion rules:
//   - nil, nil pointers, nil maps and nil slices become Null
//   - bool, integer, float and string kinds (including named types) map to
//     their scalar kinds; unsigned values up to MaxInt64 become Int
//   - NaN and ±Inf become the strings "NaN", "Infinity", "-Infinity"
//   - []byte becomes a base64 string, as encoding/json does
//   - slices and arrays become Array, maps become Object (non-string keys
//     are formatted with %v)
//   - error values become their message
//   - structs and json/text marshalers go through encoding/json
//   - channels and funcs become a "<type>" placeholder string
//   - a map, slice or pointer reached again inside itself becomes a
//     "<cycle type>" placeholder string
//
// From never fails: anything it cannot represent is recorded as a string.
func From(v any) Value {
	var c converter
	return c.from(v)
}

// converter carries the maps, slices and pointers on the current path.
type converter struct {
	seen map[visit]struct{}
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

func (c *converter) from(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Value:
		return val
	case error:
		return String(val.Error())
	case json.Marshaler, encoding.TextMarshaler:
		return fromJSON(val)
	}
	return c.value(reflect.ValueOf(v))
}

// enter marks rv as being converted. It reports false when rv is already
// on the path; otherwise the caller must call leave.
func (c *converter) enter(rv reflect.Value) (visit, bool) {
	v := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		v.len = rv.Len()
	}
	if _, ok := c.seen[v]; ok {
		return v, false
	}
	if c.seen == nil {
		c.seen = make(map[visit]struct{})
	}
	c.seen[v] = struct{}{}
	return v, true
}

func (c *converter) leave(v visit) {
	delete(c.seen, v)
}

func cycle(rv reflect.Value) Value {
	return String(fmt.Sprintf("<cycle %s>", rv.Type()))
}

func (c *converter) value(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null{}
	case reflect.Interface:
		if rv.IsNil() {
			return Null{}
		}
		return c.elem(rv.Elem())
	case reflect.Pointer:
		if rv.IsNil() {
			return Null{}
		}
		v, ok := c.enter(rv)
		if !ok {
			return cycle(rv)
		}
		defer c.leave(v)
		return c.elem(rv.Elem())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return Int(int64(u))
		}
		return Uint(u)
	case reflect.Float32:
		// Widening float32 directly would record 0.1 as 0.10000000149011612.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(rv.Float(), 'g', -1, 32), 64)
		return fromFloat(f)
	case reflect.Float64:
		return fromFloat(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return Null{}
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return String(base64.StdEncoding.EncodeToString(rv.Bytes()))
		}
		if rv.Len() == 0 {
			return Array{}
		}
		v, ok := c.enter(rv)
		if !ok {
			return cycle(rv)
		}
		defer c.leave(v)
		return c.list(rv)
	case reflect.Array:
		return c.list(rv)
	case reflect.Map:
		if rv.IsNil() {
			return Null{}
		}
		v, ok := c.enter(rv)
		if !ok {
			return cycle(rv)
		}
		defer c.leave(v)
		obj := make(Object, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			key := fmt.Sprint(k.Interface())
			if k.Kind() == reflect.String {
				key = k.String()
			}
			obj[key] = c.elem(iter.Value())
		}
		return obj
	case reflect.Struct:
		if !rv.CanInterface() {
			return String(fmt.Sprintf("<%s>", rv.Type()))
		}
		return fromJSON(rv.Interface())
	default:
		return String(fmt.Sprintf("<%s>", rv.Type()))
	}
}

func (c *converter) elem(rv reflect.Value) Value {
	if rv.CanInterface() {
		return c.from(rv.Interface())
	}
	return c.value(rv)
}

func (c *converter) list(rv reflect.Value) Array {
	arr := make(Array, rv.Len())
	for i := range arr {
		arr[i] = c.elem(rv.Index(i))
	}
	return arr
}

func fromFloat(f float64) Value {
	switch {
	case math.IsNaN(f):
		return String("NaN")
	case math.IsInf(f, 1):
		return String("Infinity")
	case math.IsInf(f, -1):
		return String("-Infinity")
	}
	return Float(f)
}

// fromJSON records a value through its encoding/json representation.
// A value encoding/json rejects, cyclic ones included, is recorded as its
// type and the encoding error.
func fromJSON(v any) Value {
	b, err := json.Marshal(v)
	if err != nil {
		return String(fmt.Sprintf("<%T: %v>", v, err))
	}
	val, err := Parse(b)
	if err != nil {
		return String(string(b))
	}
	return val
}
