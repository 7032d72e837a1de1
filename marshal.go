package linerpc

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// This file converts between wire JSON values and the native Go types a
// handler declares. Conversions are driven by reflection so that handlers
// stay plain functions. Unsigned 64-bit integers have no JSON carrier of
// their own; they travel bit-reinterpreted as signed numbers and are
// restored on unpacking, so the full uint64 range round-trips.

// unpackParams checks that p holds a positional array of exactly
// len(types) elements and converts each element into its declared type.
// Every failure is an [InvalidParamsError] naming the offending argument.
func unpackParams(p *Params, types []reflect.Type, names []string) ([]reflect.Value, error) {
	if len(types) == 0 {
		if p.IsZero() || KindOf(p.RawMessage()) == KindArray && emptyArray(p.RawMessage()) {
			return nil, nil
		}

		return nil, NewInvalidParamsError("params", "expected an empty array")
	}

	raw := p.RawMessage()
	if KindOf(raw) != KindArray {
		return nil, NewInvalidParamsError("params", "expected a positional array")
	}

	var elems []json.RawMessage
	if err := Unmarshal(raw, &elems); err != nil {
		return nil, NewInvalidParamsError("params", "malformed array")
	}

	if len(elems) != len(types) {
		return nil, NewInvalidParamsError("params", fmt.Sprintf("expected %d parameters, got %d", len(types), len(elems)))
	}

	vals := make([]reflect.Value, len(elems))

	for i, elem := range elems {
		v, err := decodeValue(elem, types[i], names[i])
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	return vals, nil
}

func emptyArray(raw json.RawMessage) bool {
	var elems []json.RawMessage
	if err := Unmarshal(raw, &elems); err != nil {
		return false
	}

	return len(elems) == 0
}

// decodeValue converts one wire value into the native type t. arg names
// the value for error reporting and grows a suffix as decoding descends
// into elements and fields.
//
//nolint:cyclop,funlen //One arm per target kind reads better than a dispatch table.
func decodeValue(raw json.RawMessage, t reflect.Type, arg string) (reflect.Value, error) {
	kind := KindOf(raw)

	switch t.Kind() {
	case reflect.Bool:
		if kind != KindBool {
			return reflect.Value{}, NewInvalidParamsError(arg, "expected a boolean, got "+kind.String())
		}

		var b bool
		if err := Unmarshal(raw, &b); err != nil {
			return reflect.Value{}, NewInvalidParamsError(arg, "malformed boolean")
		}

		v := reflect.New(t).Elem()
		v.SetBool(b)

		return v, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := decodeInt(raw, kind, arg)
		if err != nil {
			return reflect.Value{}, err
		}

		v := reflect.New(t).Elem()
		if v.OverflowInt(i) {
			return reflect.Value{}, NewInvalidParamsError(arg, fmt.Sprintf("%d overflows %s", i, t))
		}

		v.SetInt(i)

		return v, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decodeUint(raw, t, kind, arg)
	case reflect.Float32, reflect.Float64:
		if kind != KindFloat && kind != KindInt {
			return reflect.Value{}, NewInvalidParamsError(arg, "expected a number, got "+kind.String())
		}

		var f float64
		if err := Unmarshal(raw, &f); err != nil {
			return reflect.Value{}, NewInvalidParamsError(arg, "malformed number")
		}

		v := reflect.New(t).Elem()
		v.SetFloat(f)

		return v, nil
	case reflect.String:
		if kind != KindString {
			return reflect.Value{}, NewInvalidParamsError(arg, "expected a string, got "+kind.String())
		}

		var s string
		if err := Unmarshal(raw, &s); err != nil {
			return reflect.Value{}, NewInvalidParamsError(arg, "malformed string")
		}

		v := reflect.New(t).Elem()
		v.SetString(s)

		return v, nil
	case reflect.Slice:
		return decodeSlice(raw, t, kind, arg)
	case reflect.Array:
		return decodeArray(raw, t, kind, arg)
	case reflect.Ptr:
		if kind == KindNull {
			return reflect.Zero(t), nil
		}

		elem, err := decodeValue(raw, t.Elem(), arg)
		if err != nil {
			return reflect.Value{}, err
		}

		v := reflect.New(t.Elem())
		v.Elem().Set(elem)

		return v, nil
	case reflect.Struct:
		return decodeStruct(raw, t, kind, arg)
	default:
		return reflect.Value{}, NewInvalidParamsError(arg, "unsupported parameter type "+t.String())
	}
}

func decodeInt(raw json.RawMessage, kind Kind, arg string) (int64, error) {
	if kind != KindInt {
		return 0, NewInvalidParamsError(arg, "expected an integer, got "+kind.String())
	}

	var num json.Number
	if err := Unmarshal(raw, &num); err != nil {
		return 0, NewInvalidParamsError(arg, "malformed integer")
	}

	i, err := num.Int64()
	if err != nil {
		return 0, NewInvalidParamsError(arg, "integer out of range")
	}

	return i, nil
}

// decodeUint restores unsigned targets from the signed wire carrier.
// uint64 reinterprets the full 64 bits; narrower targets must fit their
// range, so a byte only accepts 0 through 255.
func decodeUint(raw json.RawMessage, t reflect.Type, kind Kind, arg string) (reflect.Value, error) {
	i, err := decodeInt(raw, kind, arg)
	if err != nil {
		return reflect.Value{}, err
	}

	v := reflect.New(t).Elem()

	if t.Kind() == reflect.Uint64 {
		v.SetUint(uint64(i))
		return v, nil
	}

	if i < 0 || v.OverflowUint(uint64(i)) {
		return reflect.Value{}, NewInvalidParamsError(arg, fmt.Sprintf("%d overflows %s", i, t))
	}

	v.SetUint(uint64(i))

	return v, nil
}

func decodeSlice(raw json.RawMessage, t reflect.Type, kind Kind, arg string) (reflect.Value, error) {
	if kind != KindArray {
		return reflect.Value{}, NewInvalidParamsError(arg, "expected an array, got "+kind.String())
	}

	var elems []json.RawMessage
	if err := Unmarshal(raw, &elems); err != nil {
		return reflect.Value{}, NewInvalidParamsError(arg, "malformed array")
	}

	v := reflect.MakeSlice(t, len(elems), len(elems))

	for i, elem := range elems {
		ev, err := decodeValue(elem, t.Elem(), fmt.Sprintf("%s[%d]", arg, i))
		if err != nil {
			return reflect.Value{}, err
		}

		v.Index(i).Set(ev)
	}

	return v, nil
}

// decodeArray fills a fixed-size array from the front. Shorter input
// leaves the tail at zero values; longer input is an error.
func decodeArray(raw json.RawMessage, t reflect.Type, kind Kind, arg string) (reflect.Value, error) {
	if kind != KindArray {
		return reflect.Value{}, NewInvalidParamsError(arg, "expected an array, got "+kind.String())
	}

	var elems []json.RawMessage
	if err := Unmarshal(raw, &elems); err != nil {
		return reflect.Value{}, NewInvalidParamsError(arg, "malformed array")
	}

	if len(elems) > t.Len() {
		return reflect.Value{}, NewInvalidParamsError(arg, fmt.Sprintf("array holds at most %d elements, got %d", t.Len(), len(elems)))
	}

	v := reflect.New(t).Elem()

	for i, elem := range elems {
		ev, err := decodeValue(elem, t.Elem(), fmt.Sprintf("%s[%d]", arg, i))
		if err != nil {
			return reflect.Value{}, err
		}

		v.Index(i).Set(ev)
	}

	return v, nil
}

// decodeStruct requires every exported field to be present in the wire
// object. Field names follow the json tag when one is set.
func decodeStruct(raw json.RawMessage, t reflect.Type, kind Kind, arg string) (reflect.Value, error) {
	if kind != KindObject {
		return reflect.Value{}, NewInvalidParamsError(arg, "expected an object, got "+kind.String())
	}

	var fields map[string]json.RawMessage
	if err := Unmarshal(raw, &fields); err != nil {
		return reflect.Value{}, NewInvalidParamsError(arg, "malformed object")
	}

	v := reflect.New(t).Elem()

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		key := fieldKey(field)

		elem, ok := fields[key]
		if !ok {
			return reflect.Value{}, NewInvalidParamsError(arg, "missing field "+key)
		}

		fv, err := decodeValue(elem, field.Type, arg+"."+key)
		if err != nil {
			return reflect.Value{}, err
		}

		v.Field(i).Set(fv)
	}

	return v, nil
}

func fieldKey(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}

	return name
}

// encodeResult prepares a handler's return value for marshalling,
// applying the inverse of the unpacking rules. A [json.RawMessage]
// passes through untouched.
func encodeResult(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}

	return encodeValue(reflect.ValueOf(v))
}

// encodeValue converts a native value into a JSON-ready shape. Unsigned
// integers are reinterpreted as their signed bit patterns so the carrier
// stays within what the wire numbers allow.
//
//nolint:cyclop //One arm per source kind.
func encodeValue(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}

		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())

		for i := range rv.Len() {
			ev, err := encodeValue(rv.Index(i))
			if err != nil {
				return nil, err
			}

			out[i] = ev
		}

		return out, nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}

		return encodeValue(rv.Elem())
	case reflect.Struct:
		out := make(map[string]any, rv.NumField())

		for i := range rv.NumField() {
			field := rv.Type().Field(i)
			if !field.IsExported() {
				continue
			}

			fv, err := encodeValue(rv.Field(i))
			if err != nil {
				return nil, err
			}

			out[fieldKey(field)] = fv
		}

		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: unsupported result map key type %s", ErrEncoding, rv.Type().Key())
		}

		if rv.IsNil() {
			return nil, nil
		}

		out := make(map[string]any, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			ev, err := encodeValue(iter.Value())
			if err != nil {
				return nil, err
			}

			out[iter.Key().String()] = ev
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported result type %s", ErrEncoding, rv.Type())
	}
}
