package linerpc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID represents a JSON-RPC 2.0 request id.
//
// An id is a JSON string, a number, or null. Numbers decode as
// [json.Number] so their exact wire text is preserved. A zero-value ID
// means the id member was absent, which is distinct from an id that was
// explicitly null.
//
// Use [NewID] or [NewNullID] rather than constructing the struct directly.
type ID struct {
	value   any
	present bool
}

// NewID returns an ID holding v.
func NewID[V int64 | string | json.Number](v V) ID {
	return ID{present: true, value: v}
}

// NewNullID returns an ID representing the JSON null value. Null ids
// appear in responses to requests whose own id could not be determined.
func NewNullID() ID {
	return ID{present: true}
}

// IsZero returns true if the id member was absent.
func (id *ID) IsZero() bool {
	return !id.present
}

// IsNull returns true if the id was explicitly null.
func (id *ID) IsNull() bool {
	return id.present && id.value == nil
}

// Value returns the underlying value: string, int64, [json.Number], or nil.
func (id *ID) Value() any {
	if !id.present {
		return nil
	}

	return id.value
}

// Key returns the id in its canonical string form, used for correlating
// responses with pending requests. String ids are returned verbatim;
// numeric ids use their wire text. Absent and null ids yield "".
func (id *ID) Key() string {
	switch v := id.value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	}

	return ""
}

// Equal reports whether two ids identify the same request.
//
// Absent ids never compare equal, null ids only equal other null ids, and
// string ids never equal numeric ids. An int64 id compares by value, so an
// id built from int64(7) equals one decoded from the wire text "7"; two
// decoded numbers compare by their wire text.
func (id *ID) Equal(t ID) bool {
	if id.IsZero() || t.IsZero() {
		return false
	}

	if id.IsNull() || t.IsNull() {
		return id.IsNull() && t.IsNull()
	}

	switch v := id.value.(type) {
	case string:
		s, ok := t.value.(string)
		return ok && v == s
	case int64:
		return t.intValue() != nil && *t.intValue() == v
	case json.Number:
		if n, ok := t.value.(json.Number); ok {
			return v == n
		}

		if i := t.intValue(); i != nil {
			if vi, err := v.Int64(); err == nil {
				return vi == *i
			}
		}
	}

	return false
}

// intValue returns the id as *int64 when it is numeric and integral.
func (id *ID) intValue() *int64 {
	switch v := id.value.(type) {
	case int64:
		return &v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return &i
		}
	}

	return nil
}

// UnmarshalJSON implements [json.Unmarshaler]. Strings, numbers, and null
// are accepted; any other JSON type is an error.
func (id *ID) UnmarshalJSON(data []byte) error {
	switch KindOf(data) {
	case KindNull:
		id.present = true
	case KindString:
		var str string
		if err := Unmarshal(data, &str); err != nil {
			return fmt.Errorf("%w: %w", ErrDecoding, err)
		}

		id.value = str
		id.present = true
	case KindInt, KindFloat:
		var num json.Number
		if err := Unmarshal(data, &num); err != nil {
			return fmt.Errorf("%w: %w", ErrDecoding, err)
		}

		id.value = num
		id.present = true
	default:
		return fmt.Errorf("%w: invalid type for id", ErrDecoding)
	}

	return nil
}

// MarshalJSON implements [json.Marshaler]. Absent and null ids both
// marshal as JSON null.
func (id *ID) MarshalJSON() ([]byte, error) {
	if !id.present || id.value == nil {
		return nullValue, nil
	}

	buf, err := Marshal(id.value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return buf, nil
}
