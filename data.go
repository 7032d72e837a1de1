package linerpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyData indicates an Unmarshal on a container holding nothing.
var ErrEmptyData = errors.New("data is empty")

// ErrNotRawMessage indicates that an operation expected the internal value
// to be a [json.RawMessage], but it was not.
var ErrNotRawMessage = errors.New("value is not a raw message")

// Data generically wraps arbitrary data but always unmarshals into a
// [json.RawMessage] internally.
//
// If a [json.RawMessage] is stored internally, it is used for marshalling
// as-is.
type Data struct {
	value   any
	present bool
}

// NewData returns a new [Data] with its value set to v.
func NewData(v any) Data {
	return Data{present: true, value: v}
}

// RawMessage returns the [json.RawMessage] stored internally if present.
//
// RawMessage may only be valid after an unmarshalling, or if a
// [json.RawMessage] was stored directly.
func (d *Data) RawMessage() json.RawMessage {
	if raw, ok := d.value.(json.RawMessage); ok {
		return raw
	}

	return nil
}

// Value returns the underlying value as stored when created with a New*
// function. It may be nil if not set or a nil was stored.
func (d *Data) Value() any {
	return d.value
}

// Kind reports the kind of the stored [json.RawMessage], or [KindInvalid]
// when a native Go value is stored instead.
func (d *Data) Kind() Kind {
	if raw, ok := d.value.(json.RawMessage); ok {
		return KindOf(raw)
	}

	return KindInvalid
}

// Unmarshal decodes the internal [json.RawMessage] into v.
//
// If the container is empty, [ErrEmptyData] is returned and v is
// untouched. If the internal value is not a [json.RawMessage],
// [ErrNotRawMessage] is returned.
func (d *Data) Unmarshal(v any) error {
	switch vt := d.value.(type) {
	case json.RawMessage:
		return Unmarshal(vt, v)
	case nil:
		return ErrEmptyData
	}

	return ErrNotRawMessage
}

// IsZero returns true if the member was absent or holds nothing.
func (d *Data) IsZero() bool {
	if !d.present || d.value == nil {
		return true
	}

	if raw, ok := d.value.(json.RawMessage); ok {
		return len(raw) == 0
	}

	return false
}

// UnmarshalJSON implements [json.Unmarshaler].
func (d *Data) UnmarshalJSON(data []byte) error {
	var raw json.RawMessage
	if err := raw.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %w", ErrDecoding, err)
	}

	d.value = raw
	d.present = true

	return nil
}

// MarshalJSON implements [json.Marshaler]. An empty container marshals as
// JSON null.
func (d *Data) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return nullValue, nil
	}

	buf, err := Marshal(d.value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return buf, nil
}
