package linerpc

import (
	"encoding/json"
	"fmt"
)

// Params represents the params member of a [Request].
//
// The protocol carries positional parameters only, but decoding stores
// any well-formed JSON value: shape is checked when the array is unpacked
// against a handler's signature, so a by-name object earns the caller an
// invalid-params reply rather than a parse error.
type Params struct {
	value any
}

// NewParamsArray returns a new [Params] whose value is the provided
// slice, marshalled as a positional array.
//
// Example:
//
//	params := linerpc.NewParamsArray([]any{1, "hello", true})
func NewParamsArray[V any, P ~[]V](v P) Params {
	return Params{value: v}
}

// NewParamsRaw returns a new [Params] wrapping pre-encoded JSON. The
// bytes are written to the wire without a re-encoding cycle.
func NewParamsRaw(v json.RawMessage) Params {
	return Params{value: v}
}

// RawMessage returns the internally stored [json.RawMessage].
//
// If the stored value is not a [json.RawMessage] nil is returned.
func (p *Params) RawMessage() json.RawMessage {
	if raw, ok := p.value.(json.RawMessage); ok {
		return raw
	}

	return nil
}

// Value returns the raw internal value. May be a native Go value, a
// [json.RawMessage], or nil.
func (p *Params) Value() any {
	return p.value
}

// Kind reports the kind of the stored [json.RawMessage]. Native Go
// values report [KindInvalid].
func (p *Params) Kind() Kind {
	if raw, ok := p.value.(json.RawMessage); ok {
		return KindOf(raw)
	}

	return KindInvalid
}

// Unmarshal decodes the internally stored [json.RawMessage] into v.
//
// If a [json.RawMessage] is not stored internally, [ErrNotRawMessage] is
// returned.
func (p *Params) Unmarshal(v any) error {
	if raw, ok := p.value.(json.RawMessage); ok {
		return Unmarshal(raw, v)
	}

	return ErrNotRawMessage
}

// IsZero returns true if no params were set or decoded.
func (p *Params) IsZero() bool {
	if p.value == nil {
		return true
	}

	if raw, ok := p.value.(json.RawMessage); ok {
		return len(raw) == 0
	}

	return false
}

// UnmarshalJSON implements [json.Unmarshaler]. The raw bytes are stored
// for later unpacking against a handler's declared parameters.
func (p *Params) UnmarshalJSON(data []byte) error {
	var raw json.RawMessage
	if err := raw.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %w", ErrDecoding, err)
	}

	p.value = raw

	return nil
}

// MarshalJSON implements [json.Marshaler].
func (p *Params) MarshalJSON() ([]byte, error) {
	buf, err := Marshal(p.value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return buf, nil
}
