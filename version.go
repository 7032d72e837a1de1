package linerpc

import (
	"fmt"
)

// ProtocolVersion is the only protocol revision this package speaks.
const ProtocolVersion = "2.0"

// Version represents the jsonrpc member of requests and responses.
//
// Decoding is tolerant: any JSON string is accepted and recorded so that a
// request carrying the wrong revision can still be answered with its own
// id. Validation happens later through [Version.IsValid].
type Version struct {
	value   string
	present bool
}

// IsValid returns true if the member was present and names the supported
// protocol revision.
func (v *Version) IsValid() bool {
	return v.present && v.value == ProtocolVersion
}

// UnmarshalJSON implements [json.Unmarshaler].
func (v *Version) UnmarshalJSON(data []byte) error {
	var str string
	if err := Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %w", ErrDecoding, err)
	}

	v.value = str
	v.present = true

	return nil
}

// MarshalJSON implements [json.Marshaler]. Outgoing messages always carry
// the supported revision regardless of the decoded value.
func (Version) MarshalJSON() ([]byte, error) {
	buf, err := Marshal(ProtocolVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return buf, nil
}
