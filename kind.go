package linerpc

import (
	"bytes"
	"encoding/json"
)

// Kind classifies the top-level JSON value held in a [json.RawMessage].
//
// Int and Float are distinct kinds: a number is an Int only when its
// textual form carries no fraction or exponent part. During marshalling
// integer parameters reject Float values; float parameters accept both
// kinds.
type Kind int

const (
	KindInvalid Kind = iota // Empty input or a byte that cannot start a JSON value.
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindNull:    "null",
	KindBool:    "boolean",
	KindInt:     "integer",
	KindFloat:   "float",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}

	return kindNames[k]
}

// KindOf examines raw and reports the kind of its top-level value.
//
// The leading byte decides the kind; a number's text is also scanned for
// a fraction or exponent. KindOf does not validate the full
// message; a result other than [KindInvalid] does not guarantee raw is
// well-formed JSON of that kind.
func KindOf(raw json.RawMessage) Kind {
	raw = bytes.TrimSpace(raw)

	if len(raw) == 0 {
		return KindInvalid
	}

	switch raw[0] {
	case '{':
		return KindObject
	case '[':
		return KindArray
	case '"':
		return KindString
	case 't', 'f':
		return KindBool
	case 'n':
		return KindNull
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		// A number is an integer unless a fraction or exponent appears.
		if bytes.ContainsAny(raw, ".eE") {
			return KindFloat
		}

		return KindInt
	}

	return KindInvalid
}
