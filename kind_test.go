package linerpc

import (
	"encoding/json"
	"testing"
)

func TestKindOf(t *testing.T) {
	//nolint:govet //Dont shift order
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{"empty", "", KindInvalid},
		{"whitespace only", "   ", KindInvalid},
		{"null", "null", KindNull},
		{"true", "true", KindBool},
		{"false", "false", KindBool},
		{"int", "42", KindInt},
		{"negative int", "-7", KindInt},
		{"float", "4.2", KindFloat},
		{"exponent", "1e9", KindFloat},
		{"capital exponent", "2E3", KindFloat},
		{"string", `"hi"`, KindString},
		{"array", "[1,2]", KindArray},
		{"object", `{"a":1}`, KindObject},
		{"leading space", "  {}", KindObject},
		{"garbage", "@", KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	//nolint:govet //Dont shift order
	tests := []struct {
		kind Kind
		want string
	}{
		{KindInvalid, "invalid"},
		{KindNull, "null"},
		{KindBool, "boolean"},
		{KindInt, "integer"},
		{KindFloat, "float"},
		{KindString, "string"},
		{KindArray, "array"},
		{KindObject, "object"},
		{Kind(-1), "invalid"},
		{Kind(100), "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
