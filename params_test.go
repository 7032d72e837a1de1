package linerpc

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewParamsArray(t *testing.T) {
	p := NewParamsArray([]any{1, "two", true})

	got, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	if string(got) != `[1,"two",true]` {
		t.Errorf("MarshalJSON() = %s, want %s", got, `[1,"two",true]`)
	}
}

func TestNewParamsRaw(t *testing.T) {
	p := NewParamsRaw(json.RawMessage(`[1,2,3]`))

	if got := string(p.RawMessage()); got != `[1,2,3]` {
		t.Errorf("RawMessage() = %s, want [1,2,3]", got)
	}

	if got := p.Kind(); got != KindArray {
		t.Errorf("Kind() = %v, want %v", got, KindArray)
	}
}

func TestParamsUnmarshalJSON(t *testing.T) {
	// Decoding stores any well-formed value; shape is the unpacker's
	// problem.
	//nolint:govet //Dont shift order
	tests := []struct {
		name string
		data string
		kind Kind
	}{
		{"array", `[1,2]`, KindArray},
		{"object", `{"a":1}`, KindObject},
		{"scalar", `7`, KindInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Params

			if err := p.UnmarshalJSON([]byte(tt.data)); err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}

			if got := p.Kind(); got != tt.kind {
				t.Errorf("Kind() = %v, want %v", got, tt.kind)
			}
		})
	}
}

func TestParamsUnmarshal(t *testing.T) {
	var p Params
	if err := p.UnmarshalJSON([]byte(`[1,2,3]`)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}

	var v []int
	if err := p.Unmarshal(&v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(v) != 3 || v[2] != 3 {
		t.Errorf("Unmarshal() = %v, want [1 2 3]", v)
	}
}

func TestParamsUnmarshalNotRaw(t *testing.T) {
	p := NewParamsArray([]int{1})

	var v []int
	if err := p.Unmarshal(&v); !errors.Is(err, ErrNotRawMessage) {
		t.Errorf("Unmarshal() error = %v, want ErrNotRawMessage", err)
	}
}

func TestParamsIsZero(t *testing.T) {
	//nolint:govet //Dont shift order
	tests := []struct {
		name   string
		params Params
		want   bool
	}{
		{"zero value", Params{}, true},
		{"empty raw", NewParamsRaw(json.RawMessage{}), true},
		{"array", NewParamsArray([]int{1}), false},
		{"raw array", NewParamsRaw(json.RawMessage(`[]`)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.IsZero(); got != tt.want {
				t.Errorf("IsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}
