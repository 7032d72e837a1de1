package linerpc

import (
	"testing"
)

func TestVersionUnmarshalJSON(t *testing.T) {
	//nolint:govet //Dont shift order
	tests := []struct {
		name    string
		data    string
		valid   bool
		wantErr bool
	}{
		{"supported", `"2.0"`, true, false},
		{"old revision", `"1.0"`, false, false},
		{"arbitrary string", `"two"`, false, false},
		{"number rejected", `2.0`, false, true},
		{"null rejected", `null`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Version

			err := v.UnmarshalJSON([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
			}

			if got := v.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestVersionIsValidZero(t *testing.T) {
	var v Version

	if v.IsValid() {
		t.Errorf("IsValid() on zero Version returned true, want false")
	}
}

func TestVersionMarshalJSON(t *testing.T) {
	// Even a version decoded from a wrong revision marshals as the
	// supported one.
	var v Version
	if err := v.UnmarshalJSON([]byte(`"1.0"`)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}

	got, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	if string(got) != `"2.0"` {
		t.Errorf("MarshalJSON() = %s, want %q", got, `"2.0"`)
	}
}
