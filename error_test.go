package linerpc

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewError(t *testing.T) {
	e := NewError(-32601, "Method not found")

	if e.IsZero() {
		t.Errorf("IsZero() = true, want false")
	}

	if got := e.Code(); got != -32601 {
		t.Errorf("Code() = %d, want -32601", got)
	}

	if got := e.Message(); got != "Method not found" {
		t.Errorf("Message() = %q, want %q", got, "Method not found")
	}

	if got := e.Error(); got != "Method not found" {
		t.Errorf("Error() = %q, want %q", got, "Method not found")
	}
}

func TestNewErrorWithData(t *testing.T) {
	e := NewErrorWithData(-32601, "Method not found", "sum is not a registered method.")

	if e.Data().IsZero() {
		t.Errorf("Data().IsZero() = true, want false")
	}

	if got := e.Data().Value(); got != "sum is not a registered method." {
		t.Errorf("Data().Value() = %v, want the data string", got)
	}
}

func TestErrorWithMessage(t *testing.T) {
	derived := ErrInvalidRequest.WithMessage("No id specified")

	if got := derived.Message(); got != "No id specified" {
		t.Errorf("Message() = %q, want %q", got, "No id specified")
	}

	if got := derived.Code(); got != ErrInvalidRequest.Code() {
		t.Errorf("Code() = %d, want %d", got, ErrInvalidRequest.Code())
	}

	if !errors.Is(derived, ErrInvalidRequest) {
		t.Errorf("errors.Is(derived, ErrInvalidRequest) = false, want true")
	}
}

func TestErrorIs(t *testing.T) {
	//nolint:govet //Dont shift order
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same code", ErrParse, ErrParse, true},
		{"different code", ErrParse, ErrInvalidRequest, false},
		{"wrapped", fmt.Errorf("call failed: %w", ErrMethodNotFound), ErrMethodNotFound, true},
		{"foreign error", ErrParse, errors.New("Invalid JSON"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorUnmarshalJSON(t *testing.T) {
	//nolint:govet //Dont shift order
	tests := []struct {
		name     string
		data     string
		wantZero bool
		wantCode int64
		wantMsg  string
		wantErr  bool
	}{
		{"error object", `{"code":-32601,"message":"Method not found"}`, false, -32601, "Method not found", false},
		{"with data", `{"code":-32601,"message":"Method not found","data":"sum is not a registered method."}`, false, -32601, "Method not found", false},
		{"null stays zero", `null`, true, 0, "", false},
		{"malformed", `{"code":`, true, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Error

			err := e.UnmarshalJSON([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				return
			}

			if got := e.IsZero(); got != tt.wantZero {
				t.Fatalf("IsZero() = %v, want %v", got, tt.wantZero)
			}

			if tt.wantZero {
				return
			}

			if got := e.Code(); got != tt.wantCode {
				t.Errorf("Code() = %d, want %d", got, tt.wantCode)
			}

			if got := e.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestErrorMarshalJSON(t *testing.T) {
	//nolint:govet //Dont shift order
	tests := []struct {
		name string
		err  Error
		want string
	}{
		{"zero marshals null", Error{}, "null"},
		{"code and message", NewError(-32700, "Invalid JSON"), `{"message":"Invalid JSON","code":-32700}`},
		{"with data", NewErrorWithData(-32601, "Method not found", "x"), `{"data":"x","message":"Method not found","code":-32601}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.err.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}

			if string(got) != tt.want {
				t.Errorf("MarshalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAsError(t *testing.T) {
	//nolint:govet //Dont shift order
	tests := []struct {
		name     string
		err      error
		wantCode int64
		wantMsg  string
	}{
		{"rpc error verbatim", NewError(-32099, "custom"), -32099, "custom"},
		{"wrapped rpc error", fmt.Errorf("handler: %w", ErrMethodNotFound), -32601, "Method not found"},
		{"invalid params", NewInvalidParamsError("arg0", "expected integer"), -32602, `invalid parameter "arg0": expected integer`},
		{"anything else masked", errors.New("database on fire"), -32000, "Error: Unknown error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := asError(tt.err)

			if got.Code() != tt.wantCode {
				t.Errorf("Code() = %d, want %d", got.Code(), tt.wantCode)
			}

			if got.Message() != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got.Message(), tt.wantMsg)
			}
		})
	}
}

func TestInvalidParamsError(t *testing.T) {
	e := NewInvalidParamsError("count", "expected integer, got string")

	want := `invalid parameter "count": expected integer, got string`
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
