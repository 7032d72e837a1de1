package linerpc

import (
	"testing"
)

func TestResponseMarshalJSON(t *testing.T) {
	// Both members always travel, the unused one as null.
	//nolint:govet //Dont shift order
	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{
			name: "result",
			resp: NewResponseWithResult(int64(1), "pong"),
			want: `{"jsonrpc":"2.0","result":"pong","error":null,"id":1}`,
		},
		{
			name: "error",
			resp: NewResponseWithError(int64(2), ErrMethodNotFound),
			want: `{"jsonrpc":"2.0","result":null,"error":{"message":"Method not found","code":-32601},"id":2}`,
		},
		{
			name: "null id",
			resp: NewResponseError(ErrParse),
			want: `{"jsonrpc":"2.0","result":null,"error":{"message":"Invalid JSON","code":-32700},"id":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.resp)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResponseUnmarshalJSON(t *testing.T) {
	// Peers may send both members or only the relevant one.
	//nolint:govet //Dont shift order
	tests := []struct {
		name    string
		data    string
		isError bool
	}{
		{"both members success", `{"jsonrpc":"2.0","result":3,"error":null,"id":1}`, false},
		{"both members error", `{"jsonrpc":"2.0","result":null,"error":{"code":-32601,"message":"Method not found"},"id":1}`, true},
		{"result only", `{"jsonrpc":"2.0","result":3,"id":1}`, false},
		{"error only", `{"jsonrpc":"2.0","error":{"code":-32700,"message":"Invalid JSON"},"id":null}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp Response
			if err := Unmarshal([]byte(tt.data), &resp); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			if got := resp.IsError(); got != tt.isError {
				t.Errorf("IsError() = %v, want %v", got, tt.isError)
			}
		})
	}
}

func TestNewResponseWithError(t *testing.T) {
	resp := NewResponseWithError("req-1", NewInvalidParamsError("arg0", "expected integer"))

	if got := resp.Error.Code(); got != -32602 {
		t.Errorf("Error.Code() = %d, want -32602", got)
	}

	want := `invalid parameter "arg0": expected integer`
	if got := resp.Error.Message(); got != want {
		t.Errorf("Error.Message() = %q, want %q", got, want)
	}
}
